package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/orgportal/chancellery/internal/models"
	"gorm.io/gorm"
)

// Service is a process-wide read-through cache over the status and type
// reference catalogs. Both tables are small, effectively static and shared
// by every request, so they are fetched at most once per TTL.
type Service struct {
	db  *gorm.DB
	ttl time.Duration

	mu        sync.RWMutex
	statuses  []models.DocumentStatus
	types     map[models.Kind][]models.DocumentType
	fetchedAt time.Time
}

// NewService creates a catalog service with the given cache TTL
func NewService(db *gorm.DB, ttl time.Duration) *Service {
	return &Service{
		db:  db,
		ttl: ttl,
	}
}

// EnsureDefaultStatuses seeds the shared status catalog. Idempotent: only
// missing codes are inserted, existing rows are left untouched.
func EnsureDefaultStatuses(db *gorm.DB) error {
	for _, status := range models.DefaultStatuses {
		var existing models.DocumentStatus
		err := db.Where("code = ?", status.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check status %q: %w", status.Code, err)
		}
		if err := db.Create(&status).Error; err != nil {
			return fmt.Errorf("failed to seed status %q: %w", status.Code, err)
		}
	}
	return nil
}

// refresh reloads both catalogs from the store. Caller must hold s.mu.
func (s *Service) refresh() error {
	var statuses []models.DocumentStatus
	if err := s.db.Order("display_order ASC").Find(&statuses).Error; err != nil {
		return fmt.Errorf("failed to load status catalog: %w", err)
	}

	var types []models.DocumentType
	if err := s.db.Order("id ASC").Find(&types).Error; err != nil {
		return fmt.Errorf("failed to load type catalog: %w", err)
	}

	byKind := make(map[models.Kind][]models.DocumentType)
	for _, t := range types {
		byKind[t.Kind] = append(byKind[t.Kind], t)
	}

	s.statuses = statuses
	s.types = byKind
	s.fetchedAt = time.Now()
	return nil
}

func (s *Service) ensureFresh() error {
	s.mu.RLock()
	fresh := s.fetchedAt.Add(s.ttl).After(time.Now()) && s.statuses != nil
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have refreshed while we waited for the lock
	if s.fetchedAt.Add(s.ttl).After(time.Now()) && s.statuses != nil {
		return nil
	}
	return s.refresh()
}

// ClearCache drops the cached catalogs; the next read hits the store.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = nil
	s.types = nil
	s.fetchedAt = time.Time{}
}

// Statuses returns the shared status catalog ordered by display order
func (s *Service) Statuses() ([]models.DocumentStatus, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DocumentStatus, len(s.statuses))
	copy(out, s.statuses)
	return out, nil
}

// StatusByID resolves a status by id, or nil if it does not exist
func (s *Service) StatusByID(id int64) (*models.DocumentStatus, error) {
	statuses, err := s.Statuses()
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].ID == id {
			return &statuses[i], nil
		}
	}
	return nil, nil
}

// StatusByCode resolves a status by code, or nil if it does not exist
func (s *Service) StatusByCode(code string) (*models.DocumentStatus, error) {
	statuses, err := s.Statuses()
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].Code == code {
			return &statuses[i], nil
		}
	}
	return nil, nil
}

// TypesForKind returns the document types scoped to one kind
func (s *Service) TypesForKind(kind models.Kind) ([]models.DocumentType, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DocumentType, len(s.types[kind]))
	copy(out, s.types[kind])
	return out, nil
}

// TypeByID resolves a type by id within one kind, or nil if absent
func (s *Service) TypeByID(kind models.Kind, id int64) (*models.DocumentType, error) {
	types, err := s.TypesForKind(kind)
	if err != nil {
		return nil, err
	}
	for i := range types {
		if types[i].ID == id {
			return &types[i], nil
		}
	}
	return nil, nil
}
