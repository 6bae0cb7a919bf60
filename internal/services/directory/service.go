package directory

import (
	"log"
	"time"

	"github.com/orgportal/chancellery/internal/config"
	"github.com/orgportal/chancellery/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncService mirrors contacts and organizations from the upstream HR
// directory into the local lookup tables. Documents only reference this
// data; it is never mutated locally.
type SyncService struct {
	client *Client
	db     *gorm.DB
	cfg    config.DirectoryConfig
	stop   chan struct{}
}

// contactRecord is the upstream wire shape of a contact
type contactRecord struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Function  string      `json:"function"`
	Email     interface{} `json:"email"`
	Phone     interface{} `json:"phone"`
	ParentID  interface{} `json:"parent_id"`
	Active    bool        `json:"active"`
	WriteDate string      `json:"write_date"`
}

// organizationRecord is the upstream wire shape of an organization
type organizationRecord struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	VAT       interface{} `json:"vat"`
	Active    bool        `json:"active"`
	WriteDate string      `json:"write_date"`
}

// NewSyncService creates a new directory synchronization service
func NewSyncService(db *gorm.DB, cfg config.DirectoryConfig) *SyncService {
	return &SyncService{
		client: NewClient(cfg.URL, cfg.Database, cfg.Username, cfg.Password),
		db:     db,
		cfg:    cfg,
		stop:   make(chan struct{}),
	}
}

// Start begins the background synchronization loop
func (s *SyncService) Start() {
	if s.cfg.URL == "" {
		log.Println("Directory Sync disabled: DIRECTORY_URL not configured")
		return
	}

	go func() {
		log.Println("📡 Directory Sync Service started")

		if _, err := s.client.Authenticate(); err != nil {
			log.Printf("❌ Directory authentication failed: %v", err)
			return
		}

		s.runFullSync()

		interval := time.Duration(s.cfg.SyncInterval) * time.Minute
		if s.cfg.SyncInterval <= 0 {
			interval = 15 * time.Minute
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runFullSync()
			case <-s.stop:
				log.Println("🛑 Directory Sync Service stopped")
				return
			}
		}
	}()
}

// Stop halts the service
func (s *SyncService) Stop() {
	close(s.stop)
}

// runFullSync runs all sync operations
func (s *SyncService) runFullSync() {
	log.Println("🔄 Directory: Starting sync...")
	s.syncOrganizations()
	s.syncContacts()
	log.Println("✅ Directory: Sync completed")
}

// syncContacts pulls contact records changed since the last local write date
func (s *SyncService) syncContacts() {
	domain := []interface{}{
		[]interface{}{"write_date", ">", s.lastWriteDate(&models.Contact{})},
		[]interface{}{"is_company", "=", false},
	}

	var records []contactRecord
	err := s.client.SearchRead("res.partner", domain, []string{
		"name", "function", "email", "phone", "parent_id", "active", "write_date",
	}, 1000, 0, &records)
	if err != nil {
		log.Printf("❌ Directory: contact sync failed: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, rec := range records {
		contact := models.Contact{
			ID:           rec.ID,
			Name:         rec.Name,
			Position:     rec.Function,
			Email:        asString(rec.Email),
			Phone:        asString(rec.Phone),
			Active:       rec.Active,
			WriteDate:    parseUpstreamTime(rec.WriteDate),
			LastSyncedAt: now,
		}
		if orgID, ok := asRelationID(rec.ParentID); ok {
			contact.OrganizationID = &orgID
		}

		if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&contact).Error; err != nil {
			log.Printf("❌ Directory: failed to upsert contact %d: %v", rec.ID, err)
		}
	}

	if len(records) > 0 {
		log.Printf("👥 Directory: synced %d contacts", len(records))
	}
}

// syncOrganizations pulls organization records
func (s *SyncService) syncOrganizations() {
	domain := []interface{}{
		[]interface{}{"write_date", ">", s.lastWriteDate(&models.Organization{})},
		[]interface{}{"is_company", "=", true},
	}

	var records []organizationRecord
	err := s.client.SearchRead("res.partner", domain, []string{
		"name", "vat", "active", "write_date",
	}, 1000, 0, &records)
	if err != nil {
		log.Printf("❌ Directory: organization sync failed: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, rec := range records {
		org := models.Organization{
			ID:           rec.ID,
			Name:         rec.Name,
			TaxID:        asString(rec.VAT),
			Active:       rec.Active,
			WriteDate:    parseUpstreamTime(rec.WriteDate),
			LastSyncedAt: now,
		}
		if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&org).Error; err != nil {
			log.Printf("❌ Directory: failed to upsert organization %d: %v", rec.ID, err)
		}
	}

	if len(records) > 0 {
		log.Printf("🏢 Directory: synced %d organizations", len(records))
	}
}

// lastWriteDate returns the newest upstream write date seen locally, as the
// upstream timestamp format
func (s *SyncService) lastWriteDate(model interface{}) string {
	type row struct {
		WriteDate time.Time
	}
	var r row
	result := s.db.Model(model).Select("write_date").Order("write_date DESC").Limit(1).Scan(&r)
	if result.Error != nil || r.WriteDate.IsZero() {
		return "2000-01-01 00:00:00"
	}
	return r.WriteDate.Format("2006-01-02 15:04:05")
}

// parseUpstreamTime parses the upstream "YYYY-MM-DD HH:MM:SS" format
func parseUpstreamTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// asString tolerates upstream false-instead-of-null string fields
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// asRelationID extracts the id from an upstream [id, display_name] pair
func asRelationID(v interface{}) (int64, bool) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) == 0 {
		return 0, false
	}
	switch id := pair[0].(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	}
	return 0, false
}
