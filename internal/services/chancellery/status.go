package chancellery

import (
	"context"
	"fmt"
	"time"

	"github.com/orgportal/chancellery/internal/models"
	"gorm.io/gorm"
)

// legalTransitions is the explicit status adjacency table. Cancellation is
// handled separately: cancelled is reachable from any non-terminal status.
// Rejected documents may be resubmitted for approval.
var legalTransitions = map[string][]string{
	models.StatusDraft:           {models.StatusPendingApproval},
	models.StatusPendingApproval: {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:        {models.StatusInExecution},
	models.StatusInExecution:     {models.StatusExecuted},
	models.StatusRejected:        {models.StatusPendingApproval},
}

// isLegalTransition checks the adjacency table for a from -> to move
func isLegalTransition(from, to string) bool {
	if to == models.StatusCancelled {
		// Manual override: any non-terminal document can be cancelled.
		// Terminal sources are rejected before this check.
		return true
	}
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ChangeStatus moves a document to a new status and appends exactly one
// history entry, as a single atomic unit. A concurrent change to the same
// document makes the guarded update miss and the call fails with a conflict.
func (s *Service) ChangeStatus(ctx context.Context, id int64, newStatusID int64, comment *string, actor string) (*models.DocumentStatus, error) {
	next, err := s.catalog.StatusByID(newStatusID)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: status %d does not exist", ErrNotFound, newStatusID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		err := tx.Where("kind = ? AND id = ?", s.kind, id).First(&doc).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load %s %d: %w", s.kind, id, err)
		}

		current, err := s.catalog.StatusByID(doc.StatusID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("document references unknown status %d", doc.StatusID)
		}
		if current.IsTerminal {
			return fmt.Errorf("%w: document is in terminal status %q", ErrConflict, current.Code)
		}
		if current.ID == next.ID {
			return fmt.Errorf("%w: document is already in status %q", ErrConflict, current.Code)
		}
		if !isLegalTransition(current.Code, next.Code) {
			return fmt.Errorf("%w: transition %q -> %q is not allowed", ErrConflict, current.Code, next.Code)
		}

		return s.transition(tx, &doc, current, next, comment, actor)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// transition performs the guarded status write plus the history append
// inside the caller's transaction. The WHERE on the previously observed
// status makes concurrent writers lose deterministically: whoever updates
// second affects zero rows and surfaces a conflict, with no partial state.
func (s *Service) transition(tx *gorm.DB, doc *models.Document, current, next *models.DocumentStatus, comment *string, actor string) error {
	result := tx.Model(&models.Document{}).
		Where("kind = ? AND id = ? AND status_id = ?", s.kind, doc.ID, current.ID).
		Updates(map[string]interface{}{
			"status_id":  next.ID,
			"updated_by": actor,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to change status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: document status changed concurrently", ErrConflict)
	}

	fromID := current.ID
	entry := models.StatusHistoryEntry{
		DocumentKind: s.kind,
		DocumentID:   doc.ID,
		FromStatusID: &fromID,
		ToStatusID:   next.ID,
		ChangedAt:    time.Now().UTC(),
		ChangedBy:    actor,
		Comment:      comment,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// History returns the append-only status trail of a document, oldest first
func (s *Service) History(ctx context.Context, id int64) ([]models.StatusHistoryEntry, error) {
	if err := s.requireExists(ctx, id); err != nil {
		return nil, err
	}

	var entries []models.StatusHistoryEntry
	if err := s.db.WithContext(ctx).
		Where("document_kind = ? AND document_id = ?", s.kind, id).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return entries, nil
}

// requireExists checks the document is present without loading relations
func (s *Service) requireExists(ctx context.Context, id int64) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("kind = ? AND id = ?", s.kind, id).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s %d: %w", s.kind, id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
