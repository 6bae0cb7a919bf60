package chancellery

import (
	"context"
	"fmt"
	"time"

	"github.com/orgportal/chancellery/internal/models"
	"gorm.io/gorm"
)

// SignRequest carries the optional resolution details for approving a
// document awaiting signature.
type SignRequest struct {
	ResolutionText     *string      `json:"resolutionText,omitempty"`
	AssignedExecutorID *int64       `json:"assignedExecutorId,omitempty"`
	AssignedDueDate    *models.Date `json:"assignedDueDate,omitempty"`
}

// RejectRequest carries the optional rejection reason
type RejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// Sign approves a document that is awaiting signature: one signature record
// plus the status transition to approved, in a single transaction. The
// executor and due date from the resolution are stamped onto the document.
// A second sign of the same document observes the changed status and fails
// with a conflict.
func (s *Service) Sign(ctx context.Context, id int64, req SignRequest, actor string) (*models.DocumentStatus, error) {
	next, err := s.catalog.StatusByCode(models.StatusApproved)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("status catalog is not seeded: %q missing", models.StatusApproved)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, current, err := s.loadAwaitingSignature(tx, id)
		if err != nil {
			return err
		}

		if req.AssignedExecutorID != nil && !rowExists(tx, &models.Contact{}, *req.AssignedExecutorID) {
			ve := newValidationError()
			ve.add("assignedExecutorId", fmt.Sprintf("unknown contact %d", *req.AssignedExecutorID))
			return ve
		}

		if err := s.transition(tx, doc, current, next, req.ResolutionText, actor); err != nil {
			return err
		}

		// Stamp resolution side effects onto the document
		updates := map[string]interface{}{}
		if req.AssignedExecutorID != nil {
			updates["executor_contact_id"] = *req.AssignedExecutorID
		}
		if req.AssignedDueDate != nil {
			updates["due_date"] = *req.AssignedDueDate
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Document{}).
				Where("kind = ? AND id = ?", s.kind, id).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to stamp resolution: %w", err)
			}
		}

		signature := models.DocumentSignature{
			DocumentKind:     s.kind,
			DocumentID:       id,
			Action:           models.SignatureActionSigned,
			ResolutionText:   req.ResolutionText,
			AssignedExecutor: req.AssignedExecutorID,
			AssignedDueDate:  req.AssignedDueDate,
			SignedBy:         actor,
			SignedAt:         time.Now().UTC(),
		}
		if err := tx.Create(&signature).Error; err != nil {
			return fmt.Errorf("failed to record signature: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Reject declines a document awaiting signature: one signature record with
// the rejection reason plus the transition to rejected, atomically.
func (s *Service) Reject(ctx context.Context, id int64, req RejectRequest, actor string) (*models.DocumentStatus, error) {
	next, err := s.catalog.StatusByCode(models.StatusRejected)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("status catalog is not seeded: %q missing", models.StatusRejected)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, current, err := s.loadAwaitingSignature(tx, id)
		if err != nil {
			return err
		}

		if err := s.transition(tx, doc, current, next, req.Reason, actor); err != nil {
			return err
		}

		signature := models.DocumentSignature{
			DocumentKind:    s.kind,
			DocumentID:      id,
			Action:          models.SignatureActionRejected,
			RejectionReason: req.Reason,
			SignedBy:        actor,
			SignedAt:        time.Now().UTC(),
		}
		if err := tx.Create(&signature).Error; err != nil {
			return fmt.Errorf("failed to record signature: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Signatures returns all sign/reject records of a document, oldest first
func (s *Service) Signatures(ctx context.Context, id int64) ([]models.DocumentSignature, error) {
	if err := s.requireExists(ctx, id); err != nil {
		return nil, err
	}

	var signatures []models.DocumentSignature
	if err := s.db.WithContext(ctx).
		Where("document_kind = ? AND document_id = ?", s.kind, id).
		Order("signed_at ASC, id ASC").
		Find(&signatures).Error; err != nil {
		return nil, fmt.Errorf("failed to load signatures: %w", err)
	}
	return signatures, nil
}

// loadAwaitingSignature loads a document and verifies it is currently in an
// awaiting-signature status; anything else is a conflict (prevents
// double-signing).
func (s *Service) loadAwaitingSignature(tx *gorm.DB, id int64) (*models.Document, *models.DocumentStatus, error) {
	var doc models.Document
	err := tx.Where("kind = ? AND id = ?", s.kind, id).First(&doc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s %d: %w", s.kind, id, err)
	}

	current, err := s.catalog.StatusByID(doc.StatusID)
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		return nil, nil, fmt.Errorf("document references unknown status %d", doc.StatusID)
	}

	for _, code := range models.AwaitingSignatureCodes {
		if current.Code == code {
			return &doc, current, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: document is not awaiting signature (status %q)", ErrConflict, current.Code)
}

// PendingDocuments is the cross-kind approval queue: every document whose
// status is in the awaiting-signature subset, recomputed on each call.
func PendingDocuments(ctx context.Context, db *gorm.DB) ([]models.PendingDocument, error) {
	var pending []models.PendingDocument
	err := db.WithContext(ctx).Model(&models.Document{}).
		Select("documents.kind AS kind, documents.id AS id, documents.name AS name, documents.number AS number, "+
			"documents.document_date AS document_date, document_types.name AS type_name, "+
			"document_statuses.code AS status_code, documents.created_at AS created_at, documents.created_by AS created_by").
		Joins("JOIN document_statuses ON document_statuses.id = documents.status_id").
		Joins("JOIN document_types ON document_types.id = documents.type_id").
		Where("document_statuses.code IN ?", models.AwaitingSignatureCodes).
		Order("documents.created_at ASC, documents.id ASC").
		Scan(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending documents: %w", err)
	}
	return pending, nil
}
