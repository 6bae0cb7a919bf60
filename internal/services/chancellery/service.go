package chancellery

import (
	"context"
	"fmt"
	"time"

	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/catalog"
	"gorm.io/gorm"
)

// Service is the generic CRUD façade over the document store, instantiated
// once per kind. It is stateless between calls; all consistency lives in
// the store transactions.
type Service struct {
	db      *gorm.DB
	kind    models.Kind
	catalog *catalog.Service
}

// NewService creates a document service bound to one kind
func NewService(db *gorm.DB, kind models.Kind, cat *catalog.Service) *Service {
	return &Service{
		db:      db,
		kind:    kind,
		catalog: cat,
	}
}

// Kind returns the document kind this service is bound to
func (s *Service) Kind() models.Kind {
	return s.kind
}

// LinkRef is the wire form of a cross-kind document reference
type LinkRef struct {
	Kind        models.Kind `json:"kind"`
	ID          int64       `json:"id"`
	Description string      `json:"description,omitempty"`
}

// CreateRequest carries the client-supplied fields for a new document.
// Name, DocumentDate and TypeID are required; everything else is optional.
type CreateRequest struct {
	Name                 string       `json:"name"`
	Number               *string      `json:"number,omitempty"`
	DocumentDate         models.Date  `json:"documentDate"`
	Description          string       `json:"description,omitempty"`
	TypeID               int64        `json:"typeId"`
	StatusID             *int64       `json:"statusId,omitempty"`
	ResponsibleContactID *int64       `json:"responsibleContactId,omitempty"`
	OrganizationID       *int64       `json:"organizationId,omitempty"`
	ExecutorContactID    *int64       `json:"executorContactId,omitempty"`
	DueDate              *models.Date `json:"dueDate,omitempty"`
	ParentDocumentID     *int64       `json:"parentDocumentId,omitempty"`
	FileIDs              []int64      `json:"fileIds,omitempty"`
	LinkedDocuments      []LinkRef    `json:"linkedDocuments,omitempty"`
}

// UpdateRequest is a partial update: nil members leave the field unchanged.
// Status is deliberately absent; it only moves through ChangeStatus.
type UpdateRequest struct {
	Name                 *string      `json:"name,omitempty"`
	Number               *string      `json:"number,omitempty"`
	DocumentDate         *models.Date `json:"documentDate,omitempty"`
	Description          *string      `json:"description,omitempty"`
	TypeID               *int64       `json:"typeId,omitempty"`
	ResponsibleContactID *int64       `json:"responsibleContactId,omitempty"`
	OrganizationID       *int64       `json:"organizationId,omitempty"`
	ExecutorContactID    *int64       `json:"executorContactId,omitempty"`
	DueDate              *models.Date `json:"dueDate,omitempty"`
	ParentDocumentID     *int64       `json:"parentDocumentId,omitempty"`
	FileIDs              *[]int64     `json:"fileIds,omitempty"`
	LinkedDocuments      *[]LinkRef   `json:"linkedDocuments,omitempty"`
}

// DocumentDetail is the read model: the document plus its resolved links
type DocumentDetail struct {
	models.Document
	LinkedDocuments []models.ResolvedLink `json:"linkedDocuments"`
}

// List returns the documents of this kind matching the filter conjunction,
// in ascending id order (deterministic for pagination-free listing).
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Document, error) {
	var docs []models.Document
	query := s.db.WithContext(ctx).
		Where("kind = ?", s.kind).
		Preload("Type").
		Preload("Status")

	if err := filter.apply(query).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", s.kind, err)
	}
	return docs, nil
}

// GetByID returns one document with its attachments and resolved links
func (s *Service) GetByID(ctx context.Context, id int64) (*DocumentDetail, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).
		Where("kind = ? AND id = ?", s.kind, id).
		Preload("Type").
		Preload("Status").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&doc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %d: %w", s.kind, id, err)
	}

	links, err := s.ResolvedLinks(ctx, id)
	if err != nil {
		return nil, err
	}

	return &DocumentDetail{Document: doc, LinkedDocuments: links}, nil
}

// Create validates the payload, resolves attachment and link references and
// persists the document with its initial history entry as one transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor string) (*models.Document, error) {
	ve := newValidationError()
	if req.Name == "" {
		ve.add("name", "name is required")
	}
	if req.DocumentDate.Time().IsZero() {
		ve.add("documentDate", "document date is required")
	}
	if req.TypeID == 0 {
		ve.add("typeId", "document type is required")
	} else {
		docType, err := s.catalog.TypeByID(s.kind, req.TypeID)
		if err != nil {
			return nil, err
		}
		if docType == nil {
			ve.add("typeId", fmt.Sprintf("unknown %s type %d", s.kind, req.TypeID))
		}
	}

	initial, err := s.initialStatus(req.StatusID, ve)
	if err != nil {
		return nil, err
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	doc := models.Document{
		Kind:                 s.kind,
		Name:                 req.Name,
		Number:               req.Number,
		DocumentDate:         req.DocumentDate,
		Description:          req.Description,
		TypeID:               req.TypeID,
		StatusID:             initial.ID,
		ResponsibleContactID: req.ResponsibleContactID,
		OrganizationID:       req.OrganizationID,
		ExecutorContactID:    req.ExecutorContactID,
		DueDate:              req.DueDate,
		ParentDocumentID:     req.ParentDocumentID,
		CreatedBy:            actor,
		UpdatedBy:            actor,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ve := newValidationError()
		s.checkExternalRefs(tx, ve, doc.ResponsibleContactID, doc.OrganizationID, doc.ExecutorContactID)
		s.checkParent(tx, ve, doc.ParentDocumentID)
		if err := ve.orNil(); err != nil {
			return err
		}

		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", s.kind, err)
		}

		if err := s.bindFiles(tx, doc.ID, req.FileIDs); err != nil {
			return err
		}
		if err := s.replaceLinks(tx, doc.ID, req.LinkedDocuments); err != nil {
			return err
		}

		// Initial history entry: nil -> initial status
		entry := models.StatusHistoryEntry{
			DocumentKind: s.kind,
			DocumentID:   doc.ID,
			FromStatusID: nil,
			ToStatusID:   initial.ID,
			ChangedAt:    time.Now().UTC(),
			ChangedBy:    actor,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record creation history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update applies a partial edit. Terminal-status documents reject all edits.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		err := tx.Where("kind = ? AND id = ?", s.kind, id).First(&doc).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load %s %d: %w", s.kind, id, err)
		}

		if err := s.requireNonTerminal(doc.StatusID); err != nil {
			return err
		}

		ve := newValidationError()
		if req.Name != nil {
			if *req.Name == "" {
				ve.add("name", "name must not be empty")
			} else {
				doc.Name = *req.Name
			}
		}
		if req.Number != nil {
			doc.Number = req.Number
		}
		if req.DocumentDate != nil {
			doc.DocumentDate = *req.DocumentDate
		}
		if req.Description != nil {
			doc.Description = *req.Description
		}
		if req.TypeID != nil {
			docType, err := s.catalog.TypeByID(s.kind, *req.TypeID)
			if err != nil {
				return err
			}
			if docType == nil {
				ve.add("typeId", fmt.Sprintf("unknown %s type %d", s.kind, *req.TypeID))
			} else {
				doc.TypeID = *req.TypeID
			}
		}
		if req.ResponsibleContactID != nil {
			doc.ResponsibleContactID = req.ResponsibleContactID
		}
		if req.OrganizationID != nil {
			doc.OrganizationID = req.OrganizationID
		}
		if req.ExecutorContactID != nil {
			doc.ExecutorContactID = req.ExecutorContactID
		}
		if req.DueDate != nil {
			doc.DueDate = req.DueDate
		}
		if req.ParentDocumentID != nil {
			doc.ParentDocumentID = req.ParentDocumentID
		}

		s.checkExternalRefs(tx, ve, doc.ResponsibleContactID, doc.OrganizationID, doc.ExecutorContactID)
		s.checkParent(tx, ve, doc.ParentDocumentID)
		if err := ve.orNil(); err != nil {
			return err
		}

		doc.UpdatedBy = actor
		// Guard on the status observed at load time: a transition committed
		// in between must not be reverted by this full-row write.
		result := tx.Model(&models.Document{}).
			Where("kind = ? AND id = ? AND status_id = ?", s.kind, doc.ID, doc.StatusID).
			Select("*").
			Omit("id", "kind", "status_id", "created_at", "created_by", "Type", "Status", "Files").
			Updates(&doc)
		if result.Error != nil {
			return fmt.Errorf("failed to update %s %d: %w", s.kind, id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: document changed concurrently", ErrConflict)
		}

		if req.FileIDs != nil {
			if err := tx.Model(&models.FileAttachment{}).
				Where("document_id = ?", doc.ID).
				Update("document_id", nil).Error; err != nil {
				return fmt.Errorf("failed to detach attachments: %w", err)
			}
			if err := s.bindFiles(tx, doc.ID, *req.FileIDs); err != nil {
				return err
			}
		}
		if req.LinkedDocuments != nil {
			if err := s.replaceLinks(tx, doc.ID, *req.LinkedDocuments); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a non-terminal document. Status history and signatures are
// retained for audit; owned links are removed, attachments are detached.
// Inbound links from other documents are left dangling.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		err := tx.Where("kind = ? AND id = ?", s.kind, id).First(&doc).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load %s %d: %w", s.kind, id, err)
		}

		if err := s.requireNonTerminal(doc.StatusID); err != nil {
			return err
		}

		if err := tx.Where("owner_kind = ? AND owner_id = ?", s.kind, id).
			Delete(&models.DocumentLink{}).Error; err != nil {
			return fmt.Errorf("failed to remove owned links: %w", err)
		}
		if err := tx.Model(&models.FileAttachment{}).
			Where("document_id = ?", id).
			Update("document_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach attachments: %w", err)
		}
		if err := tx.Delete(&doc).Error; err != nil {
			return fmt.Errorf("failed to delete %s %d: %w", s.kind, id, err)
		}
		return nil
	})
}

// initialStatus resolves the creation status: caller-specified or draft
func (s *Service) initialStatus(statusID *int64, ve *ValidationError) (*models.DocumentStatus, error) {
	if statusID != nil {
		status, err := s.catalog.StatusByID(*statusID)
		if err != nil {
			return nil, err
		}
		if status == nil {
			ve.add("statusId", fmt.Sprintf("unknown status %d", *statusID))
			return &models.DocumentStatus{}, nil
		}
		return status, nil
	}

	status, err := s.catalog.StatusByCode(models.StatusDraft)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, fmt.Errorf("status catalog is not seeded: %q missing", models.StatusDraft)
	}
	return status, nil
}

// requireNonTerminal returns ErrConflict when the status forbids changes
func (s *Service) requireNonTerminal(statusID int64) error {
	status, err := s.catalog.StatusByID(statusID)
	if err != nil {
		return err
	}
	if status == nil {
		return fmt.Errorf("document references unknown status %d", statusID)
	}
	if status.IsTerminal {
		return fmt.Errorf("%w: document is in terminal status %q", ErrConflict, status.Code)
	}
	return nil
}
