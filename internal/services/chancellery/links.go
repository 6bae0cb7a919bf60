package chancellery

import (
	"context"
	"fmt"

	"github.com/orgportal/chancellery/internal/models"
	"gorm.io/gorm"
)

// checkExternalRefs validates the optional contact/organization references
// against the directory lookup tables. Failures are collected field-level.
func (s *Service) checkExternalRefs(tx *gorm.DB, ve *ValidationError, responsible, organization, executor *int64) {
	if responsible != nil && !rowExists(tx, &models.Contact{}, *responsible) {
		ve.add("responsibleContactId", fmt.Sprintf("unknown contact %d", *responsible))
	}
	if executor != nil && !rowExists(tx, &models.Contact{}, *executor) {
		ve.add("executorContactId", fmt.Sprintf("unknown contact %d", *executor))
	}
	if organization != nil && !rowExists(tx, &models.Organization{}, *organization) {
		ve.add("organizationId", fmt.Sprintf("unknown organization %d", *organization))
	}
}

// checkParent enforces the shallow same-kind hierarchy: the parent must
// exist, be of the same kind, and not itself be derived from another
// document.
func (s *Service) checkParent(tx *gorm.DB, ve *ValidationError, parentID *int64) {
	if parentID == nil {
		return
	}
	var parent models.Document
	err := tx.Where("kind = ? AND id = ?", s.kind, *parentID).First(&parent).Error
	if err == gorm.ErrRecordNotFound {
		ve.add("parentDocumentId", fmt.Sprintf("unknown %s %d", s.kind, *parentID))
		return
	}
	if err != nil {
		ve.add("parentDocumentId", "failed to resolve parent document")
		return
	}
	if parent.ParentDocumentID != nil {
		ve.add("parentDocumentId", "parent document is itself derived; only one level is allowed")
	}
}

// bindFiles attaches registered file attachments to a document in the given
// order. Every id must reference an existing attachment that is unbound or
// already bound to this document; any bad id fails the whole write.
func (s *Service) bindFiles(tx *gorm.DB, docID int64, fileIDs []int64) error {
	ve := newValidationError()
	for position, fileID := range fileIDs {
		var file models.FileAttachment
		err := tx.First(&file, fileID).Error
		if err == gorm.ErrRecordNotFound {
			ve.add(fmt.Sprintf("fileIds[%d]", position), fmt.Sprintf("unknown attachment %d", fileID))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resolve attachment %d: %w", fileID, err)
		}
		if file.DocumentID != nil && *file.DocumentID != docID {
			ve.add(fmt.Sprintf("fileIds[%d]", position), fmt.Sprintf("attachment %d belongs to another document", fileID))
			continue
		}

		file.DocumentID = &docID
		file.Position = position
		if err := tx.Save(&file).Error; err != nil {
			return fmt.Errorf("failed to bind attachment %d: %w", fileID, err)
		}
	}
	return ve.orNil()
}

// replaceLinks replaces the owned link set of a document. Every target must
// exist and be of the declared kind; an invalid reference fails the whole
// create/update.
func (s *Service) replaceLinks(tx *gorm.DB, docID int64, refs []LinkRef) error {
	ve := newValidationError()
	for i, ref := range refs {
		field := fmt.Sprintf("linkedDocuments[%d]", i)
		if _, err := models.ParseKind(string(ref.Kind)); err != nil {
			ve.add(field, fmt.Sprintf("unknown kind %q", ref.Kind))
			continue
		}
		var count int64
		if err := tx.Model(&models.Document{}).
			Where("kind = ? AND id = ?", ref.Kind, ref.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to resolve link target: %w", err)
		}
		if count == 0 {
			ve.add(field, fmt.Sprintf("%s %d does not exist", ref.Kind, ref.ID))
		}
	}
	if err := ve.orNil(); err != nil {
		return err
	}

	if err := tx.Where("owner_kind = ? AND owner_id = ?", s.kind, docID).
		Delete(&models.DocumentLink{}).Error; err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	for _, ref := range refs {
		link := models.DocumentLink{
			OwnerKind:   s.kind,
			OwnerID:     docID,
			TargetKind:  ref.Kind,
			TargetID:    ref.ID,
			Description: ref.Description,
		}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to create link: %w", err)
		}
	}
	return nil
}

// ResolvedLinks returns the reader-side view of a document's links. Targets
// deleted since the link was made resolve to missing, never to an error.
func (s *Service) ResolvedLinks(ctx context.Context, docID int64) ([]models.ResolvedLink, error) {
	var rows []models.DocumentLink
	if err := s.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", s.kind, docID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	resolved := make([]models.ResolvedLink, 0, len(rows))
	for _, row := range rows {
		link := models.ResolvedLink{
			Kind:        row.TargetKind,
			ID:          row.TargetID,
			Description: row.Description,
		}
		var target models.Document
		err := s.db.WithContext(ctx).
			Select("id", "name").
			Where("kind = ? AND id = ?", row.TargetKind, row.TargetID).
			First(&target).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			link.Missing = true
		case err != nil:
			return nil, fmt.Errorf("failed to resolve link target: %w", err)
		default:
			link.Name = target.Name
		}
		resolved = append(resolved, link)
	}
	return resolved, nil
}

// rowExists reports whether a row with the given primary key exists
func rowExists(tx *gorm.DB, model interface{}, id int64) bool {
	var count int64
	tx.Model(model).Where("id = ?", id).Count(&count)
	return count > 0
}
