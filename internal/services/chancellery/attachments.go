package chancellery

import (
	"context"
	"fmt"
	"time"

	"github.com/orgportal/chancellery/internal/models"
	"gorm.io/gorm"
)

// RegisterAttachment records an uploaded file so documents can reference it
// by id. The attachment starts unbound; create/update binds it. Storage of
// the bytes themselves is the caller's concern.
func RegisterAttachment(ctx context.Context, db *gorm.DB, fileName, contentType, storageKey string, size int64, actor string) (*models.FileAttachment, error) {
	if fileName == "" {
		ve := newValidationError()
		ve.add("fileName", "file name is required")
		return nil, ve
	}

	file := models.FileAttachment{
		FileName:    fileName,
		ContentType: contentType,
		StorageKey:  storageKey,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
		UploadedBy:  actor,
	}
	if err := db.WithContext(ctx).Create(&file).Error; err != nil {
		return nil, fmt.Errorf("failed to register attachment: %w", err)
	}
	return &file, nil
}
