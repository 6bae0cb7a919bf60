package models

import "time"

// DocumentLink is a typed cross-kind reference: a document of OwnerKind
// points at a document of TargetKind. Links never own their target; deleting
// the target leaves the link dangling and readers resolve it to "missing".
type DocumentLink struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerKind   Kind   `gorm:"index:idx_links_owner;not null" json:"ownerKind"`
	OwnerID     int64  `gorm:"index:idx_links_owner;not null" json:"ownerId"`
	TargetKind  Kind   `gorm:"index:idx_links_target;not null" json:"targetKind"`
	TargetID    int64  `gorm:"index:idx_links_target;not null" json:"targetId"`
	Description string `json:"description,omitempty"`
}

func (DocumentLink) TableName() string { return "document_links" }

// ResolvedLink is the reader-side view of a link. Missing is set when the
// target no longer exists.
type ResolvedLink struct {
	Kind        Kind   `json:"kind"`
	ID          int64  `json:"id"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	Missing     bool   `json:"missing,omitempty"`
}

// FileAttachment references an uploaded file. The document owns the
// reference, not the file; storage lifecycle is external. Attachments are
// registered first (DocumentID nil) and bound on create/update, ordered by
// Position.
type FileAttachment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID  *int64    `gorm:"index" json:"documentId,omitempty"`
	FileName    string    `gorm:"not null" json:"fileName"`
	StorageKey  string    `gorm:"uniqueIndex;not null" json:"-"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UploadedBy  string    `json:"uploadedBy"`
}

func (FileAttachment) TableName() string { return "file_attachments" }
