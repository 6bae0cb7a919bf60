package models

import (
	"time"
)

// Document is the shared record behind all four kinds. One table, dispatched
// by the indexed Kind column; per-kind behavior lives in the service layer.
type Document struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind         Kind           `gorm:"index:idx_documents_kind;not null" json:"kind"`
	Name         string         `gorm:"not null" json:"name"`
	Number       *string        `json:"number,omitempty"`
	DocumentDate Date           `gorm:"not null" json:"documentDate"`
	Description  string         `gorm:"type:text" json:"description,omitempty"`

	TypeID   int64 `gorm:"index;not null" json:"typeId"`
	StatusID int64 `gorm:"index;not null" json:"statusId"`

	ResponsibleContactID *int64 `json:"responsibleContactId,omitempty"`
	OrganizationID       *int64 `json:"organizationId,omitempty"`
	ExecutorContactID    *int64 `json:"executorContactId,omitempty"`
	DueDate              *Date  `json:"dueDate,omitempty"`

	// Shallow same-kind hierarchy: one level of "derived from"
	ParentDocumentID *int64 `json:"parentDocumentId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `gorm:"not null" json:"createdBy"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`

	// Relations
	Type   *DocumentType    `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Status *DocumentStatus  `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	Files  []FileAttachment `gorm:"foreignKey:DocumentID" json:"files,omitempty"`
}

func (Document) TableName() string { return "documents" }

// StatusHistoryEntry is the append-only audit trail of status changes.
// The first entry of a document has FromStatusID = nil. Rows are never
// mutated or deleted, and survive deletion of the document itself.
type StatusHistoryEntry struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentKind Kind      `gorm:"index:idx_history_doc;not null" json:"documentKind"`
	DocumentID   int64     `gorm:"index:idx_history_doc;not null" json:"documentId"`
	FromStatusID *int64    `json:"fromStatusId"`
	ToStatusID   int64     `gorm:"not null" json:"toStatusId"`
	ChangedAt    time.Time `gorm:"not null" json:"changedAt"`
	ChangedBy    string    `gorm:"not null" json:"changedBy"`
	Comment      *string   `gorm:"type:text" json:"comment,omitempty"`
}

func (StatusHistoryEntry) TableName() string { return "document_status_history" }

// Signature actions
const (
	SignatureActionSigned   = "signed"
	SignatureActionRejected = "rejected"
)

// DocumentSignature records one sign or reject action. Append-only; a
// document accumulates one row per action over its life.
type DocumentSignature struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentKind     Kind            `gorm:"index:idx_signatures_doc;not null" json:"documentKind"`
	DocumentID       int64           `gorm:"index:idx_signatures_doc;not null" json:"documentId"`
	Action           string          `gorm:"not null" json:"action"`
	ResolutionText   *string         `gorm:"type:text" json:"resolutionText,omitempty"`
	RejectionReason  *string         `gorm:"type:text" json:"rejectionReason,omitempty"`
	AssignedExecutor *int64 `json:"assignedExecutorId,omitempty"`
	AssignedDueDate  *Date  `json:"assignedDueDate,omitempty"`
	SignedBy         string          `gorm:"not null" json:"signedBy"`
	SignedAt         time.Time       `gorm:"not null" json:"signedAt"`
}

func (DocumentSignature) TableName() string { return "document_signatures" }

// PendingDocument is a read-only cross-kind projection of documents awaiting
// signature, recomputed on each query.
type PendingDocument struct {
	Kind         Kind      `json:"kind"`
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Number       *string   `json:"number,omitempty"`
	DocumentDate Date      `json:"documentDate"`
	TypeName     string    `json:"typeName"`
	StatusCode   string    `json:"statusCode"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
}
