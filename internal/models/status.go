package models

// DocumentStatus is a row of the shared status catalog. One catalog serves
// all four document kinds.
type DocumentStatus struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string `gorm:"uniqueIndex;not null" json:"code"`
	Name         string `gorm:"not null" json:"name"`
	DisplayOrder int    `gorm:"not null;default:0" json:"displayOrder"`
	IsTerminal   bool   `gorm:"not null;default:false" json:"isTerminal"`
}

func (DocumentStatus) TableName() string { return "document_statuses" }

// Status codes
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusInExecution     = "in_execution"
	StatusExecuted        = "executed"
	StatusCancelled       = "cancelled"
)

// DefaultStatuses is the seed catalog. Rejected is deliberately non-terminal
// so a rejected document can be reworked and resubmitted for signature;
// executed and cancelled admit no further changes of any sort.
var DefaultStatuses = []DocumentStatus{
	{Code: StatusDraft, Name: "Draft", DisplayOrder: 10},
	{Code: StatusPendingApproval, Name: "Pending approval", DisplayOrder: 20},
	{Code: StatusApproved, Name: "Approved", DisplayOrder: 30},
	{Code: StatusRejected, Name: "Rejected", DisplayOrder: 40},
	{Code: StatusInExecution, Name: "In execution", DisplayOrder: 50},
	{Code: StatusExecuted, Name: "Executed", DisplayOrder: 60, IsTerminal: true},
	{Code: StatusCancelled, Name: "Cancelled", DisplayOrder: 70, IsTerminal: true},
}

// AwaitingSignatureCodes is the status subset eligible for sign/reject.
var AwaitingSignatureCodes = []string{StatusPendingApproval}

// DocumentType is per-kind-scoped reference data; many documents share a type.
type DocumentType struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind Kind   `gorm:"index;not null" json:"kind"`
	Code string `gorm:"index" json:"code"`
	Name string `gorm:"not null" json:"name"`
}

func (DocumentType) TableName() string { return "document_types" }
