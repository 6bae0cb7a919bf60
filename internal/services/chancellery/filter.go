package chancellery

import (
	"time"

	"gorm.io/gorm"
)

// Filter is a conjunction over optional fields; nil/empty members are not
// applied. Text matches name or number, case-insensitively, as a substring.
type Filter struct {
	TypeID               *int64
	StatusID             *int64
	OrganizationID       *int64
	ResponsibleContactID *int64
	ExecutorContactID    *int64
	DocumentDateFrom     *time.Time
	DocumentDateTo       *time.Time
	DueDateFrom          *time.Time
	DueDateTo            *time.Time
	Text                 string
}

// apply adds the filter conditions to a query already scoped to one kind
func (f Filter) apply(query *gorm.DB) *gorm.DB {
	if f.TypeID != nil {
		query = query.Where("type_id = ?", *f.TypeID)
	}
	if f.StatusID != nil {
		query = query.Where("status_id = ?", *f.StatusID)
	}
	if f.OrganizationID != nil {
		query = query.Where("organization_id = ?", *f.OrganizationID)
	}
	if f.ResponsibleContactID != nil {
		query = query.Where("responsible_contact_id = ?", *f.ResponsibleContactID)
	}
	if f.ExecutorContactID != nil {
		query = query.Where("executor_contact_id = ?", *f.ExecutorContactID)
	}
	if f.DocumentDateFrom != nil {
		query = query.Where("document_date >= ?", *f.DocumentDateFrom)
	}
	if f.DocumentDateTo != nil {
		query = query.Where("document_date <= ?", *f.DocumentDateTo)
	}
	if f.DueDateFrom != nil {
		query = query.Where("due_date >= ?", *f.DueDateFrom)
	}
	if f.DueDateTo != nil {
		query = query.Where("due_date <= ?", *f.DueDateTo)
	}
	if f.Text != "" {
		pattern := "%" + f.Text + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(COALESCE(number, '')) LIKE LOWER(?)", pattern, pattern)
	}
	return query
}
