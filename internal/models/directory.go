package models

import "time"

// Contact is read-only reference data mirrored from the upstream HR system
// by the directory sync service. Documents reference contacts by id.
type Contact struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;index" json:"name"`
	Position       string    `json:"position,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	OrganizationID *int64    `gorm:"index" json:"organizationId,omitempty"`
	Active         bool      `gorm:"default:true" json:"active"`
	WriteDate      time.Time `gorm:"index" json:"-"`
	LastSyncedAt   time.Time `json:"-"`
}

func (Contact) TableName() string { return "contacts" }

// Organization mirrors the upstream organization registry.
type Organization struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;index" json:"name"`
	FullName     string    `json:"fullName,omitempty"`
	TaxID        string    `json:"taxId,omitempty"`
	Active       bool      `gorm:"default:true" json:"active"`
	WriteDate    time.Time `gorm:"index" json:"-"`
	LastSyncedAt time.Time `json:"-"`
}

func (Organization) TableName() string { return "organizations" }
