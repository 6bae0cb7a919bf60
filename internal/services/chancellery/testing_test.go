package chancellery

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/catalog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// openTestDB opens a throwaway sqlite store with the full schema and the
// seeded status catalog plus one document type per kind.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "chancellery_test.db")
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dbPath,
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.DocumentStatus{},
		&models.DocumentType{},
		&models.Document{},
		&models.StatusHistoryEntry{},
		&models.DocumentSignature{},
		&models.DocumentLink{},
		&models.FileAttachment{},
		&models.Contact{},
		&models.Organization{},
	))
	require.NoError(t, catalog.EnsureDefaultStatuses(db))

	for _, kind := range models.Kinds {
		require.NoError(t, db.Create(&models.DocumentType{Kind: kind, Code: "general", Name: "General"}).Error)
	}

	return db
}

// newTestService builds a service for one kind over a fresh store
func newTestService(t *testing.T, db *gorm.DB, kind models.Kind) *Service {
	t.Helper()
	return NewService(db, kind, catalog.NewService(db, time.Minute))
}

// statusID resolves a status code against the seeded catalog
func statusID(t *testing.T, db *gorm.DB, code string) int64 {
	t.Helper()
	var status models.DocumentStatus
	require.NoError(t, db.Where("code = ?", code).First(&status).Error)
	return status.ID
}

// typeID resolves the seeded general type for a kind
func typeID(t *testing.T, db *gorm.DB, kind models.Kind) int64 {
	t.Helper()
	var docType models.DocumentType
	require.NoError(t, db.Where("kind = ?", kind).First(&docType).Error)
	return docType.ID
}

// date builds a calendar date from its wire form
func date(t *testing.T, value string) models.Date {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return models.NewDate(parsed)
}
