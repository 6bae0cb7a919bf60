package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/orgportal/chancellery/internal/config"
	"github.com/orgportal/chancellery/internal/database"
	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/catalog"
	"github.com/orgportal/chancellery/internal/services/chancellery"
)

func main() {
	fmt.Println("🌱 Chancellery Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.DocumentStatus{},
		&models.DocumentType{},
		&models.Document{},
		&models.StatusHistoryEntry{},
		&models.DocumentSignature{},
		&models.DocumentLink{},
		&models.FileAttachment{},
		&models.Contact{},
		&models.Organization{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	if err := catalog.EnsureDefaultStatuses(db.DB); err != nil {
		log.Fatalf("❌ Failed to seed status catalog: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	var docCount int64
	db.Model(&models.Document{}).Count(&docCount)
	if docCount > 0 {
		fmt.Printf("⚠️  Database already has %d documents. Clear it first? (y/N): ", docCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE document_links CASCADE")
		db.Exec("TRUNCATE TABLE document_signatures CASCADE")
		db.Exec("TRUNCATE TABLE document_status_history CASCADE")
		db.Exec("TRUNCATE TABLE file_attachments CASCADE")
		db.Exec("TRUNCATE TABLE documents CASCADE")
		db.Exec("TRUNCATE TABLE document_types CASCADE")
		fmt.Println("✅ Data cleared")
	}

	fmt.Println("📇 Creating directory entries...")
	now := time.Now()
	orgs := []models.Organization{
		{ID: 1, Name: "City Administration", FullName: "City Administration of N.", Active: true, WriteDate: now, LastSyncedAt: now},
		{ID: 2, Name: "Regional Archive", FullName: "State Regional Archive", Active: true, WriteDate: now, LastSyncedAt: now},
	}
	for _, org := range orgs {
		if err := db.Create(&org).Error; err != nil {
			log.Printf("⚠️  Failed to create organization %s: %v", org.Name, err)
		}
	}
	contacts := []models.Contact{
		{ID: 1, Name: "Anna Petrova", Position: "Head of Chancellery", Active: true, WriteDate: now, LastSyncedAt: now},
		{ID: 2, Name: "Boris Ivanov", Position: "Legal Counsel", OrganizationID: ptr(int64(1)), Active: true, WriteDate: now, LastSyncedAt: now},
		{ID: 3, Name: "Vera Sidorova", Position: "Archivist", OrganizationID: ptr(int64(2)), Active: true, WriteDate: now, LastSyncedAt: now},
	}
	for _, contact := range contacts {
		if err := db.Create(&contact).Error; err != nil {
			log.Printf("⚠️  Failed to create contact %s: %v", contact.Name, err)
		}
	}
	fmt.Printf("✅ Created %d organizations, %d contacts\n", len(orgs), len(contacts))

	fmt.Println("🗂  Creating document types...")
	types := []models.DocumentType{
		{Kind: models.KindDecree, Code: "general", Name: "General"},
		{Kind: models.KindDecree, Code: "staffing", Name: "Staffing"},
		{Kind: models.KindReport, Code: "memo", Name: "Memo"},
		{Kind: models.KindReport, Code: "incident", Name: "Incident"},
		{Kind: models.KindLetter, Code: "incoming", Name: "Incoming"},
		{Kind: models.KindLetter, Code: "outgoing", Name: "Outgoing"},
		{Kind: models.KindInstruction, Code: "general", Name: "General"},
	}
	for i := range types {
		if err := db.Create(&types[i]).Error; err != nil {
			log.Printf("⚠️  Failed to create type %s/%s: %v", types[i].Kind, types[i].Code, err)
		}
	}
	fmt.Printf("✅ Created %d document types\n", len(types))

	fmt.Println("📄 Creating demo documents...")
	ctx := context.Background()
	cat := catalog.NewService(db.DB, time.Minute)
	decrees := chancellery.NewService(db.DB, models.KindDecree, cat)
	reports := chancellery.NewService(db.DB, models.KindReport, cat)

	report, err := reports.Create(ctx, chancellery.CreateRequest{
		Name:                 "Incident report: server room flooding",
		DocumentDate:         dateOf(now.AddDate(0, 0, -7)),
		TypeID:               typeIDOf(types, models.KindReport, "incident"),
		ResponsibleContactID: ptr(int64(1)),
	}, "demo")
	if err != nil {
		log.Fatalf("❌ Failed to create report: %v", err)
	}

	decree, err := decrees.Create(ctx, chancellery.CreateRequest{
		Name:                 "Decree on incident remediation",
		Number:               ptr("42-r"),
		DocumentDate:         dateOf(now.AddDate(0, 0, -3)),
		TypeID:               typeIDOf(types, models.KindDecree, "general"),
		ResponsibleContactID: ptr(int64(2)),
		OrganizationID:       ptr(int64(1)),
		LinkedDocuments: []chancellery.LinkRef{
			{Kind: models.KindReport, ID: report.ID, Description: "basis"},
		},
	}, "demo")
	if err != nil {
		log.Fatalf("❌ Failed to create decree: %v", err)
	}

	// Walk the decree into the approval queue so the demo has pending work
	pending, err := cat.StatusByCode(models.StatusPendingApproval)
	if err != nil || pending == nil {
		log.Fatalf("❌ Status catalog is missing %q", models.StatusPendingApproval)
	}
	if _, err := decrees.ChangeStatus(ctx, decree.ID, pending.ID, ptr("submitted for signature"), "demo"); err != nil {
		log.Fatalf("❌ Failed to submit decree: %v", err)
	}

	fmt.Println()
	fmt.Println("🎉 Demo data created successfully!")
	fmt.Printf("   • report #%d (draft)\n", report.ID)
	fmt.Printf("   • decree #%d (pending approval, linked to the report)\n", decree.ID)
	fmt.Println()
	fmt.Println("🚀 Start the server:")
	fmt.Println("   go run ./cmd/api")
}

func typeIDOf(types []models.DocumentType, kind models.Kind, code string) int64 {
	for _, t := range types {
		if t.Kind == kind && t.Code == code {
			return t.ID
		}
	}
	return 0
}

func dateOf(t time.Time) models.Date {
	return models.NewDate(t)
}

func ptr[T any](v T) *T {
	return &v
}
