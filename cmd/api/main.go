package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orgportal/chancellery/internal/config"
	"github.com/orgportal/chancellery/internal/database"
	"github.com/orgportal/chancellery/internal/events"
	"github.com/orgportal/chancellery/internal/handlers"
	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/catalog"
	"github.com/orgportal/chancellery/internal/services/directory"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},

		// Reference catalogs
		&models.DocumentStatus{},
		&models.DocumentType{},

		// Chancellery core
		&models.Document{},
		&models.StatusHistoryEntry{},
		&models.DocumentSignature{},
		&models.DocumentLink{},
		&models.FileAttachment{},

		// Directory mirror
		&models.Contact{},
		&models.Organization{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Seed the shared status catalog
	if err := catalog.EnsureDefaultStatuses(db.DB); err != nil {
		log.Fatalf("Failed to seed status catalog: %v", err)
	}
	cat := catalog.NewService(db.DB, time.Duration(cfg.CatalogTTL)*time.Second)

	// 5. Start directory sync (disabled when DIRECTORY_URL is unset)
	directorySvc := directory.NewSyncService(db.DB, cfg.Directory)
	directorySvc.Start()

	// 6. Document event hub
	hub := events.NewHub()
	go hub.Run()

	// 7. Set up HTTP router
	router := handlers.NewRouter(db.DB, cfg, cat, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Chancellery server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	directorySvc.Stop()

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
