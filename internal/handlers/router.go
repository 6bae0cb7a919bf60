package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/orgportal/chancellery/internal/buildinfo"
	"github.com/orgportal/chancellery/internal/config"
	"github.com/orgportal/chancellery/internal/events"
	"github.com/orgportal/chancellery/internal/middleware"
	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/catalog"
	"github.com/orgportal/chancellery/internal/services/chancellery"
	"gorm.io/gorm"
)

// Router wraps the mux router, the store and the per-kind document services
type Router struct {
	*mux.Router
	db       *gorm.DB
	cfg      *config.Config
	catalog  *catalog.Service
	services map[models.Kind]*chancellery.Service
	hub      *events.Hub
}

// NewRouter creates a new HTTP router with all routes. One identical route
// set is registered for every document kind.
func NewRouter(db *gorm.DB, cfg *config.Config, cat *catalog.Service, hub *events.Hub) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		db:       db,
		cfg:      cfg,
		catalog:  cat,
		services: make(map[models.Kind]*chancellery.Service),
		hub:      hub,
	}

	for _, kind := range models.Kinds {
		r.services[kind] = chancellery.NewService(db, kind, cat)
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// Document event stream
	if hub != nil {
		r.HandleFunc("/ws/events", func(w http.ResponseWriter, req *http.Request) {
			events.ServeWs(hub, w, req)
		}).Methods("GET")
	}

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	for _, kind := range models.Kinds {
		r.registerKindRoutes(api, r.services[kind])
	}

	// Shared reference data and cross-kind queries
	api.HandleFunc("/document-statuses", r.listStatuses).Methods("GET")
	api.HandleFunc("/documents/pending-signature", r.listPendingDocuments).Methods("GET")
	api.HandleFunc("/contacts", r.listContacts).Methods("GET")
	api.HandleFunc("/organizations", r.listOrganizations).Methods("GET")

	return r
}

// registerKindRoutes wires the identical REST surface for one document kind
func (r *Router) registerKindRoutes(api *mux.Router, svc *chancellery.Service) {
	p := "/" + svc.Kind().PathSegment()

	api.HandleFunc(p, r.listDocuments(svc)).Methods("GET")
	api.HandleFunc(p, r.createDocument(svc)).Methods("POST")
	api.HandleFunc(p+"/types", r.listTypes(svc)).Methods("GET")
	api.HandleFunc(p+"/{id:[0-9]+}", r.getDocument(svc)).Methods("GET")
	api.HandleFunc(p+"/{id:[0-9]+}", r.updateDocument(svc)).Methods("PATCH")
	api.HandleFunc(p+"/{id:[0-9]+}", r.deleteDocument(svc)).Methods("DELETE")
	api.HandleFunc(p+"/{id:[0-9]+}/history", r.getHistory(svc)).Methods("GET")
	api.HandleFunc(p+"/{id:[0-9]+}/status", r.changeStatus(svc)).Methods("PATCH")
	api.HandleFunc(p+"/{id:[0-9]+}/sign", r.signDocument(svc)).Methods("POST")
	api.HandleFunc(p+"/{id:[0-9]+}/reject-signature", r.rejectSignature(svc)).Methods("POST")
	api.HandleFunc(p+"/{id:[0-9]+}/signatures", r.getSignatures(svc)).Methods("GET")
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"commit":     buildinfo.CommitHash,
		"buildTime":  buildinfo.BuildTime,
		"commitTime": buildinfo.CommitTime,
		"startTime":  buildinfo.StartTime,
	})
}

// publish sends a document event if the hub is configured
func (r *Router) publish(event events.DocumentEvent) {
	if r.hub != nil {
		r.hub.Publish(event)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	if ve, ok := chancellery.AsValidation(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, chancellery.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chancellery.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}
