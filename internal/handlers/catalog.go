package handlers

import (
	"net/http"

	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/chancellery"
)

// listStatuses returns the shared status catalog
func (r *Router) listStatuses(w http.ResponseWriter, req *http.Request) {
	statuses, err := r.catalog.Statuses()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load status catalog")
		return
	}
	respondJSON(w, http.StatusOK, statuses)
}

// listTypes returns the type catalog for one document kind
func (r *Router) listTypes(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		types, err := r.catalog.TypesForKind(svc.Kind())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load type catalog")
			return
		}
		respondJSON(w, http.StatusOK, types)
	}
}

// listContacts returns the directory contacts for form pickers
func (r *Router) listContacts(w http.ResponseWriter, req *http.Request) {
	query := r.db.WithContext(req.Context()).Where("active = ?", true)
	if q := req.URL.Query().Get("q"); q != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+q+"%")
	}

	var contacts []models.Contact
	if err := query.Order("name ASC").Find(&contacts).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load contacts")
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

// listOrganizations returns the directory organizations
func (r *Router) listOrganizations(w http.ResponseWriter, req *http.Request) {
	query := r.db.WithContext(req.Context()).Where("active = ?", true)
	if q := req.URL.Query().Get("q"); q != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+q+"%")
	}

	var orgs []models.Organization
	if err := query.Order("name ASC").Find(&orgs).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load organizations")
		return
	}
	respondJSON(w, http.StatusOK, orgs)
}
