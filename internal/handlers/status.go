package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/orgportal/chancellery/internal/events"
	"github.com/orgportal/chancellery/internal/middleware"
	"github.com/orgportal/chancellery/internal/services/chancellery"
)

// ChangeStatusRequest moves a document to a new status
type ChangeStatusRequest struct {
	StatusID int64   `json:"statusId"`
	Comment  *string `json:"comment,omitempty"`
}

// getHistory returns the append-only status trail of a document
func (r *Router) getHistory(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)

		entries, err := svc.History(req.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, entries)
	}
}

// changeStatus runs a status transition through the engine
func (r *Router) changeStatus(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
		actor := middleware.Actor(req.Context())

		var body ChangeStatusRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		if body.StatusID == 0 {
			respondError(w, http.StatusBadRequest, "statusId is required")
			return
		}

		newStatus, err := svc.ChangeStatus(req.Context(), id, body.StatusID, body.Comment, actor)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		r.publish(events.DocumentEvent{
			Event:      events.EventStatusChanged,
			Kind:       svc.Kind(),
			DocumentID: id,
			StatusCode: newStatus.Code,
			Actor:      actor,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
