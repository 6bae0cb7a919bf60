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

// signDocument approves a document awaiting signature
func (r *Router) signDocument(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
		actor := middleware.Actor(req.Context())

		var body chancellery.SignRequest
		if req.Body != nil && req.ContentLength != 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
		}

		newStatus, err := svc.Sign(req.Context(), id, body, actor)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		r.publish(events.DocumentEvent{
			Event:      events.EventSigned,
			Kind:       svc.Kind(),
			DocumentID: id,
			StatusCode: newStatus.Code,
			Actor:      actor,
		})
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "OK",
			"newStatus": newStatus.Code,
		})
	}
}

// rejectSignature declines a document awaiting signature
func (r *Router) rejectSignature(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
		actor := middleware.Actor(req.Context())

		var body chancellery.RejectRequest
		if req.Body != nil && req.ContentLength != 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
		}

		newStatus, err := svc.Reject(req.Context(), id, body, actor)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		r.publish(events.DocumentEvent{
			Event:      events.EventRejected,
			Kind:       svc.Kind(),
			DocumentID: id,
			StatusCode: newStatus.Code,
			Actor:      actor,
		})
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "OK",
			"newStatus": newStatus.Code,
		})
	}
}

// getSignatures returns the sign/reject records of a document
func (r *Router) getSignatures(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)

		signatures, err := svc.Signatures(req.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, signatures)
	}
}

// listPendingDocuments returns the cross-kind approval queue
func (r *Router) listPendingDocuments(w http.ResponseWriter, req *http.Request) {
	pending, err := chancellery.PendingDocuments(req.Context(), r.db)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pending)
}
