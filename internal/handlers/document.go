package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/orgportal/chancellery/internal/events"
	"github.com/orgportal/chancellery/internal/middleware"
	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/chancellery"
)

const maxUploadSize = 64 << 20 // 64MB

// listDocuments returns the documents of one kind matching the query filters
func (r *Router) listDocuments(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		filter, err := parseFilter(req)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		docs, err := svc.List(req.Context(), filter)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, docs)
	}
}

// getDocument returns one document with attachments and resolved links
func (r *Router) getDocument(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)

		doc, err := svc.GetByID(req.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, doc)
	}
}

// createDocument handles JSON or multipart document creation
func (r *Router) createDocument(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		actor := middleware.Actor(req.Context())

		var createReq chancellery.CreateRequest
		var uploaded []models.FileAttachment

		if isMultipart(req) {
			var err error
			uploaded, err = r.decodeMultipart(req, &createReq, actor)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			for _, file := range uploaded {
				createReq.FileIDs = append(createReq.FileIDs, file.ID)
			}
		} else {
			if err := json.NewDecoder(req.Body).Decode(&createReq); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
		}

		doc, err := svc.Create(req.Context(), createReq, actor)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		log.Printf("📄 %s created: %d (%s) by %s", svc.Kind(), doc.ID, doc.Name, actor)
		r.publish(events.DocumentEvent{
			Event:      events.EventCreated,
			Kind:       svc.Kind(),
			DocumentID: doc.ID,
			Actor:      actor,
		})

		response := map[string]interface{}{
			"status": "Created",
			"id":     doc.ID,
		}
		if len(uploaded) > 0 {
			response["uploadedFiles"] = uploaded
		}
		respondJSON(w, http.StatusCreated, response)
	}
}

// updateDocument handles partial JSON or multipart updates
func (r *Router) updateDocument(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
		actor := middleware.Actor(req.Context())

		var updateReq chancellery.UpdateRequest

		if isMultipart(req) {
			uploaded, err := r.decodeMultipart(req, &updateReq, actor)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			if len(uploaded) > 0 {
				var ids []int64
				if updateReq.FileIDs != nil {
					ids = *updateReq.FileIDs
				} else {
					// Uploads extend the bound set unless the payload redefines it
					if err := r.db.Model(&models.FileAttachment{}).
						Where("document_id = ?", id).
						Order("position ASC").
						Pluck("id", &ids).Error; err != nil {
						respondError(w, http.StatusInternalServerError, "Failed to load attachments")
						return
					}
				}
				for _, file := range uploaded {
					ids = append(ids, file.ID)
				}
				updateReq.FileIDs = &ids
			}
		} else {
			if err := json.NewDecoder(req.Body).Decode(&updateReq); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid JSON payload")
				return
			}
		}

		if err := svc.Update(req.Context(), id, updateReq, actor); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// deleteDocument removes a non-terminal document
func (r *Router) deleteDocument(svc *chancellery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
		actor := middleware.Actor(req.Context())

		if err := svc.Delete(req.Context(), id); err != nil {
			respondServiceError(w, err)
			return
		}

		r.publish(events.DocumentEvent{
			Event:      events.EventDeleted,
			Kind:       svc.Kind(),
			DocumentID: id,
			Actor:      actor,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// isMultipart reports whether the request carries multipart/form-data
func isMultipart(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data")
}

// decodeMultipart parses a multipart request: the "payload" part holds the
// JSON body, the "files" parts are stored under the upload directory and
// registered as attachments.
func (r *Router) decodeMultipart(req *http.Request, payload interface{}, actor string) ([]models.FileAttachment, error) {
	if err := req.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}

	if raw := req.FormValue("payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), payload); err != nil {
			return nil, err
		}
	}

	if req.MultipartForm == nil {
		return nil, nil
	}

	var uploaded []models.FileAttachment
	for _, header := range req.MultipartForm.File["files"] {
		src, err := header.Open()
		if err != nil {
			return nil, err
		}

		storageKey := uuid.New().String() + filepath.Ext(header.Filename)
		if err := os.MkdirAll(r.cfg.UploadDir, 0o755); err != nil {
			src.Close()
			return nil, err
		}
		dst, err := os.Create(filepath.Join(r.cfg.UploadDir, storageKey))
		if err != nil {
			src.Close()
			return nil, err
		}
		size, err := io.Copy(dst, src)
		dst.Close()
		src.Close()
		if err != nil {
			return nil, err
		}

		file, err := chancellery.RegisterAttachment(
			req.Context(), r.db,
			header.Filename, header.Header.Get("Content-Type"), storageKey, size, actor,
		)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, *file)
	}
	return uploaded, nil
}

// parseFilter builds a list filter from the request query string
func parseFilter(req *http.Request) (chancellery.Filter, error) {
	query := req.URL.Query()
	filter := chancellery.Filter{
		Text: query.Get("q"),
	}

	var err error
	if filter.TypeID, err = queryInt64(query.Get("typeId")); err != nil {
		return filter, err
	}
	if filter.StatusID, err = queryInt64(query.Get("statusId")); err != nil {
		return filter, err
	}
	if filter.OrganizationID, err = queryInt64(query.Get("organizationId")); err != nil {
		return filter, err
	}
	if filter.ResponsibleContactID, err = queryInt64(query.Get("responsibleContactId")); err != nil {
		return filter, err
	}
	if filter.ExecutorContactID, err = queryInt64(query.Get("executorContactId")); err != nil {
		return filter, err
	}
	if filter.DocumentDateFrom, err = queryDate(query.Get("dateFrom")); err != nil {
		return filter, err
	}
	if filter.DocumentDateTo, err = queryDate(query.Get("dateTo")); err != nil {
		return filter, err
	}
	if filter.DueDateFrom, err = queryDate(query.Get("dueFrom")); err != nil {
		return filter, err
	}
	if filter.DueDateTo, err = queryDate(query.Get("dueTo")); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt64(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func queryDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
