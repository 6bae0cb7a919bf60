package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orgportal/chancellery/internal/config"
	"github.com/orgportal/chancellery/internal/models"
	"github.com/orgportal/chancellery/internal/services/catalog"
	"github.com/orgportal/chancellery/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const testSecret = "test-secret"

type testEnv struct {
	router    *Router
	db        *gorm.DB
	token     string
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "api_test.db")
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

	uploadDir := t.TempDir()
	cfg := &config.Config{
		NodeEnv:   "test",
		JWTSecret: testSecret,
		UploadDir: uploadDir,
	}
	cat := catalog.NewService(db, time.Minute)
	router := NewRouter(db, cfg, cat, nil)

	token, _, err := utils.GenerateTokens(&models.UserAuth{
		ID:       "00000000-0000-0000-0000-000000000001",
		Username: "director",
		Email:    "director@example.org",
		Role:     "admin",
	}, testSecret)
	require.NoError(t, err)

	return &testEnv{router: router, db: db, token: token, uploadDir: uploadDir}
}

// do runs an authenticated JSON request against the router
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) statusID(t *testing.T, code string) int64 {
	t.Helper()
	var status models.DocumentStatus
	require.NoError(t, e.db.Where("code = ?", code).First(&status).Error)
	return status.ID
}

func (e *testEnv) typeID(t *testing.T, kind models.Kind) int64 {
	t.Helper()
	var docType models.DocumentType
	require.NoError(t, e.db.Where("kind = ?", kind).First(&docType).Error)
	return docType.ID
}

// doMultipart runs an authenticated multipart request against the router
func (e *testEnv) doMultipart(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+e.token)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// multipartBody builds a form with an optional payload part and one file part
func multipartBody(t *testing.T, payload, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if payload != "" {
		require.NoError(t, writer.WriteField("payload", payload))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("files", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/api/decrees", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("GET", "/api/decrees", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/decrees", map[string]interface{}{
		"name":         "Order on inventory",
		"documentDate": "2024-02-01",
		"typeId":       env.typeID(t, models.KindDecree),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "Created", created["status"])
	id := int64(created["id"].(float64))

	rec = env.do(t, "GET", fmt.Sprintf("/api/decrees/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody(t, rec)
	assert.Equal(t, "Order on inventory", doc["name"])

	// Submit for approval
	rec = env.do(t, "PATCH", fmt.Sprintf("/api/decrees/%d/status", id), map[string]interface{}{
		"statusId": env.statusID(t, models.StatusPendingApproval),
		"comment":  "ready",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// Sign
	rec = env.do(t, "POST", fmt.Sprintf("/api/decrees/%d/sign", id), map[string]interface{}{
		"resolutionText": "Approved, execute",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	signed := decodeBody(t, rec)
	assert.Equal(t, models.StatusApproved, signed["newStatus"])

	rec = env.do(t, "GET", fmt.Sprintf("/api/decrees/%d/signatures", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var signatures []models.DocumentSignature
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signatures))
	require.Len(t, signatures, 1)
	assert.Equal(t, "director", signatures[0].SignedBy)

	// create, submit, sign
	rec = env.do(t, "GET", fmt.Sprintf("/api/decrees/%d/history", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.StatusHistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 3)
}

func TestDatesUseCalendarWireFormat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/letters", map[string]interface{}{
		"name":         "Dated letter",
		"documentDate": "2024-02-01",
		"dueDate":      "2024-03-15",
		"typeId":       env.typeID(t, models.KindLetter),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = env.do(t, "GET", fmt.Sprintf("/api/letters/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"documentDate":"2024-02-01"`)
	assert.Contains(t, body, `"dueDate":"2024-03-15"`)
}

func TestMultipartCreateStoresAndBindsUploads(t *testing.T) {
	env := newTestEnv(t)

	payload := fmt.Sprintf(`{"name":"Scanned letter","documentDate":"2024-02-01","typeId":%d}`,
		env.typeID(t, models.KindLetter))
	contents := "%PDF-1.4 demo"
	body, contentType := multipartBody(t, payload, "scan.pdf", contents)

	rec := env.doMultipart(t, "POST", "/api/letters", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody(t, rec)
	uploadedFiles, ok := created["uploadedFiles"].([]interface{})
	require.True(t, ok)
	require.Len(t, uploadedFiles, 1)
	id := int64(created["id"].(float64))

	rec = env.do(t, "GET", fmt.Sprintf("/api/letters/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Files []models.FileAttachment `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "scan.pdf", doc.Files[0].FileName)
	assert.Equal(t, int64(len(contents)), doc.Files[0].Size)

	// The bytes landed under the upload directory
	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMultipartUpdateKeepsExistingAttachments(t *testing.T) {
	env := newTestEnv(t)

	payload := fmt.Sprintf(`{"name":"Letter","documentDate":"2024-02-01","typeId":%d}`,
		env.typeID(t, models.KindLetter))
	body, contentType := multipartBody(t, payload, "scan.pdf", "first")
	rec := env.doMultipart(t, "POST", "/api/letters", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decodeBody(t, rec)["id"].(float64))

	// Upload another file without redefining fileIds in the payload
	body, contentType = multipartBody(t, "", "annex.pdf", "second")
	rec = env.doMultipart(t, "PATCH", fmt.Sprintf("/api/letters/%d", id), body, contentType)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, "GET", fmt.Sprintf("/api/letters/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Files []models.FileAttachment `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "scan.pdf", doc.Files[0].FileName)
	assert.Equal(t, "annex.pdf", doc.Files[1].FileName)
}

func TestCreateWithMissingFieldsReturns422(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/reports", map[string]interface{}{
		"description": "no name, date or type",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody(t, rec)
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "documentDate")
	assert.Contains(t, fields, "typeId")
}

func TestUnknownDocumentReturns404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/letters/999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSigningDraftReturns409(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/instructions", map[string]interface{}{
		"name":         "Instruction",
		"documentDate": "2024-02-01",
		"typeId":       env.typeID(t, models.KindInstruction),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = env.do(t, "POST", fmt.Sprintf("/api/instructions/%d/sign", id), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRejectSignatureOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/reports", map[string]interface{}{
		"name":         "Quarterly report",
		"documentDate": "2024-02-01",
		"typeId":       env.typeID(t, models.KindReport),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = env.do(t, "PATCH", fmt.Sprintf("/api/reports/%d/status", id), map[string]interface{}{
		"statusId": env.statusID(t, models.StatusPendingApproval),
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, "POST", fmt.Sprintf("/api/reports/%d/reject-signature", id), map[string]interface{}{
		"reason": "needs corrections",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusRejected, decodeBody(t, rec)["newStatus"])
}

func TestKindRoutesAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/decrees", map[string]interface{}{
		"name":         "Order",
		"documentDate": "2024-02-01",
		"typeId":       env.typeID(t, models.KindDecree),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(decodeBody(t, rec)["id"].(float64))

	// The decree is not reachable through another kind's route
	rec = env.do(t, "GET", fmt.Sprintf("/api/letters/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "GET", "/api/decrees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var decrees []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decrees))
	assert.Len(t, decrees, 1)

	rec = env.do(t, "GET", "/api/letters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var letters []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &letters))
	assert.Empty(t, letters)
}

func TestStatusCatalogEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/document-statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var statuses []models.DocumentStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	assert.Len(t, statuses, len(models.DefaultStatuses))
}

func TestTypeCatalogEndpointIsKindScoped(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/decrees/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var types []models.DocumentType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	require.Len(t, types, 1)
	assert.Equal(t, models.KindDecree, types[0].Kind)
}

func TestPendingSignatureQueueEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/letters", map[string]interface{}{
		"name":         "Outgoing letter",
		"documentDate": "2024-02-01",
		"typeId":       env.typeID(t, models.KindLetter),
		"statusId":     env.statusID(t, models.StatusPendingApproval),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, "GET", "/api/documents/pending-signature", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pending []models.PendingDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, models.KindLetter, pending[0].Kind)
}

func TestContactsFilterByName(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Contact{ID: 1, Name: "Anna Petrova", Active: true}).Error)
	require.NoError(t, env.db.Create(&models.Contact{ID: 2, Name: "Boris Ivanov", Active: true}).Error)
	require.NoError(t, env.db.Create(&models.Contact{ID: 3, Name: "Former Employee", Active: false}).Error)

	rec := env.do(t, "GET", "/api/contacts?q=petrova", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var contacts []models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "Anna Petrova", contacts[0].Name)

	rec = env.do(t, "GET", "/api/contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contacts))
	assert.Len(t, contacts, 2)
}

func TestListFilterByStatusOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	for i, status := range []int64{
		env.statusID(t, models.StatusDraft),
		env.statusID(t, models.StatusPendingApproval),
	} {
		rec := env.do(t, "POST", "/api/decrees", map[string]interface{}{
			"name":         fmt.Sprintf("Order %d", i+1),
			"documentDate": "2024-02-01",
			"typeId":       env.typeID(t, models.KindDecree),
			"statusId":     status,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, "GET", fmt.Sprintf("/api/decrees?statusId=%d", env.statusID(t, models.StatusDraft)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Order 1", docs[0].Name)
}
