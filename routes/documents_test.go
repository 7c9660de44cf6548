package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"document-chat-service/internal/config"
	"document-chat-service/models"
	"document-chat-service/services"

	"github.com/gin-gonic/gin"
)

func documentRouter(t *testing.T) (*gin.Engine, *stubIndexStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &stubIndexStore{docs: map[string]models.DocumentIndex{}}
	cfg := &config.Config{MaxFileSize: 1 << 20, ChunkSize: 10000, ChunkOverlap: 1000}
	extractor := services.NewPDFExtractor(cfg.MaxFileSize)
	indexer := services.NewIndexer("document-chunks", 4, stubEmbedder{}, "text-embedding-004", &stubVectorIndex{}, store, nil)

	router := gin.New()
	SetupDocumentRoutes(router, cfg, extractor, indexer)
	return router, store
}

func uploadPDF(t *testing.T, router *gin.Engine, name, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		if err := mw.WriteField("name", name); err != nil {
			t.Fatalf("write name field: %v", err)
		}
	}
	if filename != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="pdf"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadRequiresName(t *testing.T) {
	router, _ := documentRouter(t)

	w := uploadPDF(t, router, "", "doc.pdf", "application/pdf", []byte("%PDF-1.4 irrelevant"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Document name is required") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestUploadRequiresFile(t *testing.T) {
	router, _ := documentRouter(t)

	w := uploadPDF(t, router, "doc1", "", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no_file") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestUploadRejectsNonPDFFile(t *testing.T) {
	router, _ := documentRouter(t)

	w := uploadPDF(t, router, "doc1", "notes.txt", "text/plain", []byte("plain text"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_file_type") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestUploadRejectsBadMagicBytes(t *testing.T) {
	router, _ := documentRouter(t)

	w := uploadPDF(t, router, "doc1", "doc.pdf", "application/pdf", []byte("GIF89a not a pdf"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_pdf") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestUploadRejectsCorruptPDF(t *testing.T) {
	router, store := documentRouter(t)

	// Valid magic bytes but no PDF structure behind them.
	w := uploadPDF(t, router, "doc1", "doc.pdf", "application/pdf", []byte("%PDF-1.4 but truncated"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "extraction_failed") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if len(store.docs) != 0 {
		t.Fatal("no mapping must be written for a failed extraction")
	}
}

func TestUploadErrorPayloadShape(t *testing.T) {
	router, _ := documentRouter(t)

	w := uploadPDF(t, router, "doc1", "doc.pdf", "application/pdf", []byte("GIF89a not a pdf"))

	var resp struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if resp.ErrorCode == "" || resp.Message == "" {
		t.Fatalf("error payload incomplete: %s", w.Body.String())
	}
}
