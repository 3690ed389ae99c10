package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// handleHealth reports whether an index can be served.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ok := s.ports.Retrieval.Ready(r.Context()) == nil
	sendJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

// handleAsk handles POST /ask requests.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %w", domain.ErrInvalidInput, err))
		return
	}

	result, err := s.ports.Ask.Ask(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// handleIngest handles multipart POST /ingest uploads.
// Form fields: files (repeated), region, strict.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ports.Ingest == nil {
		writeError(w, fmt.Errorf("%w: ingestion is not enabled", domain.ErrNotFound))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, fmt.Errorf("%w: invalid upload: %w", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, fmt.Errorf("%w: No files provided", domain.ErrInvalidInput))
		return
	}

	strict := false
	if v := r.FormValue("strict"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: strict must be a boolean", domain.ErrInvalidInput))
			return
		}
		strict = parsed
	}
	region := r.FormValue("region")

	req := domain.IngestRequest{Strict: strict}
	for _, fh := range headers {
		raw, err := readUpload(fh)
		if err != nil {
			writeError(w, err)
			return
		}
		raw.Region = region
		req.Files = append(req.Files, raw)
	}

	result, err := s.ports.Ingest.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func readUpload(fh *multipart.FileHeader) (domain.RawDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("%w: open %s: %w", domain.ErrIngestionInput, fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("%w: read %s: %w", domain.ErrIngestionInput, fh.Filename, err)
	}

	return domain.RawDocument{
		Name:     filepath.Base(fh.Filename),
		URI:      fh.Filename,
		MIMEType: uploadMIMEType(fh.Header.Get("Content-Type")),
		Content:  content,
	}, nil
}

// uploadMIMEType keeps a declared content type unless it is the generic
// binary type, which leaves detection to the file name.
func uploadMIMEType(header string) string {
	if header == "" {
		return ""
	}
	media, _, err := mime.ParseMediaType(header)
	if err != nil || media == "application/octet-stream" {
		return ""
	}
	return media
}

// handleFeedback handles POST /feedback requests.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.ports.Feedback == nil {
		writeError(w, fmt.Errorf("%w: feedback is not enabled", domain.ErrNotFound))
		return
	}

	var fb domain.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %w", domain.ErrInvalidInput, err))
		return
	}

	if err := s.ports.Feedback.Submit(r.Context(), fb); err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// documentResponse is the GET /docs/{doc_id} body.
type documentResponse struct {
	DocID  string  `json:"doc_id"`
	Title  string  `json:"title"`
	URL    *string `json:"url"`
	Chunks int     `json:"chunks,omitempty"`
	Region string  `json:"region,omitempty"`
}

// handleDocument handles GET /docs/{doc_id} requests.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["doc_id"]
	if s.ports.Document == nil {
		writeError(w, fmt.Errorf("%w: document %q", domain.ErrNotFound, docID))
		return
	}

	doc, err := s.ports.Document.Describe(r.Context(), docID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := documentResponse{
		DocID:  doc.DocID,
		Title:  doc.Title,
		Chunks: doc.Chunks,
		Region: doc.Region,
	}
	if doc.URL != "" {
		resp.URL = &doc.URL
	}
	sendJSON(w, http.StatusOK, resp)
}

func readLimited(r *http.Request, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, limit))
}
