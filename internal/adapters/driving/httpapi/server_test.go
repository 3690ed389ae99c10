package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

type fixture struct {
	ask       *mockAskService
	retrieval *mockRetrievalService
	ingest    *mockIngestService
	feedback  *mockFeedbackService
	document  *mockDocumentService
	messenger *mockMessenger
	server    *httptest.Server
}

func newFixture(t *testing.T, config Config) *fixture {
	t.Helper()

	f := &fixture{
		ask: &mockAskService{result: &domain.AskResult{
			Answer:     "Employees accrue 20 days.",
			Confidence: domain.ConfidenceHigh,
			Citations:  []domain.Citation{{DocID: "leave.md", Section: "Annual Leave"}},
			Metadata:   domain.AskMetadata{AnswerID: "a-1", Outcome: domain.OutcomeParsed},
		}},
		retrieval: &mockRetrievalService{},
		ingest:    &mockIngestService{result: &domain.IngestResult{Message: "Successfully processed 1 files"}},
		feedback:  &mockFeedbackService{},
		document:  &mockDocumentService{},
		messenger: &mockMessenger{},
	}

	server, err := NewServer(&Ports{
		Ask:       f.ask,
		Retrieval: f.retrieval,
		Ingest:    f.ingest,
		Feedback:  f.feedback,
		Document:  f.document,
		Messenger: f.messenger,
	}, config)
	require.NoError(t, err)

	f.server = newTestServer(t, server)
	return f
}

func newTestServer(t *testing.T, server *Server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func (f *fixture) postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(f.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestNewServer_RequiresPorts(t *testing.T) {
	_, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}}, Config{})
	assert.ErrorIs(t, err, ErrMissingAskService)

	_, err = NewServer(&Ports{Ask: &mockAskService{}}, Config{})
	assert.ErrorIs(t, err, ErrMissingRetrievalService)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]bool{"ok": true}, decode[map[string]bool](t, resp))

	f.retrieval.readyErr = domain.ErrIndexUnavailable
	resp = f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]bool{"ok": false}, decode[map[string]bool](t, resp))
}

func TestAsk(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.postJSON(t, "/ask", `{"question":"How much leave?","filters":{"region":"US"},"top_k":3}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	result := decode[domain.AskResult](t, resp)
	assert.Equal(t, "Employees accrue 20 days.", result.Answer)
	assert.Equal(t, "a-1", result.Metadata.AnswerID)

	require.Len(t, f.ask.reqs, 1)
	assert.Equal(t, "How much leave?", f.ask.reqs[0].Question)
	assert.Equal(t, 3, f.ask.reqs[0].TopK)
	assert.Equal(t, map[string]string{"region": "US"}, f.ask.reqs[0].Filters)
}

func TestAsk_InvalidJSON(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.postJSON(t, "/ask", `{not json`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Detail, "invalid JSON")
}

func TestAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnsupportedFilter, http.StatusBadRequest},
		{domain.ErrIndexUnavailable, http.StatusServiceUnavailable},
		{domain.ErrEmbeddingUnavailable, http.StatusBadGateway},
		{domain.ErrSynthesisUnavailable, http.StatusBadGateway},
		{domain.ErrConfiguration, http.StatusInternalServerError},
		{fmt.Errorf("%w: %w", domain.ErrConfiguration, domain.ErrDimensionMismatch), http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture(t, Config{})
			f.ask.err = tt.err

			resp := f.postJSON(t, "/ask", `{"question":"q"}`)

			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAsk_IndexUnavailableMessage(t *testing.T) {
	f := newFixture(t, Config{})
	f.ask.err = fmt.Errorf("retrieve: %w", domain.ErrIndexUnavailable)

	resp := f.postJSON(t, "/ask", `{"question":"q"}`)

	assert.Equal(t, "index not built; run ingestion first", decode[errorResponse](t, resp).Detail)
}

func TestStatusFor_IngestionErrors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrIngestionInput))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrIngestionInProgress))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestIngest(t *testing.T) {
	f := newFixture(t, Config{})
	body, contentType := multipartBody(t,
		map[string]string{"leave.md": "# Leave\n\n20 days."},
		map[string]string{"region": "EU", "strict": "true"})

	resp, err := http.Post(f.server.URL+"/ingest", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[domain.IngestResult](t, resp)
	assert.Equal(t, "Successfully processed 1 files", result.Message)

	assert.True(t, f.ingest.req.Strict)
	require.Len(t, f.ingest.req.Files, 1)
	file := f.ingest.req.Files[0]
	assert.Equal(t, "leave.md", file.Name)
	assert.Equal(t, "EU", file.Region)
	assert.Empty(t, file.MIMEType, "generic binary type defers to name detection")
	assert.Equal(t, "# Leave\n\n20 days.", string(file.Content))
}

func TestIngest_NoFiles(t *testing.T) {
	f := newFixture(t, Config{})
	body, contentType := multipartBody(t, nil, map[string]string{"region": "EU"})

	resp, err := http.Post(f.server.URL+"/ingest", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Detail, "No files provided")
}

func TestIngest_BadStrict(t *testing.T) {
	f := newFixture(t, Config{})
	body, contentType := multipartBody(t, map[string]string{"a.txt": "x"}, map[string]string{"strict": "maybe"})

	resp, err := http.Post(f.server.URL+"/ingest", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngest_InProgress(t *testing.T) {
	f := newFixture(t, Config{})
	f.ingest.err = domain.ErrIngestionInProgress
	body, contentType := multipartBody(t, map[string]string{"a.txt": "x"}, nil)

	resp, err := http.Post(f.server.URL+"/ingest", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIngest_NotMultipart(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.postJSON(t, "/ingest", `{}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", uploadMIMEType("application/pdf"))
	assert.Equal(t, "text/plain", uploadMIMEType("text/plain; charset=utf-8"))
	assert.Empty(t, uploadMIMEType("application/octet-stream"))
	assert.Empty(t, uploadMIMEType(""))
	assert.Empty(t, uploadMIMEType(";;"))
}

func TestFeedback(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.postJSON(t, "/feedback", `{"answer_id":"a-1","helpful":false,"comment":"wrong region"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]bool{"ok": true}, decode[map[string]bool](t, resp))
	require.Len(t, f.feedback.received, 1)
	assert.Equal(t, domain.Feedback{AnswerID: "a-1", Helpful: false, Comment: "wrong region"}, f.feedback.received[0])
}

func TestFeedback_Invalid(t *testing.T) {
	f := newFixture(t, Config{})
	f.feedback.err = domain.ErrInvalidInput

	resp := f.postJSON(t, "/feedback", `{"helpful":true}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDocument(t *testing.T) {
	f := newFixture(t, Config{})
	f.document.document = &domain.DocumentInfo{DocID: "leave.md", Title: "leave", URL: "https://intranet/leave.md", Chunks: 3}

	resp := f.get(t, "/docs/leave.md")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "leave.md", body["doc_id"])
	assert.Equal(t, "https://intranet/leave.md", body["url"])
}

func TestDocument_NullURL(t *testing.T) {
	f := newFixture(t, Config{})
	f.document.document = &domain.DocumentInfo{DocID: "leave.md", Title: "leave"}

	resp := f.get(t, "/docs/leave.md")

	body := decode[map[string]any](t, resp)
	url, present := body["url"]
	assert.True(t, present)
	assert.Nil(t, url)
}

func TestDocument_NotFound(t *testing.T) {
	f := newFixture(t, Config{})
	f.document.err = domain.ErrNotFound

	resp := f.get(t, "/docs/missing.md")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		f := newFixture(t, Config{})

		resp := f.get(t, "/healthz")

		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		f := newFixture(t, Config{AllowedOrigins: []string{"https://hr.example.com"}})

		req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/ask", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://hr.example.com")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "https://hr.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		f := newFixture(t, Config{AllowedOrigins: []string{"https://hr.example.com"}})

		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://evil.example.com")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
