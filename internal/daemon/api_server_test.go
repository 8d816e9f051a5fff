package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"transsrt/internal/api"
	"transsrt/internal/config"
	"transsrt/internal/engine"
	"transsrt/internal/pipeline"
	"transsrt/internal/services"
	"transsrt/internal/testsupport"
)

func newTestServer(t *testing.T, eng engine.Engine, opts ...testsupport.ConfigOption) (*Daemon, http.Handler) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil,
		WithEngine(eng),
		WithPipelineOptions(pipeline.WithSleeper(func(time.Duration) {})),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, d.api.routes()
}

func uploadRequest(t *testing.T, name, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" || content != "" {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write([]byte(content))
	}
	for key, value := range fields {
		mw.WriteField(key, value)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/translate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorDetail {
	t.Helper()
	var body api.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestTranslateReturnsAttachment(t *testing.T) {
	d, handler := newTestServer(t, testsupport.NewScriptedEngine())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "movie.srt", testsupport.SRT(3), nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/x-subrip") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename=movie_en.srt` {
		t.Fatalf("content disposition = %q", cd)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
	if !strings.Contains(w.Body.String(), "3\n00:00:04,000 --> 00:00:05,000\n[en] line 3\n") {
		t.Fatalf("body = %q", w.Body.String())
	}
	jobID := w.Header().Get("X-Job-ID")
	job, err := d.store.Get(context.Background(), jobID)
	if err != nil || job == nil || job.OutputName != "movie_en.srt" {
		t.Fatalf("job = %+v, %v", job, err)
	}
}

func TestTranslateRejectsRequests(t *testing.T) {
	_, handler := newTestServer(t, testsupport.NewScriptedEngine())

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"not multipart", httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader("x")), http.StatusBadRequest, api.CodeNoFile},
		{"no file field", uploadRequest(t, "", "", map[string]string{"other": "1"}), http.StatusBadRequest, api.CodeNoFile},
		{"wrong extension", uploadRequest(t, "movie.txt", "hello", nil), http.StatusBadRequest, api.CodeInvalidFile},
		{"bad language", uploadRequest(t, "movie.srt", testsupport.SRT(1), map[string]string{"target_language": "!!"}), http.StatusBadRequest, api.CodeInvalidLanguage},
		{"not subtitles", uploadRequest(t, "movie.srt", "just words", nil), http.StatusBadRequest, api.CodeInvalidFormat},
		{"empty file", uploadRequest(t, "movie.srt", "\n\n", nil), http.StatusBadRequest, api.CodeInvalidFormat},
		{"wrong method", httptest.NewRequest(http.MethodGet, "/translate", nil), http.StatusMethodNotAllowed, api.CodeMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, tc.req)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			if got := decodeError(t, w); got.Code != tc.code {
				t.Fatalf("code = %q, want %q", got.Code, tc.code)
			}
		})
	}
}

func TestTranslateFileTooLarge(t *testing.T) {
	d, handler := newTestServer(t, testsupport.NewScriptedEngine())
	d.api.maxFileSize = 64

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "movie.srt", testsupport.SRT(10), nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got := decodeError(t, w); got.Code != api.CodeInvalidFile || !strings.Contains(got.Message, "exceeds") {
		t.Fatalf("error = %+v", got)
	}
}

func TestTranslateMapsEngineFailures(t *testing.T) {
	rateLimited := services.Wrap(services.ErrRateLimit, "scripted", "complete", "", nil)
	eng := testsupport.NewScriptedEngine().On(1,
		testsupport.Reply{Err: rateLimited},
		testsupport.Reply{Err: rateLimited},
		testsupport.Reply{Err: rateLimited},
	)
	_, handler := newTestServer(t, eng)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "movie.srt", testsupport.SRT(2), nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got := decodeError(t, w); got.Code != api.CodeRateLimit {
		t.Fatalf("code = %q", got.Code)
	}
}

func TestTranslateMissingAPIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProvider(config.ProviderGemini, ""))
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	d.api.routes().ServeHTTP(w, uploadRequest(t, "movie.srt", testsupport.SRT(1), nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got := decodeError(t, w); got.Code != api.CodeMissingAPIKey {
		t.Fatalf("code = %q", got.Code)
	}
}

func TestTranslatePreflight(t *testing.T) {
	_, handler := newTestServer(t, testsupport.NewScriptedEngine(), testsupport.WithAPIToken("secret"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/translate", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("allow methods = %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	_, handler := newTestServer(t, testsupport.NewScriptedEngine(), testsupport.WithAPIToken("secret"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "movie.srt", testsupport.SRT(1), nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", w.Code)
	}

	req := uploadRequest(t, "movie.srt", testsupport.SRT(1), nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status with token = %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health should not need auth, got %d", w.Code)
	}
}

func TestHealthAndJobs(t *testing.T) {
	_, handler := newTestServer(t, testsupport.NewScriptedEngine())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "a.srt", testsupport.SRT(2), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("translate status = %d", w.Code)
	}
	jobID := w.Header().Get("X-Job-ID")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" || health.Service != "TransSRT" || health.Provider != "scripted" {
		t.Fatalf("health = %+v", health)
	}
	if health.Jobs["completed"] != 1 {
		t.Fatalf("health jobs = %v", health.Jobs)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed&limit=5", nil))
	var list api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode jobs: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].ID != jobID {
		t.Fatalf("jobs = %+v", list.Jobs)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID[:8], nil))
	var one api.JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &one); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if one.Job.ID != jobID || one.Job.Entries != 2 {
		t.Fatalf("job = %+v", one.Job)
	}

	for _, path := range []string{"/api/jobs/does-not-exist", "/api/jobs?status=bogus", "/api/jobs?limit=0"} {
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code == http.StatusOK {
			t.Fatalf("%s: expected failure, got 200", path)
		}
	}
}

func TestCORSAllowList(t *testing.T) {
	d, handler := newTestServer(t, testsupport.NewScriptedEngine())
	d.api.corsOrigins = []string{"https://app.example"}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("allowed origin not echoed: %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unlisted origin should not be allowed")
	}
}
