package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/sessions"

	"bookclub/internal/domain"
)

type auditEntry struct {
	action string
	err    error
}

type fakeDeps struct {
	user      domain.User
	userErr   error
	csrfOK    bool
	tokens    []string
	saveErr   error
	byName    map[string]domain.User
	saved     []string
	outcomes  []auditEntry
	attempted int
}

func newFakeDeps(user domain.User) *fakeDeps {
	return &fakeDeps{user: user, csrfOK: true, byName: map[string]domain.User{}}
}

func (f *fakeDeps) GetSession(*http.Request, string) (*sessions.Session, error) {
	return &sessions.Session{Values: map[interface{}]interface{}{}}, nil
}

func (f *fakeDeps) ValidateCSRF(_ *sessions.Session, token string) bool {
	f.tokens = append(f.tokens, token)
	return f.csrfOK
}

func (f *fakeDeps) CurrentUser(*http.Request) (domain.User, error) {
	return f.user, f.userErr
}

func (f *fakeDeps) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	if user, ok := f.byName[strings.ToLower(username)]; ok {
		return user, nil
	}
	return domain.User{}, errors.New("not found")
}

func (f *fakeDeps) SetUserAvatar(_ context.Context, _ int, filename string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, filename)
	return nil
}

func (f *fakeDeps) AuditAttempt(context.Context, int, string, string, map[string]string) {
	f.attempted++
}

func (f *fakeDeps) AuditOutcome(_ context.Context, _ int, action, _ string, err error, _ map[string]string) {
	f.outcomes = append(f.outcomes, auditEntry{action: action, err: err})
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("csrf_token", "token")
	if data != nil {
		part, err := writer.CreateFormFile(field, "avatar.bin")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(data)
	}
	_ = writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/settings/avatar/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// TestUploadHandlerReplacesPreviousAvatar verifies upload handler replaces previous avatar behavior.
func TestUploadHandlerReplacesPreviousAvatar(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, cfg)
	if err := os.MkdirAll(cfg.AvatarDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	previous := filepath.Join(cfg.AvatarDir, "user_5_old.png")
	if err := os.WriteFile(previous, []byte("old"), 0644); err != nil {
		t.Fatalf("write previous: %v", err)
	}
	deps := newFakeDeps(domain.User{ID: 5, Username: "jane", Avatar: "user_5_old.png"})
	handler := NewHandler(deps, m, nil)

	rec := httptest.NewRecorder()
	handler.Upload(rec, uploadRequest(t, "avatar", encodeImage(t, "png", 64, 64)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeResult(t, rec)
	if body["success"] != true || body["filename"] != "user_5_token.png" || body["url"] != "/uploads/avatars/user_5_token.png" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["Filepath"]; ok {
		t.Fatalf("internal path must not be serialized")
	}
	if len(deps.saved) != 1 || deps.saved[0] != "user_5_token.png" {
		t.Fatalf("expected user record update, got %v", deps.saved)
	}
	if _, err := os.Stat(previous); !os.IsNotExist(err) {
		t.Fatalf("expected previous avatar to be removed")
	}
	if deps.attempted != 1 || len(deps.outcomes) != 1 || deps.outcomes[0].err != nil {
		t.Fatalf("unexpected audit trail %d %+v", deps.attempted, deps.outcomes)
	}
}

// TestUploadHandlerFailures verifies upload handler failures behavior.
func TestUploadHandlerFailures(t *testing.T) {
	cases := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		kind   string
	}{
		{
			name:   "missing file field",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "avatar", nil) },
			status: http.StatusBadRequest,
			kind:   "upload_transport_error",
		},
		{
			name:   "not multipart",
			req:    func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodPost, "/settings/avatar/upload", strings.NewReader("x")) },
			status: http.StatusBadRequest,
			kind:   "upload_transport_error",
		},
		{
			name:   "wrong content",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "avatar", []byte("plain text body")) },
			status: http.StatusUnsupportedMediaType,
			kind:   "unsupported_mime_type",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			deps := newFakeDeps(domain.User{ID: 1, Username: "jane"})
			handler := NewHandler(deps, newTestManager(t, cfg), nil)

			rec := httptest.NewRecorder()
			handler.Upload(rec, tc.req(t))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			body := decodeResult(t, rec)
			if body["success"] != false || body["error"] != tc.kind {
				t.Fatalf("unexpected body %v", body)
			}
			if len(deps.saved) != 0 {
				t.Fatalf("expected no user update, got %v", deps.saved)
			}
			if len(deps.outcomes) != 1 || deps.outcomes[0].err == nil {
				t.Fatalf("expected failed audit outcome, got %+v", deps.outcomes)
			}
		})
	}
}

// TestUploadHandlerOversizeBody verifies an oversize body is reported as a
// form size error and the token sent ahead of the file still reaches the
// CSRF check.
func TestUploadHandlerOversizeBody(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxSize = 1024
	deps := newFakeDeps(domain.User{ID: 1})
	handler := NewHandler(deps, newTestManager(t, cfg), nil)

	rec := httptest.NewRecorder()
	handler.Upload(rec, uploadRequest(t, "avatar", bytes.Repeat([]byte{0x89}, multipartMemory+4096)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeResult(t, rec)
	if body["success"] != false || body["error"] != "upload_transport_error" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["message"] != "The uploaded file exceeds the maximum size allowed by the form." {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if len(deps.tokens) != 1 || deps.tokens[0] != "token" {
		t.Fatalf("expected streamed csrf token, got %v", deps.tokens)
	}
	if len(deps.saved) != 0 {
		t.Fatalf("expected no user update")
	}
}

// TestUploadHandlerTokenSources verifies the CSRF token is read from a field
// after the file part and from the X-CSRF-Token header.
func TestUploadHandlerTokenSources(t *testing.T) {
	build := func(t *testing.T, field string) *http.Request {
		t.Helper()
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("avatar", "avatar.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(encodeImage(t, "png", 10, 10))
		if field != "" {
			_ = writer.WriteField("csrf_token", field)
		}
		_ = writer.Close()
		req := httptest.NewRequest(http.MethodPost, "/settings/avatar/upload", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	cfg := testConfig(t)
	deps := newFakeDeps(domain.User{ID: 1})
	handler := NewHandler(deps, newTestManager(t, cfg), nil)

	handler.Upload(httptest.NewRecorder(), build(t, "trailing"))
	req := build(t, "")
	req.Header.Set("X-CSRF-Token", "header")
	handler.Upload(httptest.NewRecorder(), req)

	if len(deps.tokens) != 2 || deps.tokens[0] != "trailing" || deps.tokens[1] != "header" {
		t.Fatalf("unexpected tokens %v", deps.tokens)
	}
}

// TestUploadHandlerRejectsCSRF verifies upload handler rejects CSRF behavior.
func TestUploadHandlerRejectsCSRF(t *testing.T) {
	cfg := testConfig(t)
	deps := newFakeDeps(domain.User{ID: 1})
	deps.csrfOK = false
	handler := NewHandler(deps, newTestManager(t, cfg), nil)

	rec := httptest.NewRecorder()
	handler.Upload(rec, uploadRequest(t, "avatar", encodeImage(t, "png", 10, 10)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeResult(t, rec); body["message"] != "Invalid CSRF token." {
		t.Fatalf("unexpected body %v", body)
	}
	if names := dirEntries(t, cfg.AvatarDir); len(names) != 0 {
		t.Fatalf("expected nothing stored, found %v", names)
	}
}

// TestUploadHandlerSaveFailureCleansUp verifies upload handler save failure cleans up behavior.
func TestUploadHandlerSaveFailureCleansUp(t *testing.T) {
	cfg := testConfig(t)
	deps := newFakeDeps(domain.User{ID: 1})
	deps.saveErr = errors.New("db down")
	handler := NewHandler(deps, newTestManager(t, cfg), nil)

	rec := httptest.NewRecorder()
	handler.Upload(rec, uploadRequest(t, "avatar", encodeImage(t, "png", 10, 10)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if names := dirEntries(t, cfg.AvatarDir); len(names) != 0 {
		t.Fatalf("expected stored file to be removed, found %v", names)
	}
}

// TestDefaultHandler verifies default handler behavior.
func TestDefaultHandler(t *testing.T) {
	cfg := testConfig(t)
	deps := newFakeDeps(domain.User{ID: 9, Username: "Jane Doe"})
	handler := NewHandler(deps, newTestManager(t, cfg), nil)

	rec := httptest.NewRecorder()
	handler.Default(rec, httptest.NewRequest(http.MethodPost, "/settings/avatar/default", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeResult(t, rec)
	filename, _ := body["filename"].(string)
	if body["success"] != true || !strings.HasPrefix(filename, "default_9_") {
		t.Fatalf("unexpected body %v", body)
	}
	if len(deps.saved) != 1 || deps.saved[0] != filename {
		t.Fatalf("expected user record update, got %v", deps.saved)
	}
}

// TestDeleteHandler verifies delete handler behavior.
func TestDeleteHandler(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.AvatarDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stored := filepath.Join(cfg.AvatarDir, "user_2_a.png")
	if err := os.WriteFile(stored, []byte("png"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	deps := newFakeDeps(domain.User{ID: 2, Avatar: "user_2_a.png"})
	handler := NewHandler(deps, newTestManager(t, cfg), nil)

	rec := httptest.NewRecorder()
	handler.Delete(rec, httptest.NewRequest(http.MethodPost, "/settings/avatar/delete", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeResult(t, rec)
	if body["success"] != true || body["url"] != cfg.DefaultURL {
		t.Fatalf("unexpected body %v", body)
	}
	if len(deps.saved) != 1 || deps.saved[0] != "" {
		t.Fatalf("expected avatar cleared, got %v", deps.saved)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("expected file removed")
	}
}

// TestHandlersRejectWrongMethod verifies handlers reject wrong method behavior.
func TestHandlersRejectWrongMethod(t *testing.T) {
	handler := NewHandler(newFakeDeps(domain.User{ID: 1}), newTestManager(t, testConfig(t)), nil)
	for name, fn := range map[string]http.HandlerFunc{
		"upload":  handler.Upload,
		"default": handler.Default,
		"delete":  handler.Delete,
	} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/settings/avatar/"+name, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", name, rec.Code)
		}
	}
}

// TestShowRedirects verifies show redirects behavior.
func TestShowRedirects(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, cfg)
	stored := m.Upload(writeUpload(t, encodeImage(t, "png", 200, 200)), 4)
	if !stored.Success {
		t.Fatalf("upload: %+v", stored)
	}
	deps := newFakeDeps(domain.User{})
	deps.byName["jane"] = domain.User{ID: 4, Username: "jane", Avatar: stored.Filename}
	deps.byName["nobody"] = domain.User{ID: 5, Username: "nobody"}
	handler := NewHandler(deps, m, nil)

	cases := map[string]string{
		"/avatar/jane?size=small":    cfg.CacheURL + "/user_4_token_small.png",
		"/avatar/jane?size=original": stored.PublicURL,
		"/avatar/jane?size=bogus":    cfg.CacheURL + "/user_4_token_medium.png",
		"/avatar/jane":               cfg.CacheURL + "/user_4_token_medium.png",
		"/avatar/nobody":             cfg.DefaultURL,
		"/avatar/ghost":              cfg.DefaultURL,
		"/avatar/":                   cfg.DefaultURL,
	}
	for target, want := range cases {
		rec := httptest.NewRecorder()
		handler.Show(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", target, rec.Code)
		}
		if got := rec.Header().Get("Location"); got != want {
			t.Fatalf("%s: expected %q, got %q", target, want, got)
		}
	}
}

// TestStatusFor verifies status for behavior.
func TestStatusFor(t *testing.T) {
	cases := map[Kind]int{
		KindNone:             http.StatusOK,
		KindUploadTransport:  http.StatusBadRequest,
		KindUnsupportedMIME:  http.StatusUnsupportedMediaType,
		KindUnsupportedImage: http.StatusUnsupportedMediaType,
		KindFileTooLarge:     http.StatusRequestEntityTooLarge,
		KindMissingSource:    http.StatusNotFound,
		KindDirectoryCreate:  http.StatusInternalServerError,
		KindProcessingFailed: http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusFor(kind); got != want {
			t.Fatalf("statusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}
