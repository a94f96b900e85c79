package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"

	"bookclub/internal/platform/core"
	"bookclub/internal/testutil"
)

// TestValidateCSRF verifies validate CSRF behavior.
func TestValidateCSRF(t *testing.T) {
	srv := testutil.NewServer(t)
	session := &sessions.Session{Values: map[interface{}]interface{}{"csrf_token": "abc"}}
	if !srv.ValidateCSRF(session, "abc") {
		t.Fatalf("expected matching token to pass")
	}
	if srv.ValidateCSRF(session, "abd") || srv.ValidateCSRF(session, "") {
		t.Fatalf("expected mismatched token to fail")
	}
	if srv.ValidateCSRF(nil, "abc") {
		t.Fatalf("expected nil session to fail")
	}

	cfg := testutil.TestConfig(t)
	cfg.DisableCSRF = true
	if !testutil.NewServerWithConfig(t, cfg).ValidateCSRF(nil, "") {
		t.Fatalf("expected disabled CSRF to pass")
	}
}

// TestRequireSession verifies require session behavior.
func TestRequireSession(t *testing.T) {
	srv := testutil.NewServer(t)
	called := false
	handler := srv.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/settings/avatar/upload", nil))
	if rec.Code != http.StatusForbidden || called {
		t.Fatalf("expected 403 without session, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/settings/avatar/upload", nil)
	for _, c := range testutil.SessionCookies(t, srv, 1, "tok") {
		req.AddCookie(c)
	}
	handler(httptest.NewRecorder(), req)
	if !called {
		t.Fatalf("expected handler to run with a session")
	}

	redirect := srv.RequireSession(func(http.ResponseWriter, *http.Request) {}, "/login")
	rec = httptest.NewRecorder()
	redirect(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

// TestCurrentUserAndAudit verifies current user and audit behavior.
func TestCurrentUserAndAudit(t *testing.T) {
	srv := testutil.NewServer(t)
	ctx := context.Background()
	id, err := srv.Repos().Users.CreateUser(ctx, "reader")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := srv.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil)); err == nil {
		t.Fatalf("expected error without session")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range testutil.SessionCookies(t, srv, int(id), "tok") {
		req.AddCookie(c)
	}
	user, err := srv.CurrentUser(req)
	if err != nil || user.Username != "reader" {
		t.Fatalf("expected reader, got %+v (%v)", user, err)
	}
	session, _ := srv.GetSession(req, core.SessionName)
	if !srv.ValidateCSRF(session, "tok") {
		t.Fatalf("expected session CSRF token to validate")
	}

	srv.AuditAttempt(ctx, user.ID, "avatar.upload", "1", nil)
	srv.AuditOutcome(ctx, user.ID, "avatar.upload", "1", context.Canceled, map[string]string{"filename": "a.png"})
	logs, err := srv.Repos().Audit.ListAuditLogsByActor(ctx, user.ID, 10, 0)
	if err != nil || len(logs) != 2 {
		t.Fatalf("expected 2 audit entries, got %d (%v)", len(logs), err)
	}
	if logs[0].Metadata != `{"error":"context canceled","filename":"a.png","status":"canceled"}` {
		t.Fatalf("unexpected outcome metadata %q", logs[0].Metadata)
	}
}
