package wiring

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"

	"bookclub/internal/domain"
)

// GetSession returns the session by delegating to configured services.
func (d Deps) GetSession(r *http.Request, name string) (*sessions.Session, error) {
	return d.srv.GetSession(r, name)
}

// ValidateCSRF validates CSRF and returns an error on failure.
func (d Deps) ValidateCSRF(session *sessions.Session, token string) bool {
	return d.srv.ValidateCSRF(session, token)
}

// CurrentUser returns the authenticated user from the request.
func (d Deps) CurrentUser(r *http.Request) (domain.User, error) {
	return d.srv.CurrentUser(r)
}

// AuditAttempt records attempt as an audit event.
func (d Deps) AuditAttempt(ctx context.Context, actorID int, action, target string, meta map[string]string) {
	d.srv.AuditAttempt(ctx, actorID, action, target, meta)
}

// AuditOutcome records outcome as an audit event.
func (d Deps) AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string) {
	d.srv.AuditOutcome(ctx, actorID, action, target, err, meta)
}
