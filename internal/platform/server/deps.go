package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"bookclub/internal/domain"
	"bookclub/internal/platform/core"
)

var errNotLoggedIn = errors.New("not logged in")

// GetSession returns the session.
func (s *Server) GetSession(r *http.Request, name string) (*sessions.Session, error) {
	return s.store.Get(r, name)
}

// ValidateCSRF validates CSRF and returns an error on failure.
func (s *Server) ValidateCSRF(session *sessions.Session, token string) bool {
	return s.validateCSRF(session, token)
}

// CurrentUser returns the authenticated user from the session.
func (s *Server) CurrentUser(r *http.Request) (domain.User, error) {
	session, _ := s.store.Get(r, core.SessionName)
	id, ok := core.SessionUserID(session)
	if !ok {
		return domain.User{}, errNotLoggedIn
	}
	return s.repos.Users.GetUserByID(r.Context(), id)
}

// AuditAttempt records attempt as an audit event.
func (s *Server) AuditAttempt(ctx context.Context, actorID int, action, target string, meta map[string]string) {
	s.auditAttempt(ctx, actorID, action, target, meta)
}

// AuditOutcome records outcome as an audit event.
func (s *Server) AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string) {
	s.auditOutcome(ctx, actorID, action, target, err, meta)
}
