package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/sessions"

	"bookclub/internal/config"
	"bookclub/internal/contracts"
	"bookclub/internal/platform/core"
	sqlitestore "bookclub/internal/platform/storage/sqlite"
)

// Server bundles dependencies for HTTP handlers.
type Server struct {
	cfg    config.Config
	db     *sql.DB
	store  *sessions.CookieStore
	logger *slog.Logger
	repos  contracts.Repos
}

// NewServer configures dependencies for handlers using the default SQLite-backed repositories.
func NewServer(cfg config.Config, db *sql.DB, logger *slog.Logger) (*Server, error) {
	return NewServerWithRepos(cfg, db, sqlitestore.NewRepos(db), logger)
}

// NewServerWithRepos constructs a new server with repos.
func NewServerWithRepos(cfg config.Config, db *sql.DB, repos contracts.Repos, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := sessions.NewCookieStore([]byte(cfg.SecretKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}

	for _, dir := range []string{cfg.AvatarDir, cfg.AvatarCacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
		}
	}

	return &Server{
		cfg:    cfg,
		db:     db,
		store:  store,
		logger: logger,
		repos:  repos,
	}, nil
}

// RegisterRoute registers routes and handlers for route.
func (s *Server) RegisterRoute(mux *http.ServeMux, pattern string, handler http.Handler) {
	mux.Handle(pattern, handler)
}

// WithSecurityHeaders wraps the handler with additional behavior.
func (s *Server) WithSecurityHeaders(next http.Handler) http.Handler {
	return s.withSecurityHeaders(next)
}

// WithRequestLog logs one line per request.
func (s *Server) WithRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Config returns a copy of the server configuration.
func (s *Server) Config() config.Config {
	return s.cfg
}

// Repos returns the repository bundle for storage access.
func (s *Server) Repos() contracts.Repos {
	return s.repos
}

// Logger returns the structured logger shared by features.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// withSecurityHeaders wraps the handler with additional behavior.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// RequireSession wraps a handler with session enforcement and redirect behavior.
func (s *Server) RequireSession(next http.HandlerFunc, redirectTo string) http.HandlerFunc {
	return s.requireSession(next, redirectTo)
}

// requireSession checks for a session user_id and redirects when missing.
func (s *Server) requireSession(next http.HandlerFunc, redirectTo string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, core.SessionName)
		if _, ok := core.SessionUserID(session); !ok {
			if redirectTo == "" {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			http.Redirect(w, r, redirectTo, http.StatusFound)
			return
		}
		next(w, r)
	}
}

// validateCSRF checks the submitted CSRF token unless disabled by config.
func (s *Server) validateCSRF(session *sessions.Session, token string) bool {
	if s.cfg.DisableCSRF {
		return true
	}
	if session == nil {
		return false
	}
	stored, _ := session.Values["csrf_token"].(string)
	if stored == "" || token == "" {
		return false
	}
	return core.SubtleCompare(stored, token)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
