package http

import (
	"net/http"

	"bookclub/internal/features/audit"
	"bookclub/internal/features/avatar"
	"bookclub/internal/features/health"
	bookclubserver "bookclub/internal/platform/server"
	"bookclub/internal/platform/wiring"
)

// Routes builds the HTTP mux using server handlers.
func Routes(s *bookclubserver.Server) http.Handler {
	mux := http.NewServeMux()
	register := func(pattern string, handler http.Handler) {
		s.RegisterRoute(mux, pattern, handler)
	}

	cfg := s.Config()
	deps := wiring.NewDeps(s)
	register("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	register(cfg.PublicPath+"/", http.StripPrefix(cfg.PublicPath+"/", http.FileServer(http.Dir(cfg.UploadsDir))))

	health.Register(mux, s, cfg)
	avatar.Register(mux, s, deps, cfg, s.Logger())
	audit.Register(mux, s, deps)

	return s.WithRequestLog(s.WithSecurityHeaders(mux))
}
