package health

import (
	"net/http"

	"bookclub/internal/config"
	"bookclub/internal/platform/transport"
)

// Register wires health check endpoints.
func Register(mux *http.ServeMux, reg transport.Registrar, cfg config.Config) {
	register := func(pattern string, handler http.Handler) {
		reg.RegisterRoute(mux, pattern, handler)
	}
	handler := NewHandler(cfg.AvatarCacheDir, cfg.FontPath)
	register("/health/images", http.HandlerFunc(handler.ImageHealth))
}
