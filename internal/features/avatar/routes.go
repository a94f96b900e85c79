package avatar

import (
	"log/slog"
	"net/http"

	"bookclub/internal/config"
	"bookclub/internal/platform/i18n"
	"bookclub/internal/platform/transport"
)

// Register wires avatar routes.
func Register(mux *http.ServeMux, reg transport.Registrar, deps Dependencies, cfg config.Config, logger *slog.Logger) {
	register := func(pattern string, handler http.Handler) {
		reg.RegisterRoute(mux, pattern, handler)
	}

	printer := i18n.Printer(cfg.Locale)
	handler := NewHandler(deps, NewManager(ConfigFrom(cfg), printer, logger), printer)

	register("/avatar/", http.HandlerFunc(handler.Show))

	requireLogin := func(next http.HandlerFunc) http.HandlerFunc {
		return reg.RequireSession(next, "")
	}
	register("/settings/avatar/upload", http.HandlerFunc(requireLogin(handler.Upload)))
	register("/settings/avatar/default", http.HandlerFunc(requireLogin(handler.Default)))
	register("/settings/avatar/delete", http.HandlerFunc(requireLogin(handler.Delete)))
}
