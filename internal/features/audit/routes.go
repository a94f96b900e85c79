package audit

import (
	"net/http"

	"bookclub/internal/platform/transport"
)

// Register wires the activity export.
func Register(mux *http.ServeMux, reg transport.Registrar, deps Dependencies) {
	handler := NewHandler(deps)
	reg.RegisterRoute(mux, "/settings/activity", http.HandlerFunc(reg.RequireSession(handler.Download, "")))
}
