package transport

import "net/http"

// Registrar is the route seam the server exposes to features. RequireSession
// rejects requests without a signed-in user: it redirects to redirectTo, or
// answers 403 when redirectTo is empty.
type Registrar interface {
	RegisterRoute(mux *http.ServeMux, pattern string, handler http.Handler)
	RequireSession(next http.HandlerFunc, redirectTo string) http.HandlerFunc
}
