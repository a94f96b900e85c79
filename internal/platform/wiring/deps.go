package wiring

import (
	"bookclub/internal/contracts"
	bookclubserver "bookclub/internal/platform/server"
)

// Deps adapts the server and its repositories to the feature Dependencies interfaces.
type Deps struct {
	srv   *bookclubserver.Server
	repos contracts.Repos
}

func NewDeps(srv *bookclubserver.Server) Deps {
	return Deps{srv: srv, repos: srv.Repos()}
}
