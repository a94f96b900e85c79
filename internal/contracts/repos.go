package contracts

import (
	"bookclub/internal/contracts/audit"
	"bookclub/internal/contracts/users"
)

// Repos groups feature-specific repositories for injection into services and handlers.
type Repos struct {
	Users users.Repository
	Audit audit.Repository
}
