package domain

import (
	"database/sql"
	"time"
)

// User is a member of the book club. Avatar holds the stored avatar filename,
// empty when the member has none.
type User struct {
	ID        int
	Username  string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AuditLog struct {
	ID        int
	ActorID   sql.NullInt64
	ActorName string
	Action    string
	Target    string
	Metadata  string
	CreatedAt time.Time
}
