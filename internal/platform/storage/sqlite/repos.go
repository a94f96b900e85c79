package sqlitestore

import (
	"context"
	"database/sql"

	"bookclub/internal/contracts"
	"bookclub/internal/domain"
)

type repos struct {
	db *sql.DB
}

// NewRepos wires sqlite-backed repositories for the app layer.
func NewRepos(db *sql.DB) contracts.Repos {
	r := repos{db: db}
	return contracts.Repos{
		Users: r,
		Audit: r,
	}
}

// UsersStore
func (r repos) GetUserByID(ctx context.Context, id int) (domain.User, error) {
	return GetUserByID(ctx, r.db, id)
}

func (r repos) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return GetUserByUsername(ctx, r.db, username)
}

func (r repos) ListUsers(ctx context.Context) ([]domain.User, error) {
	return ListUsers(ctx, r.db)
}

func (r repos) CreateUser(ctx context.Context, username string) (int64, error) {
	return CreateUser(ctx, r.db, username)
}

func (r repos) SetUserAvatar(ctx context.Context, userID int, filename string) error {
	return SetUserAvatar(ctx, r.db, userID, filename)
}

// AuditStore
func (r repos) WriteAuditLog(ctx context.Context, actorID int, action, target string, metadata map[string]string) error {
	return WriteAuditLog(ctx, r.db, actorID, action, target, metadata)
}

func (r repos) ListAuditLogs(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	return ListAuditLogs(ctx, r.db, limit, offset)
}

func (r repos) CountAuditLogs(ctx context.Context) (int, error) {
	return CountAuditLogs(ctx, r.db)
}

func (r repos) ListAuditLogsByActor(ctx context.Context, actorID, limit, offset int) ([]domain.AuditLog, error) {
	return ListAuditLogsByActor(ctx, r.db, actorID, limit, offset)
}
