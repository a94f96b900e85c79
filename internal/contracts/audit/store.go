package audit

import (
	"context"

	"bookclub/internal/domain"
)

// Repository defines persistence operations for audit logs.
type Repository interface {
	WriteAuditLog(ctx context.Context, actorID int, action, target string, metadata map[string]string) error
	ListAuditLogs(ctx context.Context, limit, offset int) ([]domain.AuditLog, error)
	ListAuditLogsByActor(ctx context.Context, actorID, limit, offset int) ([]domain.AuditLog, error)
	CountAuditLogs(ctx context.Context) (int, error)
}
