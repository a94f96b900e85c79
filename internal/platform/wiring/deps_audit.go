package wiring

import (
	"context"

	"bookclub/internal/domain"
)

// Audit.
func (d Deps) ListAuditLogsByActor(ctx context.Context, actorID, limit, offset int) ([]domain.AuditLog, error) {
	return d.repos.Audit.ListAuditLogsByActor(ctx, actorID, limit, offset)
}
