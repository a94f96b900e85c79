package server

import (
	"context"
	"errors"
)

// auditStatus records status as an audit event.
func auditStatus(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "failure"
}

// mergeAuditMeta merges audit meta values into the target.
func mergeAuditMeta(meta map[string]string, extra map[string]string) map[string]string {
	if meta == nil {
		meta = map[string]string{}
	}
	for key, value := range extra {
		meta[key] = value
	}
	return meta
}

// auditAttempt records attempt as an audit event.
func (s *Server) auditAttempt(ctx context.Context, actorID int, action, target string, meta map[string]string) {
	meta = mergeAuditMeta(meta, map[string]string{"status": "attempt"})
	s.writeAudit(ctx, actorID, action, target, meta)
}

// auditOutcome records outcome as an audit event.
func (s *Server) auditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string) {
	status := auditStatus(err)
	meta = mergeAuditMeta(meta, map[string]string{"status": status})
	if err != nil {
		meta["error"] = err.Error()
	}
	s.writeAudit(ctx, actorID, action, target, meta)
}

// writeAudit persists an entry; storage failures are logged, never surfaced.
func (s *Server) writeAudit(ctx context.Context, actorID int, action, target string, meta map[string]string) {
	if err := s.repos.Audit.WriteAuditLog(ctx, actorID, action, target, meta); err != nil {
		s.logger.Warn("audit write failed", "action", action, "actor_id", actorID, "error", err)
	}
}
