package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"bookclub/internal/domain"
)

// WriteAuditLog records an action; the actor's username is copied so entries
// keep their name after the user is gone.
func WriteAuditLog(ctx context.Context, db *sql.DB, actorID int, action, target string, metadata map[string]string) error {
	metaJSON := ""
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			metaJSON = string(raw)
		}
	}
	_, err := db.ExecContext(
		ctx,
		"INSERT INTO audit_log (actor_id, actor_name, action, target, metadata, created_at) VALUES (?, (SELECT username FROM user WHERE id = ?), ?, ?, ?, ?)",
		actorID,
		actorID,
		action,
		target,
		metaJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

const auditColumns = "id, COALESCE(actor_id, 0), COALESCE(actor_name,''), action, COALESCE(target,''), COALESCE(metadata,''), created_at"

func ListAuditLogs(ctx context.Context, db *sql.DB, limit, offset int) ([]domain.AuditLog, error) {
	limit, offset = auditPage(limit, offset)
	return queryAuditLogs(ctx, db, "SELECT "+auditColumns+" FROM audit_log ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
}

// ListAuditLogsByActor returns the entries recorded for one user, newest first.
func ListAuditLogsByActor(ctx context.Context, db *sql.DB, actorID, limit, offset int) ([]domain.AuditLog, error) {
	limit, offset = auditPage(limit, offset)
	return queryAuditLogs(ctx, db, "SELECT "+auditColumns+" FROM audit_log WHERE actor_id = ? ORDER BY id DESC LIMIT ? OFFSET ?", actorID, limit, offset)
}

func auditPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryAuditLogs(ctx context.Context, db *sql.DB, query string, args ...any) ([]domain.AuditLog, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var logEntry domain.AuditLog
		var actorID int64
		var created string
		if err := rows.Scan(&logEntry.ID, &actorID, &logEntry.ActorName, &logEntry.Action, &logEntry.Target, &logEntry.Metadata, &created); err != nil {
			return nil, err
		}
		if actorID > 0 {
			logEntry.ActorID = sql.NullInt64{Int64: actorID, Valid: true}
		}
		logEntry.CreatedAt, _ = time.Parse(time.RFC3339, created)
		logs = append(logs, logEntry)
	}
	return logs, rows.Err()
}

func CountAuditLogs(ctx context.Context, db *sql.DB) (int, error) {
	row := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
