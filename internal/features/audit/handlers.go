package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookclub/internal/domain"
	"bookclub/internal/platform/core"
)

const pageSize = 20

type Dependencies interface {
	CurrentUser(r *http.Request) (domain.User, error)
	ListAuditLogsByActor(ctx context.Context, actorID, limit, offset int) ([]domain.AuditLog, error)
}

type Handler struct {
	deps Dependencies
}

// NewHandler constructs a new handler.
func NewHandler(deps Dependencies) Handler {
	return Handler{deps: deps}
}

// Download exports the current user's avatar activity as CSV, JSON, or text.
func (h Handler) Download(w http.ResponseWriter, r *http.Request) {
	current, err := h.deps.CurrentUser(r)
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format != "json" && format != "txt" {
		format = "csv"
	}
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	logs, err := h.deps.ListAuditLogsByActor(r.Context(), current.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		http.Error(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("avatar-activity-%d.%s", page, format)
	switch format {
	case "json":
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		if logs == nil {
			logs = []domain.AuditLog{}
		}
		core.WriteJSON(w, logs)
	case "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		for _, entry := range logs {
			target := entry.Target
			if target == "" {
				target = "n/a"
			}
			fmt.Fprintf(
				w,
				"%s | %s | object %s | %s\n",
				entry.CreatedAt.Format("2006-01-02 15:04:05"),
				entry.Action,
				target,
				entry.Metadata,
			)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		writer := csv.NewWriter(w)
		_ = writer.Write([]string{"id", "timestamp", "action", "target", "metadata"})
		for _, entry := range logs {
			_ = writer.Write([]string{
				strconv.Itoa(entry.ID),
				entry.CreatedAt.Format(time.RFC3339),
				entry.Action,
				entry.Target,
				entry.Metadata,
			})
		}
		writer.Flush()
	}
}
