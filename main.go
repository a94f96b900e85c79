package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	_ "modernc.org/sqlite"

	"bookclub/internal/config"
	"bookclub/internal/contracts"
	"bookclub/internal/features/avatar"
	bookclubhttp "bookclub/internal/platform/http"
	"bookclub/internal/platform/i18n"
	bookclubserver "bookclub/internal/platform/server"
	"bookclub/internal/platform/storage"
	sqlitestore "bookclub/internal/platform/storage/sqlite"
)

const usage = `usage: bookclub [command]

commands:
  serve                 run the HTTP server (default)
  backup [dest]         write a zip of the database and uploads
  useradd <username>    create a user with a generated avatar
  users                 list users and their avatar files
  audit [limit]         print the most recent audit entries`

// main wires dependencies and dispatches the command line.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)
	if err := run(context.Background(), cfg, logger, os.Args[1:], os.Stdout); err != nil {
		logger.Error("bookclub failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Fprintln(stdout, usage)
		return nil
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	repos := sqlitestore.NewRepos(db)

	switch command {
	case "serve":
		return serve(cfg, db, repos, logger)
	case "backup":
		dest := ""
		if len(args) > 0 {
			dest = args[0]
		}
		path, err := storage.BackupToZip(cfg, dest)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		logger.Info("backup written", "path", path)
		return nil
	case "useradd":
		if len(args) == 0 {
			return errors.New("useradd requires a username")
		}
		return addUser(ctx, cfg, repos, logger, strings.Join(args, " "), stdout)
	case "users":
		return listUsers(ctx, repos, stdout)
	case "audit":
		limit := 25
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
				limit = n
			}
		}
		return listAudit(ctx, repos, limit, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db journal_mode: %w", err)
	}
	if err := sqlitestore.InitDB(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init: %w", err)
	}
	return db, nil
}

func serve(cfg config.Config, db *sql.DB, repos contracts.Repos, logger *slog.Logger) error {
	srv, err := bookclubserver.NewServerWithRepos(cfg, db, repos, logger)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, bookclubhttp.Routes(srv)); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func addUser(ctx context.Context, cfg config.Config, repos contracts.Repos, logger *slog.Logger, username string, stdout io.Writer) error {
	id, err := repos.Users.CreateUser(ctx, username)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	manager := avatar.NewManager(avatar.ConfigFrom(cfg), i18n.Printer(cfg.Locale), logger)
	result := manager.GenerateDefault(username, int(id))
	if result.Success {
		if err := repos.Users.SetUserAvatar(ctx, int(id), result.Filename); err != nil {
			manager.Delete(result.Filename)
			return fmt.Errorf("set avatar: %w", err)
		}
	}
	fmt.Fprintf(stdout, "created user %d (%s) avatar %s\n", id, username, result.PublicURL)
	return nil
}

func listUsers(ctx context.Context, repos contracts.Repos, stdout io.Writer) error {
	users, err := repos.Users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tAVATAR")
	for _, user := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", user.ID, user.Username, user.Avatar)
	}
	return tw.Flush()
}

func listAudit(ctx context.Context, repos contracts.Repos, limit int, stdout io.Writer) error {
	total, err := repos.Audit.CountAuditLogs(ctx)
	if err != nil {
		return fmt.Errorf("count audit logs: %w", err)
	}
	logs, err := repos.Audit.ListAuditLogs(ctx, limit, 0)
	if err != nil {
		return fmt.Errorf("list audit logs: %w", err)
	}
	fmt.Fprintf(stdout, "%d of %d entries\n", len(logs), total)
	for _, entry := range logs {
		actor := entry.ActorName
		if actor == "" {
			actor = "system"
		}
		fmt.Fprintf(stdout, "%s | %s | by %s | %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Action, actor, entry.Metadata)
	}
	return nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
