package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"bookclub/internal/domain"
)

const userColumns = "id, username, COALESCE(avatar,''), created_at, COALESCE(updated_at,'')"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Username, &u.Avatar, &createdAt, &updatedAt); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if parsed, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		u.UpdatedAt = parsed
	}
	return u, nil
}

// GetUserByID returns the user with id in the SQLite store.
func GetUserByID(ctx context.Context, db *sql.DB, id int) (domain.User, error) {
	return scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user WHERE id = ?", id))
}

// GetUserByUsername returns the user whose username matches case-insensitively.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (domain.User, error) {
	return scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM user WHERE username = ? COLLATE NOCASE", strings.TrimSpace(username)))
}

// ListUsers returns every user ordered by id.
func ListUsers(ctx context.Context, db *sql.DB) ([]domain.User, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+userColumns+" FROM user ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user and returns its id.
func CreateUser(ctx context.Context, db *sql.DB, username string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, errors.New("username is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.ExecContext(ctx, "INSERT INTO user (username, created_at, updated_at) VALUES (?, ?, ?)", username, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SetUserAvatar records filename as the user's avatar; empty clears it.
func SetUserAvatar(ctx context.Context, db *sql.DB, userID int, filename string) error {
	var value interface{}
	if filename != "" {
		value = filename
	}
	res, err := db.ExecContext(ctx, "UPDATE user SET avatar = ?, updated_at = ? WHERE id = ?", value, time.Now().UTC().Format(time.RFC3339), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
