package users

import (
	"context"

	"bookclub/internal/domain"
)

// Repository defines persistence operations for users.
type Repository interface {
	GetUserByID(ctx context.Context, id int) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, username string) (int64, error)
	SetUserAvatar(ctx context.Context, userID int, filename string) error
}
