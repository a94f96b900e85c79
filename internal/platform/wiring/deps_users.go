package wiring

import (
	"context"

	"bookclub/internal/domain"
)

// Users.
func (d Deps) GetUserByID(ctx context.Context, id int) (domain.User, error) {
	return d.repos.Users.GetUserByID(ctx, id)
}

func (d Deps) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return d.repos.Users.GetUserByUsername(ctx, username)
}

func (d Deps) SetUserAvatar(ctx context.Context, userID int, filename string) error {
	return d.repos.Users.SetUserAvatar(ctx, userID, filename)
}
