// ABOUTME: User repository with the named lookups the account service needs
// ABOUTME: Email/username lookups and per-role counts on top of generic CRUD

package repository

import (
	"context"
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

// UserRepository stores accounts.
type UserRepository struct {
	*CrudNodes[entity.User, entity.CreateUser, entity.UserUpdate]
}

var _ CrudRepository[entity.User, entity.CreateUser, entity.UserUpdate] = (*UserRepository)(nil)

func NewUserRepository(client store.Client, logger *slog.Logger) *UserRepository {
	return &UserRepository{NewCrudNodes[entity.User, entity.CreateUser, entity.UserUpdate](client, logger)}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOneBy(ctx, "email", email)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsBy(ctx, "email", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOneBy(ctx, "username", username)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.existsBy(ctx, "username", username)
}

// CountByRole returns the number of users per role. Every role is present,
// with zero when no user has it.
func (r *UserRepository) CountByRole(ctx context.Context) (map[entity.Role]int, error) {
	raw, err := r.countBy(ctx, "role")
	if err != nil {
		return nil, err
	}
	counts := make(map[entity.Role]int, len(entity.Roles))
	for _, role := range entity.Roles {
		counts[role] = raw[string(role)]
	}
	return counts, nil
}
