package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the read side of the user directory this service depends on.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (models.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error)
}

// UserRepo reads profiles from the shared users table.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, first_name, last_name, nickname, avatar, tick, email`

// GetUser fetches a profile by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int64) (models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByEmail fetches a profile by login email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, ErrUserNotFound
	}
	return user, err
}
