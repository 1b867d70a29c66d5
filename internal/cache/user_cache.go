package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const profileKeyPrefix = "chat:profile:"

type cachedProfile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	Tick      bool   `json:"tick"`
	Email     string `json:"email"`
}

// UserDirectory is a read-through redis cache in front of the users table.
// Chat lists resolve one partner profile per entry, so repeated list and send
// calls hit redis instead of Postgres. Email lookups always go to the source.
type UserDirectory struct {
	next repositories.UserRepository
	rdb  *redis.Client
	ttl  time.Duration
}

// NewUserDirectory wraps next; a nil client disables caching.
func NewUserDirectory(next repositories.UserRepository, rdb *redis.Client, ttl time.Duration) *UserDirectory {
	return &UserDirectory{next: next, rdb: rdb, ttl: ttl}
}

func profileKey(userID int64) string {
	return profileKeyPrefix + strconv.FormatInt(userID, 10)
}

// GetUser returns the cached profile or loads and caches it.
func (d *UserDirectory) GetUser(ctx context.Context, userID int64) (models.UserProfile, error) {
	if d.rdb == nil {
		return d.next.GetUser(ctx, userID)
	}

	data, err := d.rdb.Get(ctx, profileKey(userID)).Bytes()
	if err == nil {
		var cached cachedProfile
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return models.UserProfile(cached), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn("profile cache read failed user_id=%d: %v", userID, err)
	}

	user, err := d.next.GetUser(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}

	if payload, err := json.Marshal(cachedProfile(user)); err == nil {
		if err := d.rdb.Set(ctx, profileKey(userID), payload, d.ttl).Err(); err != nil {
			logger.Warn("profile cache write failed user_id=%d: %v", userID, err)
		}
	}
	return user, nil
}

// GetUserByEmail bypasses the cache.
func (d *UserDirectory) GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	return d.next.GetUserByEmail(ctx, email)
}
