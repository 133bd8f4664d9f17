// Package cache provides a read-through Redis cache for user directory
// lookups. Events denormalize patient and doctor display data, so every
// mutation resolves users; caching keeps those lookups off the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/hospital/services/scheduling/internal/domain"
	"example.com/hospital/services/scheduling/internal/repository"
)

// UserCacheConfig configures the Redis connection and entry lifetime.
type UserCacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CachedUserDirectory decorates a UserDirectory with a Redis read-through
// cache on FindByID. Writes invalidate the cached entry; all other calls
// pass straight through.
type CachedUserDirectory struct {
	next   repository.UserDirectory
	client *redis.Client
	ttl    time.Duration
}

// NewCachedUserDirectory connects to Redis and wraps the directory.
func NewCachedUserDirectory(next repository.UserDirectory, cfg UserCacheConfig) (*CachedUserDirectory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &CachedUserDirectory{next: next, client: client, ttl: cfg.TTL}, nil
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// FindByID serves from cache when possible, falling back to the wrapped
// directory and caching the result. Cache failures degrade to a plain
// lookup.
func (c *CachedUserDirectory) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	key := userCacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var user domain.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
	}

	user, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(user); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache user")
		}
	}

	return user, nil
}

// Save writes through and drops the cached entry.
func (c *CachedUserDirectory) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := c.next.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := c.client.Del(ctx, userCacheKey(saved.ID)).Err(); err != nil {
		log.Warn().Err(err).Uint("user_id", saved.ID).Msg("Failed to invalidate cached user")
	}
	return saved, nil
}

// FindByEmail passes through to the wrapped directory.
func (c *CachedUserDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return c.next.FindByEmail(ctx, email)
}

// FindActive passes through to the wrapped directory.
func (c *CachedUserDirectory) FindActive(ctx context.Context) ([]domain.User, error) {
	return c.next.FindActive(ctx)
}

// ExistsByEmail passes through to the wrapped directory.
func (c *CachedUserDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return c.next.ExistsByEmail(ctx, email)
}

// Close closes the Redis connection.
func (c *CachedUserDirectory) Close() error {
	return c.client.Close()
}
