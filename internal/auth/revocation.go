package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records token IDs that were logged out before expiring.
// *store.SQLStore implements it on the revoked_tokens table.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

const defaultRedisPrefix = "inventario:revoked:"

// RedisRevocationList keeps revoked token IDs in Redis, each key expiring
// together with its token.
type RedisRevocationList struct {
	client redisClient
	prefix string
}

// redisClient is the part of *redis.Client the revocation list uses.
type redisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisRevocationList connects to Redis and checks the connection.
func NewRedisRevocationList(ctx context.Context, cfg RedisConfig) (*RedisRevocationList, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return newRedisRevocationList(client, cfg.Prefix), nil
}

func newRedisRevocationList(client redisClient, prefix string) *RedisRevocationList {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRevocationList{client: client, prefix: prefix}
}

// RevokeToken stores jti until expiresAt. Already expired tokens are not stored.
func (l *RedisRevocationList) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.prefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether jti has been revoked.
func (l *RedisRevocationList) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	err := l.client.Get(ctx, l.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return true, nil
}

// Close closes the Redis connection.
func (l *RedisRevocationList) Close() error {
	return l.client.Close()
}
