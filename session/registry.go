package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrRedisUnavailable wraps every backend failure observed by [Registry.Active].
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultPrefix is the key namespace used when NewRegistry receives an empty prefix.
const DefaultPrefix = "refresh"

// Registry records, per account, the session id of the single refresh token that may
// still be exchanged. Every SetActive overwrites the previous value (last write wins).
//
// Reads fail closed and writes fail open: an unreachable store makes every session
// inactive, while a failed write is logged and otherwise ignored.
type Registry struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewRegistry returns a Registry storing `<prefix>:<username>` keys that expire after ttl.
func NewRegistry(client redis.UniversalClient, prefix string, ttl time.Duration, logger logrus.FieldLogger) *Registry {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Registry) key(username string) string {
	return r.prefix + ":" + username
}

// SetActive makes sessionID the only active session for username.
func (r *Registry) SetActive(ctx context.Context, username, sessionID string) {
	if username == "" || sessionID == "" {
		return
	}
	if err := r.redis.Set(ctx, r.key(username), sessionID, r.ttl).Err(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"op":       "session.set_active",
			"username": username,
		}).WithError(err).Warn("projectauth: session registry write failed")
	}
}

// IsActive reports whether sessionID is the current session for username. Any backend
// error reports false.
func (r *Registry) IsActive(ctx context.Context, username, sessionID string) bool {
	current, ok, err := r.Active(ctx, username)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"op":       "session.is_active",
			"username": username,
		}).WithError(err).Warn("projectauth: session registry read failed")
		return false
	}
	return ok && sessionID != "" && current == sessionID
}

// Active returns the current session id for username, if any.
func (r *Registry) Active(ctx context.Context, username string) (string, bool, error) {
	if username == "" {
		return "", false, nil
	}
	current, err := r.redis.Get(ctx, r.key(username)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return current, true, nil
}

// Revoke clears the active session for username. Revoking an account with no session
// is a no-op.
func (r *Registry) Revoke(ctx context.Context, username string) {
	if username == "" {
		return
	}
	if err := r.redis.Del(ctx, r.key(username)).Err(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"op":       "session.revoke",
			"username": username,
		}).WithError(err).Warn("projectauth: session registry delete failed")
	}
}

// Ping reports whether the backing store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
