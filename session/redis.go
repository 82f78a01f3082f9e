package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/guardkit/guard"
)

const redisKeyPrefix = "guard:session:"

// Redis stores sessions as redis hashes, one per session identifier. The
// caller owns the session cookie: it passes the identifier into Bind and,
// after the request, persists Session.ID() back into the cookie (Renew
// rotates the identifier).
type Redis struct {
	client   *redis.Client
	lifetime time.Duration
}

func NewRedis(client *redis.Client, lifetime time.Duration) *Redis {
	return &Redis{client: client, lifetime: lifetime}
}

// Bind returns the session view for the given identifier. An empty id
// starts a fresh session.
func (r *Redis) Bind(ctx context.Context, id string) *RedisSession {
	if id == "" {
		id = uuid.NewString()
	}
	return &RedisSession{store: r, ctx: ctx, id: id}
}

// RedisSession implements guard.Session over a single redis hash. Values
// are stored as strings; the schemes coerce on read.
type RedisSession struct {
	store *Redis
	ctx   context.Context
	id    string

	// OnChange, when set, is invoked with the new identifier every time
	// Renew rotates it, so the caller can update the session cookie.
	OnChange func(id string)
}

var _ guard.Session = (*RedisSession)(nil)

// ID returns the current session identifier. Callers persist it into the
// session cookie after the request completes.
func (s *RedisSession) ID() string {
	return s.id
}

func (s *RedisSession) Get(key string) (any, bool) {
	v, err := s.store.client.HGet(s.ctx, s.key(), key).Result()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (s *RedisSession) Put(key string, value any) {
	pipe := s.store.client.TxPipeline()
	pipe.HSet(s.ctx, s.key(), key, fmt.Sprint(value))
	pipe.Expire(s.ctx, s.key(), s.store.lifetime)
	_, _ = pipe.Exec(s.ctx)
}

// Renew rotates the session identifier, carrying existing data over.
func (s *RedisSession) Renew() error {
	next := uuid.NewString()
	exists, err := s.store.client.Exists(s.ctx, s.key()).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		if err := s.store.client.Rename(s.ctx, s.key(), redisKeyPrefix+next).Err(); err != nil {
			return err
		}
	}
	s.id = next
	if s.OnChange != nil {
		s.OnChange(next)
	}
	return nil
}

func (s *RedisSession) Destroy() error {
	return s.store.client.Del(s.ctx, s.key()).Err()
}

func (s *RedisSession) key() string {
	return redisKeyPrefix + s.id
}
