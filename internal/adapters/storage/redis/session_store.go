// Package redis keeps session histories in Redis lists so several API
// replicas can share them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

const (
	keyPrefix  = "bytebot:session:"
	maxRetries = 5
)

// Config holds configuration for the Redis connection
type Config struct {
	Addr     string
	Password string
	DB       int
	// TTL is the idle expiry of a session; refreshed on every write.
	TTL time.Duration
}

// SessionStore implements domain.SessionStore on Redis lists, one list of
// JSON-encoded messages per user.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore connects and pings Redis.
func NewSessionStore(ctx context.Context, cfg Config) (*SessionStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &SessionStore{rdb: rdb, ttl: cfg.TTL}, nil
}

func (s *SessionStore) Close() error {
	return s.rdb.Close()
}

func (s *SessionStore) key(userID domain.UserID) string {
	return keyPrefix + string(userID)
}

func (s *SessionStore) GetOrCreate(ctx context.Context, userID domain.UserID, system domain.Message) ([]domain.Message, error) {
	key := s.key(userID)

	var out []domain.Message
	txf := func(tx *redis.Tx) error {
		raw, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}

		if len(raw) == 0 {
			out = []domain.Message{system}
			return s.replace(ctx, tx, key, out)
		}

		msgs, err := decode(raw)
		if err != nil {
			return err
		}
		out = domain.TrimHistory(msgs)
		if len(out) == len(msgs) {
			return s.touch(ctx, tx, key)
		}
		return s.replace(ctx, tx, key, out)
	}

	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("redis GetOrCreate: %w", err)
	}
	return nil, fmt.Errorf("redis GetOrCreate: %w", redis.TxFailedErr)
}

func (s *SessionStore) Append(ctx context.Context, userID domain.UserID, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	key := s.key(userID)

	values, err := encode(msgs)
	if err != nil {
		return err
	}

	var pushed *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		pushed = p.RPushX(ctx, key, values...)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis Append: %w", err)
	}
	if pushed.Val() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) replace(ctx context.Context, tx *redis.Tx, key string, msgs []domain.Message) error {
	values, err := encode(msgs)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.RPush(ctx, key, values...)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *SessionStore) touch(ctx context.Context, tx *redis.Tx, key string) error {
	if s.ttl <= 0 {
		return nil
	}
	return tx.Expire(ctx, key, s.ttl).Err()
}

func encode(msgs []domain.Message) ([]any, error) {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode message: %w", err)
		}
		out = append(out, string(b))
	}
	return out, nil
}

func decode(raw []string) ([]domain.Message, error) {
	out := make([]domain.Message, 0, len(raw))
	for _, r := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
