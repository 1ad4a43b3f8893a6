package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
)

// StorageBackend keeps each browser's credential record in Redis.
// Key format: <prefix>:storage:<session_id>:<key>
type StorageBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStorageBackend creates a StorageBackend. A zero ttl keeps entries forever.
func NewStorageBackend(client *redis.Client, prefix string, ttl time.Duration) *StorageBackend {
	return &StorageBackend{client: client, prefix: prefix, ttl: ttl}
}

// Scope returns the storage namespace of one browser session.
func (b *StorageBackend) Scope(sessionID string) ports.Storage {
	return &sessionStorage{backend: b, sessionID: sessionID}
}

type sessionStorage struct {
	backend   *StorageBackend
	sessionID string
}

func (s *sessionStorage) key(k string) string {
	return fmt.Sprintf("%s:storage:%s:%s", s.backend.prefix, s.sessionID, k)
}

func (s *sessionStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.backend.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage get %s: %w", key, err)
	}
	return v, true, nil
}

// Apply runs all writes and deletes inside one MULTI/EXEC transaction. Any
// write also pushes the expiry of the rest of the record forward, so the
// four entries always share one deadline.
func (s *sessionStorage) Apply(ctx context.Context, set map[string]string, del []string) error {
	if len(set) == 0 && len(del) == 0 {
		return nil
	}

	_, err := s.backend.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(del) > 0 {
			keys := make([]string, len(del))
			for i, k := range del {
				keys[i] = s.key(k)
			}
			pipe.Del(ctx, keys...)
		}
		for k, v := range set {
			pipe.Set(ctx, s.key(k), v, s.backend.ttl)
		}
		if len(set) > 0 && s.backend.ttl > 0 {
			for _, k := range domain.SessionKeys {
				if _, ok := set[k]; !ok {
					pipe.PExpire(ctx, s.key(k), s.backend.ttl)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage apply: %w", err)
	}
	return nil
}

func (s *sessionStorage) Token(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, domain.KeyToken)
	return v, err
}
