// Package memory holds the single-process storage backend used in
// development and when no Redis is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
)

// StorageBackend keeps credential records in a process-local cache.
// Records are lost on restart.
type StorageBackend struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewStorageBackend creates a StorageBackend. A zero ttl keeps entries forever.
func NewStorageBackend(ttl time.Duration) *StorageBackend {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &StorageBackend{items: cache.New(ttl, 10*time.Minute)}
}

func (b *StorageBackend) Scope(sessionID string) ports.Storage {
	return &sessionStorage{backend: b, prefix: sessionID + ":"}
}

type sessionStorage struct {
	backend *StorageBackend
	prefix  string
}

func (s *sessionStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	v, ok := s.backend.items.Get(s.prefix + key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Apply holds the backend lock for the whole batch so readers never see a
// partial record. Any write re-arms the expiry of every record entry.
func (s *sessionStorage) Apply(_ context.Context, set map[string]string, del []string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	for _, k := range del {
		s.backend.items.Delete(s.prefix + k)
	}
	for k, v := range set {
		s.backend.items.SetDefault(s.prefix+k, v)
	}
	if len(set) > 0 {
		s.touchRecord(set)
	}
	return nil
}

// touchRecord re-sets the record entries not in written. go-cache has no
// way to extend an expiry in place.
func (s *sessionStorage) touchRecord(written map[string]string) {
	for _, k := range domain.SessionKeys {
		if _, ok := written[k]; ok {
			continue
		}
		if v, ok := s.backend.items.Get(s.prefix + k); ok {
			s.backend.items.SetDefault(s.prefix+k, v)
		}
	}
}

func (s *sessionStorage) Token(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, domain.KeyToken)
	return v, err
}
