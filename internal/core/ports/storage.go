package ports

import "context"

// Storage is one browser's durable key/value namespace.
type Storage interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Apply writes set and removes del as a single unit: either every change
	// is visible afterwards or none is. A write re-arms the expiry of every
	// credential record entry, so the entries expire together.
	Apply(ctx context.Context, set map[string]string, del []string) error
	// Token returns the stored bearer token, "" when absent.
	Token(ctx context.Context) (string, error)
}

// StorageBackend hands out storage namespaces per browser session.
type StorageBackend interface {
	Scope(sessionID string) Storage
}
