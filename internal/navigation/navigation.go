// Package navigation lets session operations ask for a client-side route
// change. The HTTP layer opens a slot per request and turns whatever was
// requested into a redirect once the handler returns.
package navigation

import (
	"context"
	"sync"
)

type ctxKey struct{}

type slot struct {
	mu     sync.Mutex
	target string
}

// WithNavigation returns a context carrying an empty navigation slot.
func WithNavigation(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &slot{})
}

// Target returns the last route requested within ctx.
func Target(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxKey{}).(*slot)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.target != ""
}

// Navigator implements ports.Navigator. Requests outside a slot are ignored.
type Navigator struct{}

func (Navigator) Navigate(ctx context.Context, path string) {
	s, ok := ctx.Value(ctxKey{}).(*slot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = path
}
