// Package broadcast fans the payload-free theme updated signal out to the
// live subscribers of one browser session inside a single process.
package broadcast

import (
	"context"
	"sync"
)

// Hub is an in-process ports.ThemeBroadcaster. Each subscriber owns a
// one-slot channel; bursts coalesce into one pending signal.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Broadcast signals every subscriber of sessionID without blocking.
func (h *Hub) Broadcast(_ context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[sessionID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener released by cancel or when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

// Subscribers returns the number of live subscribers of sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
