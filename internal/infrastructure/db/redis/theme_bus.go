package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/salonbook/webapp/internal/core/domain"
)

// ThemeBus carries the theme updated signal over Redis pub/sub so every
// replica serving a browser sees it.
// Channel format: <prefix>:businessThemeUpdated:<session_id>
type ThemeBus struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewThemeBus creates a ThemeBus wrapping the given Redis client.
func NewThemeBus(client *redis.Client, prefix string, log zerolog.Logger) *ThemeBus {
	return &ThemeBus{client: client, prefix: prefix, log: log}
}

func (b *ThemeBus) channel(sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, domain.ThemeUpdatedSignal, sessionID)
}

// Broadcast publishes a payload-free signal.
func (b *ThemeBus) Broadcast(ctx context.Context, sessionID string) error {
	if err := b.client.Publish(ctx, b.channel(sessionID), domain.ThemeUpdatedSignal).Err(); err != nil {
		return fmt.Errorf("theme publish: %w", err)
	}
	return nil
}

// Subscribe listens for signals until ctx ends or cancel is called. Bursts
// coalesce into a single pending value.
func (b *ThemeBus) Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func()) {
	ps := b.client.Subscribe(ctx, b.channel(sessionID))
	if _, err := ps.Receive(ctx); err != nil {
		b.log.Warn().Err(err).Str("session_id", sessionID).Msg("theme subscribe failed")
	}

	out := make(chan struct{}, 1)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-stop:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, cancel
}
