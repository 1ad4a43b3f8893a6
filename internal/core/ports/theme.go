package ports

import "context"

// ThemeBroadcaster carries the payload-free "business theme updated" signal
// for one browser session.
type ThemeBroadcaster interface {
	Broadcast(ctx context.Context, sessionID string) error
	// Subscribe returns a channel that receives one value per signal (signals
	// may coalesce) and a cancel func releasing the subscription.
	Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func())
}
