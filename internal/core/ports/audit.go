package ports

import (
	"context"

	"github.com/salonbook/webapp/internal/core/domain"
)

// SessionAuditor records session events. Record must not block the caller.
type SessionAuditor interface {
	Record(event domain.SessionEvent)
}

// SessionEventRepository persists audit events.
type SessionEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}
