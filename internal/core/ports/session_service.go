package ports

import (
	"context"

	"github.com/salonbook/webapp/internal/core/domain"
)

// SessionService is the per-browser session store used by handlers and guards.
type SessionService interface {
	State() domain.SessionState
	// Start runs Bootstrap once in the background; Ready is closed when it ends.
	Start(ctx context.Context)
	Ready() <-chan struct{}
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, email, password string) (*domain.AuthPayload, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthPayload, error)
	Logout(ctx context.Context)
	UpdateUser(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error)
	RefreshBusiness(ctx context.Context)
}

// SessionProvider resolves the session store of a browser session id.
type SessionProvider interface {
	Session(sessionID string) SessionService
}
