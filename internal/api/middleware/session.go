package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonbook/webapp/internal/core/ports"
	"github.com/salonbook/webapp/internal/navigation"
)

const (
	ctxSession   = "session"
	ctxSessionID = "session_id"
)

// SessionOptions configures the browser session cookie.
type SessionOptions struct {
	CookieName string
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// BootstrapWait bounds how long a request waits for a fresh store to
	// finish bootstrapping.
	BootstrapWait time.Duration
}

// Session binds the request to its browser's session store. A missing or
// malformed session cookie gets a fresh id.
func Session(provider ports.SessionProvider, opts SessionOptions) echo.MiddlewareFunc {
	if opts.CookieName == "" {
		opts.CookieName = "salon_sid"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := sessionCookie(c, opts.CookieName)
			if sid == "" {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     opts.CookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			req := c.Request()
			ctx := navigation.WithNavigation(req.Context())
			c.SetRequest(req.WithContext(ctx))

			store := provider.Session(sid)
			store.Start(ctx)
			waitReady(c, store, opts.BootstrapWait)

			c.Set(ctxSessionID, sid)
			c.Set(ctxSession, store)

			if err := next(c); err != nil {
				return err
			}
			if target, ok := navigation.Target(ctx); ok && !c.Response().Committed {
				return Redirect(c, target)
			}
			return nil
		}
	}
}

func sessionCookie(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(ck.Value); err != nil {
		return ""
	}
	return ck.Value
}

func waitReady(c echo.Context, store ports.SessionService, wait time.Duration) {
	if wait <= 0 {
		return
	}
	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-store.Ready():
	case <-t.C:
	case <-c.Request().Context().Done():
	}
}

// SessionFrom returns the session store bound by Session.
func SessionFrom(c echo.Context) (ports.SessionService, bool) {
	s, ok := c.Get(ctxSession).(ports.SessionService)
	return s, ok
}

// SessionID returns the browser session id bound by Session.
func SessionID(c echo.Context) string {
	sid, _ := c.Get(ctxSessionID).(string)
	return sid
}
