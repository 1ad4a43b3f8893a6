package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salonbook/webapp/internal/api/metrics"
	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/service"
)

const (
	GuardProtected = "protected"
	GuardGuest     = "guest"
	GuardResolver  = "resolver"

	headerHXRequest  = "HX-Request"
	headerHXRedirect = "HX-Redirect"
)

// LoadingResponse is served while the session is still bootstrapping.
type LoadingResponse struct {
	Status string `json:"status" example:"loading"`
}

// RequireAuth admits authenticated users whose role is in allowedRoles. With
// no roles every authenticated user is admitted.
func RequireAuth(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := append([]domain.Role(nil), allowedRoles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, ok := SessionFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
			}
			d := service.EvaluateProtected(store.State(), c.Request().URL.RequestURI(), allowed...)
			return Apply(c, GuardProtected, d, next)
		}
	}
}

// GuestOnly keeps authenticated users away from login and registration.
func GuestOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, ok := SessionFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
			}
			d := service.EvaluateGuest(store.State(), c.Request().URL.Path)
			return Apply(c, GuardGuest, d, next)
		}
	}
}

// Apply carries out a guard decision. next may be nil when render has
// nothing further to do.
func Apply(c echo.Context, guard string, d service.GuardDecision, next echo.HandlerFunc) error {
	metrics.GuardDecisionsTotal.WithLabelValues(guard, d.Action.String()).Inc()

	switch d.Action {
	case service.ActionPlaceholder:
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusAccepted, LoadingResponse{Status: "loading"})
	case service.ActionRedirect:
		return Redirect(c, d.Target)
	}
	if next == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return next(c)
}

// Redirect sends the browser to target. htmx requests get an HX-Redirect
// header instead of a 302 so the client swaps the whole page.
func Redirect(c echo.Context, target string) error {
	if c.Request().Header.Get(headerHXRequest) == "true" {
		c.Response().Header().Set(headerHXRedirect, target)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusFound, target)
}
