package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salonbook/webapp/internal/api/middleware"
	"github.com/salonbook/webapp/internal/core/ports"
	"github.com/salonbook/webapp/internal/navigation"
)

// ctxSession extracts the session store bound by the Session middleware.
// Its absence is a wiring bug, not a client error.
func ctxSession(c echo.Context) (ports.SessionService, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not bound")
	}
	return s, nil
}

// respondNavigate answers a state-changing request that ends in a route
// change: htmx gets HX-Redirect, JSON clients get body with the target, and
// plain form posts get a 303.
func respondNavigate(c echo.Context, status int, body navigable, target string) error {
	if target == "" {
		return c.JSON(status, body)
	}
	body.setRedirect(target)

	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", target)
		return c.JSON(status, body)
	}
	if wantsJSON(c) {
		return c.JSON(status, body)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// navigationTarget returns the route the session asked for during this request.
func navigationTarget(c echo.Context) string {
	target, _ := navigation.Target(c.Request().Context())
	return target
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
