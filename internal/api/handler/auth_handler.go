package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/salonbook/webapp/internal/core/domain"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Login authenticates the browser's session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Failure      502   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	payload, err := session.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	resp := authResponseFrom(payload)
	if payload.Code == domain.CodePasswordChangeRequired {
		target := domain.RouteChangePassword + "?" + url.Values{"email": {req.Email}}.Encode()
		return respondNavigate(c, http.StatusOK, resp, target)
	}

	target := domain.DashboardFor(payload.User.Role)
	if domain.SafeReturnPath(req.From) {
		target = req.From
	}
	return respondNavigate(c, http.StatusOK, resp, target)
}

// Register creates an account and logs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.RegisterInput  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Failure      502   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var in domain.RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&in); err != nil {
		return err
	}

	payload, err := session.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respondNavigate(c, http.StatusCreated, authResponseFrom(payload), navigationTarget(c))
}

// Logout ends the session on this browser.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	session.Logout(c.Request().Context())
	return respondNavigate(c, http.StatusOK, &logoutResponse{Status: "logged_out"}, navigationTarget(c))
}

// Me returns the current session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      302
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponseFrom(session.State()))
}

// UpdateProfile applies a partial profile update.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ProfileUpdate  true  "Fields to change"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&update); err != nil {
		return err
	}

	user, err := session.UpdateUser(c.Request().Context(), update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{Code: domain.CodeProfileUpdated, User: user})
}

// RefreshBusiness re-reads the business and its theme from the backend.
//
// @Summary      Refresh business
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/business/refresh [post]
func (h *AuthHandler) RefreshBusiness(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	session.RefreshBusiness(c.Request().Context())
	return c.JSON(http.StatusOK, sessionResponseFrom(session.State()))
}
