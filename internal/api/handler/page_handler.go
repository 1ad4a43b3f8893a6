package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salonbook/webapp/internal/api/middleware"
	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/service"
)

// PageHandler serves page descriptors. Markup is rendered client side.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Home sends the visitor to the dashboard of their role.
//
// @Summary      Role redirect
// @Tags         pages
// @Success      302
// @Success      202  {object}  middleware.LoadingResponse
// @Router       / [get]
// @Router       /dashboard [get]
func (h *PageHandler) Home(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	return middleware.Apply(c, middleware.GuardResolver, service.ResolveRole(session.State()), nil)
}

// Login describes the login page.
//
// @Summary      Login page
// @Tags         pages
// @Produce      json
// @Param        from  query     string  false  "Page to return to after login"
// @Success      200   {object}  pageResponse
// @Router       /login [get]
func (h *PageHandler) Login(c echo.Context) error {
	resp := pageResponse{Page: "login"}
	if from := c.QueryParam(domain.ReturnToParam); domain.SafeReturnPath(from) {
		resp.Params = map[string]string{domain.ReturnToParam: from}
	}
	return c.JSON(http.StatusOK, resp)
}

// Register describes the registration page.
//
// @Summary      Registration page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /register [get]
func (h *PageHandler) Register(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Page: "register"})
}

// ChangePassword describes the forced password change page.
//
// @Summary      Change password page
// @Tags         pages
// @Produce      json
// @Param        email  query     string  false  "Account that must change its password"
// @Success      200    {object}  pageResponse
// @Router       /change-password [get]
func (h *PageHandler) ChangePassword(c echo.Context) error {
	resp := pageResponse{Page: "change-password"}
	if email := c.QueryParam("email"); email != "" {
		resp.Params = map[string]string{"email": email}
	}
	return c.JSON(http.StatusOK, resp)
}

// Dashboard describes the dashboard of role. Access is enforced by the
// RequireAuth guard on the route.
func (h *PageHandler) Dashboard(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := ctxSession(c)
		if err != nil {
			return err
		}

		st := session.State()
		resp := pageResponse{
			Page:     "dashboard",
			Role:     role,
			User:     st.User,
			Business: st.Business,
		}
		if theme, ok := domain.ThemeFromBusiness(st.Business); ok {
			resp.Theme = &theme
		}
		return c.JSON(http.StatusOK, resp)
	}
}
