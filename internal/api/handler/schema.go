package handler

import "github.com/salonbook/webapp/internal/core/domain"

// navigable is implemented by responses that may carry a route change.
type navigable interface {
	setRedirect(target string)
}

type loginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	// From is the page the visitor was bounced from by the auth guard.
	From string `json:"from,omitempty" form:"from" query:"from"`
}

// authResponse never carries the bearer token; it stays in server-side storage.
type authResponse struct {
	Code     string           `json:"code,omitempty" example:"LOGIN_SUCCESS"`
	Message  string           `json:"message,omitempty"`
	User     *domain.User     `json:"user,omitempty"`
	Business *domain.Business `json:"business,omitempty"`
	Redirect string           `json:"redirect,omitempty" example:"/business-owner/dashboard"`
}

func (r *authResponse) setRedirect(target string) { r.Redirect = target }

func authResponseFrom(p *domain.AuthPayload) *authResponse {
	return &authResponse{Code: p.Code, Message: p.Message, User: p.User, Business: p.Business}
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Loading       bool             `json:"loading"`
	User          *domain.User     `json:"user,omitempty"`
	Business      *domain.Business `json:"business,omitempty"`
	Dashboard     string           `json:"dashboard,omitempty" example:"/staff/dashboard"`
}

func sessionResponseFrom(st domain.SessionState) sessionResponse {
	resp := sessionResponse{
		Authenticated: st.Authenticated(),
		Loading:       st.Loading,
		User:          st.User,
		Business:      st.Business,
	}
	if st.User != nil {
		resp.Dashboard = domain.DashboardFor(st.User.Role)
	}
	return resp
}

type logoutResponse struct {
	Status   string `json:"status" example:"logged_out"`
	Redirect string `json:"redirect,omitempty" example:"/login"`
}

func (r *logoutResponse) setRedirect(target string) { r.Redirect = target }

type profileResponse struct {
	Code string       `json:"code" example:"PROFILE_UPDATED"`
	User *domain.User `json:"user"`
}

// pageResponse describes a page for the client renderer.
type pageResponse struct {
	Page     string                `json:"page" example:"dashboard"`
	Role     domain.Role           `json:"role,omitempty"`
	User     *domain.User          `json:"user,omitempty"`
	Business *domain.Business      `json:"business,omitempty"`
	Theme    *domain.ThemeSnapshot `json:"theme,omitempty"`
	Params   map[string]string     `json:"params,omitempty"`
}

