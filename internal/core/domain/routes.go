package domain

import (
	"net/url"
	"strings"
)

const (
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteDashboard      = "/dashboard"
	RouteChangePassword = "/change-password"

	// RouteUnknownRole is where every unmapped role ends up.
	RouteUnknownRole = RouteLogin

	// ReturnToParam carries the attempted location through the login page.
	ReturnToParam = "from"
)

// dashboards is the one role → canonical dashboard table. Both guards and the
// role redirect resolver read it through DashboardFor.
var dashboards = map[Role]string{
	RoleAdmin:         "/admin/dashboard",
	RoleBusinessOwner: "/business-owner/dashboard",
	RoleStaff:         "/staff/dashboard",
	RoleClient:        "/client/dashboard",
}

// DashboardFor returns the canonical dashboard for role, or RouteUnknownRole.
func DashboardFor(role Role) string {
	if p, ok := dashboards[role]; ok {
		return p
	}
	return RouteUnknownRole
}

// Dashboards returns a copy of the dashboard table.
func Dashboards() map[Role]string {
	out := make(map[Role]string, len(dashboards))
	for r, p := range dashboards {
		out[r] = p
	}
	return out
}

// LoginRedirect builds the login URL that bounces back to from after login.
func LoginRedirect(from string) string {
	if from == "" || from == RouteLogin {
		return RouteLogin
	}
	return RouteLogin + "?" + url.Values{ReturnToParam: {from}}.Encode()
}

// SafeReturnPath reports whether p may be used as a post-login bounce-back
// target: a local absolute path that cannot be read as a scheme-relative URL.
func SafeReturnPath(p string) bool {
	if p == "" || !strings.HasPrefix(p, "/") {
		return false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	return p != RouteLogin && p != RouteRegister
}
