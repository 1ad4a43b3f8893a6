package service

import "github.com/salonbook/webapp/internal/core/domain"

// GuardAction is what a guard wants done with a navigation.
type GuardAction int

const (
	ActionRender GuardAction = iota
	// ActionPlaceholder shows a loading view while the session bootstraps.
	ActionPlaceholder
	ActionRedirect
)

func (a GuardAction) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionPlaceholder:
		return "placeholder"
	case ActionRedirect:
		return "redirect"
	}
	return "unknown"
}

// GuardDecision is the outcome of a guard. Target is set for ActionRedirect.
type GuardDecision struct {
	Action GuardAction
	Target string
}

func render() GuardDecision      { return GuardDecision{Action: ActionRender} }
func placeholder() GuardDecision { return GuardDecision{Action: ActionPlaceholder} }

func redirect(target string) GuardDecision {
	return GuardDecision{Action: ActionRedirect, Target: target}
}

// EvaluateProtected gates a route that needs a session. An empty allowed list
// admits any authenticated role.
func EvaluateProtected(state domain.SessionState, path string, allowed ...domain.Role) GuardDecision {
	if state.Loading {
		return placeholder()
	}
	if state.User == nil {
		return redirect(domain.LoginRedirect(path))
	}
	if len(allowed) == 0 {
		return render()
	}
	for _, r := range allowed {
		if r == state.User.Role {
			return render()
		}
	}
	return redirect(domain.DashboardFor(state.User.Role))
}

// EvaluateGuest gates login and registration pages. A user whose role maps
// back onto the current path is shown the page instead of looping.
func EvaluateGuest(state domain.SessionState, path string) GuardDecision {
	if state.Loading {
		return placeholder()
	}
	if state.User == nil {
		return render()
	}
	target := domain.DashboardFor(state.User.Role)
	if target == path {
		return render()
	}
	return redirect(target)
}

// ResolveRole sends a visitor of the generic landing route to the dashboard of
// their role, or to login.
func ResolveRole(state domain.SessionState) GuardDecision {
	if state.Loading {
		return placeholder()
	}
	if state.User == nil {
		return redirect(domain.RouteLogin)
	}
	return redirect(domain.DashboardFor(state.User.Role))
}
