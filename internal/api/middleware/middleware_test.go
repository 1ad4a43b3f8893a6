package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
	"github.com/salonbook/webapp/internal/navigation"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSession struct {
	state   domain.SessionState
	ready   chan struct{}
	started int
	logout  func(ctx context.Context)
}

func newStubSession(state domain.SessionState) *stubSession {
	ready := make(chan struct{})
	close(ready)
	return &stubSession{state: state, ready: ready}
}

func (s *stubSession) State() domain.SessionState      { return s.state }
func (s *stubSession) Start(context.Context)           { s.started++ }
func (s *stubSession) Ready() <-chan struct{}          { return s.ready }
func (s *stubSession) Bootstrap(context.Context)       {}
func (s *stubSession) RefreshBusiness(context.Context) {}

func (s *stubSession) Login(context.Context, string, string) (*domain.AuthPayload, error) {
	return nil, nil
}

func (s *stubSession) Register(context.Context, domain.RegisterInput) (*domain.AuthPayload, error) {
	return nil, nil
}

func (s *stubSession) Logout(ctx context.Context) {
	if s.logout != nil {
		s.logout(ctx)
	}
}

func (s *stubSession) UpdateUser(context.Context, domain.ProfileUpdate) (*domain.User, error) {
	return nil, nil
}

type stubProvider struct {
	sessions map[string]*stubSession
	fallback *stubSession
	asked    []string
}

func (p *stubProvider) Session(id string) ports.SessionService {
	p.asked = append(p.asked, id)
	if s, ok := p.sessions[id]; ok {
		return s
	}
	return p.fallback
}

func withSession(c echo.Context, s ports.SessionService) {
	c.Set(ctxSession, s)
}

func userState(role domain.Role) domain.SessionState {
	return domain.SessionState{User: &domain.User{ID: "u-1", Role: role}}
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

func TestSession_IssuesCookieForNewBrowser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sess := newStubSession(domain.SessionState{})
	provider := &stubProvider{fallback: sess}

	handler := Session(provider, SessionOptions{CookieName: "sid"})(func(c echo.Context) error {
		if got, ok := SessionFrom(c); !ok || got != sess {
			t.Fatalf("session not bound")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || !cookies[0].HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookies)
	}
	if _, err := uuid.Parse(cookies[0].Value); err != nil {
		t.Fatalf("session id must be a uuid: %v", err)
	}
	if provider.asked[0] != cookies[0].Value || sess.started != 1 {
		t.Fatalf("store not resolved/started for the new id")
	}
}

func TestSession_ReusesValidCookie(t *testing.T) {
	sid := uuid.NewString()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	provider := &stubProvider{sessions: map[string]*stubSession{sid: newStubSession(domain.SessionState{})}}

	handler := Session(provider, SessionOptions{CookieName: "sid"})(func(c echo.Context) error {
		if SessionID(c) != sid {
			t.Fatalf("unexpected session id %q", SessionID(c))
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("valid cookie must not be reissued")
	}
}

func TestSession_RejectsForgedCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	provider := &stubProvider{fallback: newStubSession(domain.SessionState{})}
	handler := Session(provider, SessionOptions{CookieName: "sid"})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)

	if provider.asked[0] == "../../etc" {
		t.Fatal("malformed session id must be replaced")
	}
}

func TestSession_WaitIsBounded(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sess := &stubSession{state: domain.SessionState{Loading: true}, ready: make(chan struct{})}
	handler := Session(&stubProvider{fallback: sess}, SessionOptions{BootstrapWait: 20 * time.Millisecond})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	start := time.Now()
	_ = handler(c)
	if time.Since(start) > time.Second {
		t.Fatal("request waited past the bootstrap bound")
	}
}

func TestSession_FollowsNavigationRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sess := newStubSession(userState(domain.RoleClient))
	sess.logout = func(ctx context.Context) { navigation.Navigator{}.Navigate(ctx, domain.RouteLogin) }

	handler := Session(&stubProvider{fallback: sess}, SessionOptions{})(func(c echo.Context) error {
		sess.Logout(c.Request().Context())
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != domain.RouteLogin {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

// ---------------------------------------------------------------------------
// Guards
// ---------------------------------------------------------------------------

func TestRequireAuth_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withSession(c, newStubSession(userState(domain.RoleAdmin)))

	called := false
	handler := RequireAuth(domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next handler with 200, got called=%v code=%d", called, rec.Code)
	}
}

func TestRequireAuth_AnonymousGoesToLogin(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/staff/dashboard?tab=today", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withSession(c, newStubSession(domain.SessionState{}))

	handler := RequireAuth(domain.RoleStaff)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	_ = handler(c)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get(echo.HeaderLocation)
	if !strings.HasPrefix(loc, "/login?from=") || !strings.Contains(loc, "tab%3Dtoday") {
		t.Fatalf("expected login with return path, got %q", loc)
	}
}

func TestRequireAuth_WrongRoleGoesToOwnDashboard(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set(headerHXRequest, "true")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withSession(c, newStubSession(userState(domain.RoleClient)))

	handler := RequireAuth(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	_ = handler(c)

	if rec.Header().Get(headerHXRedirect) != "/client/dashboard" {
		t.Fatalf("expected HX-Redirect to client dashboard, got %q", rec.Header().Get(headerHXRedirect))
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for htmx redirect, got %d", rec.Code)
	}
}

func TestRequireAuth_LoadingShowsPlaceholder(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/client/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withSession(c, newStubSession(domain.SessionState{Loading: true}))

	handler := RequireAuth()(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	_ = handler(c)

	if rec.Code != http.StatusAccepted || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 202 placeholder, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"loading"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRequireAuth_WithoutSessionMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := RequireAuth()(func(echo.Context) error { return nil })(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 HTTPError, got %v", err)
	}
}

func TestGuestOnly(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.SessionState
		path     string
		wantCode int
		wantLoc  string
	}{
		{"anonymous renders", domain.SessionState{}, "/login", http.StatusOK, ""},
		{"owner redirected", userState(domain.RoleBusinessOwner), "/login", http.StatusFound, "/business-owner/dashboard"},
		{"unknown role on login renders", userState(domain.Role("ghost")), "/login", http.StatusOK, ""},
		{"loading placeholder", domain.SessionState{Loading: true}, "/register", http.StatusAccepted, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tc.path, nil), rec)
			withSession(c, newStubSession(tc.state))

			_ = GuestOnly()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			if got := rec.Header().Get(echo.HeaderLocation); got != tc.wantLoc {
				t.Fatalf("expected location %q, got %q", tc.wantLoc, got)
			}
		})
	}
}
