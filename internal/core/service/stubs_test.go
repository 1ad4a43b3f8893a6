package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/salonbook/webapp/internal/apiclient"
	"github.com/salonbook/webapp/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type apiCall struct {
	Method string
	Path   string
	Body   any
}

type stubAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	handle func(method, path string, body any) (*apiclient.Response, error)
}

func (a *stubAPI) do(method, path string, body any) (*apiclient.Response, error) {
	a.mu.Lock()
	a.calls = append(a.calls, apiCall{Method: method, Path: path, Body: body})
	a.mu.Unlock()
	if a.handle == nil {
		return nil, errors.New("unexpected call " + method + " " + path)
	}
	return a.handle(method, path, body)
}

func (a *stubAPI) Get(_ context.Context, path string) (*apiclient.Response, error) {
	return a.do("GET", path, nil)
}

func (a *stubAPI) Post(_ context.Context, path string, body any) (*apiclient.Response, error) {
	return a.do("POST", path, body)
}

func (a *stubAPI) Put(_ context.Context, path string, body any) (*apiclient.Response, error) {
	return a.do("PUT", path, body)
}

func (a *stubAPI) Patch(_ context.Context, path string, body any) (*apiclient.Response, error) {
	return a.do("PATCH", path, body)
}

func (a *stubAPI) Delete(_ context.Context, path string) (*apiclient.Response, error) {
	return a.do("DELETE", path, nil)
}

func (a *stubAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type stubStorage struct {
	mu       sync.Mutex
	data     map[string]string
	applies  int
	applyErr error
	tokenErr error
}

func newStubStorage(seed map[string]string) *stubStorage {
	s := &stubStorage{data: map[string]string{}}
	for k, v := range seed {
		s.data[k] = v
	}
	return s
}

func (s *stubStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubStorage) Apply(_ context.Context, set map[string]string, del []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applies++
	for _, k := range del {
		delete(s.data, k)
	}
	for k, v := range set {
		s.data[k] = v
	}
	return nil
}

func (s *stubStorage) Token(_ context.Context) (string, error) {
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[domain.KeyToken], nil
}

func (s *stubStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

func (s *stubStorage) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

type stubThemes struct {
	mu    sync.Mutex
	count int
}

func (t *stubThemes) Broadcast(context.Context, string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	return nil
}

func (t *stubThemes) Subscribe(context.Context, string) (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

func (t *stubThemes) broadcasts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

type stubNavigator struct {
	paths []string
}

func (n *stubNavigator) Navigate(_ context.Context, path string) {
	n.paths = append(n.paths, path)
}

type stubAuditor struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (a *stubAuditor) Record(ev domain.SessionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *stubAuditor) types() []domain.SessionEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.SessionEventType, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Type)
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	api     *stubAPI
	storage *stubStorage
	themes  *stubThemes
	nav     *stubNavigator
	auditor *stubAuditor
	store   *SessionStore
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(seed map[string]string) *fixture {
	f := &fixture{
		api:     &stubAPI{},
		storage: newStubStorage(seed),
		themes:  &stubThemes{},
		nav:     &stubNavigator{},
		auditor: &stubAuditor{},
	}
	f.store = NewSessionStore(SessionStoreDeps{
		SessionID: "sid-1",
		API:       f.api,
		Storage:   f.storage,
		Themes:    f.themes,
		Navigator: f.nav,
		Auditor:   f.auditor,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return fixedNow },
	})
	return f
}

// loggedIn returns a fixture whose store holds an authenticated session.
func loggedIn(user *domain.User, business *domain.Business) *fixture {
	f := newFixture(map[string]string{domain.KeyToken: "tok"})
	f.store.setSession(user, business)
	f.store.setLoading(false)
	return f
}

func jsonResponse(status int, v any) *apiclient.Response {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &apiclient.Response{Status: status, Data: raw}
}

func responseError(status int, body string) error {
	return &apiclient.ResponseError{Method: "POST", Path: "/auth/login", Status: status, Body: []byte(body)}
}

func strPtr(s string) *string { return &s }

func ownerUser() *domain.User {
	return &domain.User{
		ID:         "u-1",
		Name:       "Ana",
		Email:      "ana@salon.test",
		Role:       domain.RoleBusinessOwner,
		BusinessID: strPtr("b-1"),
		IsVerified: true,
	}
}

func clientUser() *domain.User {
	return &domain.User{ID: "u-2", Name: "Bea", Email: "bea@mail.test", Role: domain.RoleClient, IsVerified: true}
}

func themedBusiness() *domain.Business {
	return &domain.Business{
		ID:             "b-1",
		Name:           "Glow Studio",
		PrimaryColor:   "#111111",
		SecondaryColor: "#222222",
		AccentColor:    "#333333",
		ThemeMode:      "dark",
		IsVerified:     true,
		IsActive:       true,
	}
}
