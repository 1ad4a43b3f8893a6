package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/salonbook/webapp/internal/api/metrics"
	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
)

const (
	pathMe       = "/auth/me"
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathProfile  = "/auth/profile"

	bootstrapTimeout = 15 * time.Second
)

var errMalformedProfile = errors.New("profile response without user")

// SessionStoreDeps wires a SessionStore. Only API and Storage are required.
type SessionStoreDeps struct {
	SessionID string
	API       ports.APIClient
	Storage   ports.Storage
	Themes    ports.ThemeBroadcaster
	Navigator ports.Navigator
	Auditor   ports.SessionAuditor
	Logger    zerolog.Logger
	Now       func() time.Time
}

// SessionStore is the single source of truth for who is logged in in one
// browser, and the only writer of that browser's credential record.
type SessionStore struct {
	id      string
	api     ports.APIClient
	storage ports.Storage
	themes  ports.ThemeBroadcaster
	nav     ports.Navigator
	auditor ports.SessionAuditor
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	user     *domain.User
	business *domain.Business
	loading  bool

	// epoch advances whenever the session is replaced or ended. Results of
	// requests started under an older epoch are dropped.
	epoch uint64

	// recordMu serializes writes to the credential record.
	recordMu sync.Mutex

	startOnce sync.Once
	ready     chan struct{}
}

// NewSessionStore returns an empty store in the loading state.
func NewSessionStore(d SessionStoreDeps) *SessionStore {
	s := &SessionStore{
		id:      d.SessionID,
		api:     d.API,
		storage: d.Storage,
		themes:  d.Themes,
		nav:     d.Navigator,
		auditor: d.Auditor,
		log:     d.Logger.With().Str("session_id", d.SessionID).Logger(),
		now:     d.Now,
		loading: true,
		ready:   make(chan struct{}),
	}
	if s.themes == nil {
		s.themes = nopThemes{}
	}
	if s.nav == nil {
		s.nav = nopNavigator{}
	}
	if s.auditor == nil {
		s.auditor = nopAuditor{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ID returns the browser session id the store belongs to.
func (s *SessionStore) ID() string { return s.id }

// State returns a copy of the current session.
func (s *SessionStore) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SessionState{
		User:     s.user.Clone(),
		Business: s.business.Clone(),
		Loading:  s.loading,
	}
}

// Start runs Bootstrap once, detached from the caller's cancellation.
func (s *SessionStore) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			defer close(s.ready)
			bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bootstrapTimeout)
			defer cancel()
			s.Bootstrap(bctx)
		}()
	})
}

// Ready is closed once the background bootstrap finished.
func (s *SessionStore) Ready() <-chan struct{} { return s.ready }

// Bootstrap restores the session from a previously stored token.
func (s *SessionStore) Bootstrap(ctx context.Context) {
	defer s.setLoading(false)

	epoch := s.currentEpoch()

	token, err := s.storage.Token(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("bootstrap: read token failed, starting anonymous")
		metrics.BootstrapTotal.WithLabelValues("anonymous").Inc()
		return
	}
	if token == "" {
		s.purgeOrphans(ctx, epoch)
		metrics.BootstrapTotal.WithLabelValues("anonymous").Inc()
		return
	}

	if tokenExpired(token, s.now()) {
		s.decay(ctx, epoch, "token expired")
		return
	}

	payload, err := s.fetchProfile(ctx)
	if err != nil {
		s.decay(ctx, epoch, err.Error())
		return
	}

	business := businessFor(payload.User, payload.Business)

	s.recordMu.Lock()
	if s.currentEpoch() != epoch {
		s.recordMu.Unlock()
		metrics.BootstrapTotal.WithLabelValues("superseded").Inc()
		s.log.Debug().Msg("bootstrap: session changed while restoring, result dropped")
		return
	}
	if err := s.persistSnapshots(ctx, payload.User, business); err != nil {
		s.log.Warn().Err(err).Msg("bootstrap: refresh snapshots failed")
	}
	s.setSession(payload.User, business)
	s.recordMu.Unlock()

	s.broadcastTheme(ctx, business)

	s.audit(domain.EventRestored, payload.User, "")
	metrics.BootstrapTotal.WithLabelValues("restored").Inc()
	s.log.Debug().Str("user_id", payload.User.ID).Str("role", string(payload.User.Role)).Msg("session restored")
}

// purgeOrphans removes snapshot entries left behind without a token.
func (s *SessionStore) purgeOrphans(ctx context.Context, epoch uint64) {
	if !s.hasSnapshots(ctx) {
		return
	}

	s.recordMu.Lock()
	if s.currentEpoch() != epoch {
		s.recordMu.Unlock()
		return
	}
	err := s.clearSession(ctx)
	s.recordMu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("bootstrap: purge orphaned entries failed")
		return
	}
	s.broadcastReset(ctx)
	s.log.Info().Msg("bootstrap: orphaned credential entries purged")
}

func (s *SessionStore) hasSnapshots(ctx context.Context) bool {
	for _, k := range domain.SessionKeys {
		if k == domain.KeyToken {
			continue
		}
		if _, ok, err := s.storage.Get(ctx, k); ok || err != nil {
			return true
		}
	}
	return false
}

// decay handles an invalid or expired token as a silent logout. It is a no-op
// when a login or logout already replaced the session being restored.
func (s *SessionStore) decay(ctx context.Context, epoch uint64, reason string) {
	s.recordMu.Lock()
	if s.currentEpoch() != epoch {
		s.recordMu.Unlock()
		metrics.BootstrapTotal.WithLabelValues("superseded").Inc()
		return
	}
	s.clearSessionState()
	err := s.clearSession(ctx)
	s.recordMu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("bootstrap: clear credential record failed")
	}
	s.broadcastReset(ctx)

	s.audit(domain.EventDecayed, nil, reason)
	metrics.BootstrapTotal.WithLabelValues("decayed").Inc()
	s.log.Info().Str("reason", reason).Msg("stored session invalid, cleared")
}

// Login authenticates against the backend. The raw payload is returned so the
// caller can branch on PASSWORD_CHANGE_REQUIRED; only LOGIN_SUCCESS changes
// the session.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*domain.AuthPayload, error) {
	resp, err := s.api.Post(ctx, pathLogin, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.loginFailed(classifyLoginError(err))
	}

	var payload domain.AuthPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, s.loginFailed(&domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgLoginFailed, Status: resp.Status, Err: err})
	}

	switch payload.Code {
	case domain.CodeLoginSuccess:
		if payload.User == nil || payload.Token == "" {
			return nil, s.loginFailed(&domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgLoginFailed, Status: resp.Status, Err: errMalformedProfile})
		}
		if err := s.establish(ctx, payload.Token, payload.User, payload.Business); err != nil {
			return nil, s.loginFailed(&domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgUnexpected, Err: err})
		}
		s.audit(domain.EventLogin, payload.User, "")
		metrics.LoginsTotal.WithLabelValues("success").Inc()
		s.log.Info().Str("user_id", payload.User.ID).Str("role", string(payload.User.Role)).Msg("login succeeded")
		return &payload, nil

	case domain.CodePasswordChangeRequired:
		s.audit(domain.EventPasswordChange, payload.User, "")
		metrics.LoginsTotal.WithLabelValues("password_change_required").Inc()
		return &payload, nil
	}

	if aerr, ok := errorForCode(payload.Code, payload.Message, detailMessages(payload.Details)); ok {
		aerr.Status = resp.Status
		return nil, s.loginFailed(aerr)
	}
	msg := payload.Message
	if msg == "" {
		msg = domain.MsgLoginFailed
	}
	return nil, s.loginFailed(&domain.AuthError{Kind: domain.KindUnknown, Message: msg, Status: resp.Status})
}

func (s *SessionStore) loginFailed(aerr *domain.AuthError) error {
	s.audit(domain.EventLoginFailed, nil, string(aerr.Kind))
	metrics.LoginsTotal.WithLabelValues(string(aerr.Kind)).Inc()
	s.log.Info().Str("kind", string(aerr.Kind)).Int("status", aerr.Status).Msg("login failed")
	return aerr
}

// Register creates an account, logs it in and navigates to the landing route.
func (s *SessionStore) Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthPayload, error) {
	resp, err := s.api.Post(ctx, pathRegister, in)
	if err != nil {
		return nil, registerError(err)
	}

	var payload domain.AuthPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if payload.User == nil || payload.Token == "" {
		return nil, &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgRegisterFailed, Status: resp.Status, Err: errMalformedProfile}
	}

	if err := s.establish(ctx, payload.Token, payload.User, payload.Business); err != nil {
		return nil, &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgUnexpected, Err: err}
	}

	s.audit(domain.EventRegister, payload.User, "")
	s.log.Info().Str("user_id", payload.User.ID).Str("role", string(payload.User.Role)).Msg("registered")
	s.nav.Navigate(ctx, domain.RouteDashboard)
	return &payload, nil
}

// Logout ends the session on this browser only; the backend is not told.
func (s *SessionStore) Logout(ctx context.Context) {
	s.recordMu.Lock()
	prev := s.State().User
	s.clearSessionState()
	err := s.clearSession(ctx)
	s.recordMu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("logout: clear credential record failed")
	}
	s.broadcastReset(ctx)

	if prev != nil {
		s.audit(domain.EventLogout, prev, "")
		s.log.Info().Str("user_id", prev.ID).Msg("logged out")
	}
	s.nav.Navigate(ctx, domain.RouteLogin)
}

// UpdateUser sends a partial profile and replaces the current user on success.
func (s *SessionStore) UpdateUser(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	current := s.State().User
	if current == nil {
		return nil, &domain.AuthError{Kind: domain.KindNotAuthenticated, Message: domain.MsgNotAuthenticated}
	}

	resp, err := s.api.Put(ctx, pathProfile, update)
	if err != nil {
		return nil, profileError(err)
	}

	var payload domain.AuthPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgProfileUpdate, Status: resp.Status, Err: err}
	}
	if payload.Code != domain.CodeProfileUpdated || payload.User == nil {
		msg := payload.Message
		if msg == "" {
			msg = domain.MsgProfileUpdate
		}
		return nil, &domain.AuthError{Kind: domain.KindUnknown, Message: msg, Status: resp.Status}
	}

	raw, err := marshalSnapshot(payload.User)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgProfileUpdate, Err: err}
	}

	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	// A logout may have landed while the request was in flight.
	if u := s.State().User; u == nil || u.ID != current.ID {
		return nil, &domain.AuthError{Kind: domain.KindNotAuthenticated, Message: domain.MsgNotAuthenticated}
	}
	if err := s.storage.Apply(ctx, map[string]string{domain.KeyUserData: raw}, nil); err != nil {
		return nil, &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgProfileUpdate, Err: err}
	}

	s.mu.Lock()
	s.user = payload.User.Clone()
	s.mu.Unlock()

	s.audit(domain.EventProfileUpdated, payload.User, "")
	return payload.User.Clone(), nil
}

// RefreshBusiness re-reads the business from the profile endpoint. It is
// best effort: failures are logged, never returned.
func (s *SessionStore) RefreshBusiness(ctx context.Context) {
	current := s.State().User
	if current == nil {
		return
	}

	payload, err := s.fetchProfile(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("refresh business failed")
		return
	}
	if payload.User.ID != current.ID {
		s.log.Warn().Str("user_id", current.ID).Str("profile_user_id", payload.User.ID).Msg("refresh business: profile belongs to another user, ignored")
		return
	}

	business := businessFor(payload.User, payload.Business)
	if business == nil {
		return
	}
	set, del, err := businessEntries(business)
	if err != nil {
		s.log.Warn().Err(err).Msg("refresh business: encode snapshot failed")
		return
	}

	s.recordMu.Lock()
	if u := s.State().User; u == nil || u.ID != current.ID {
		s.recordMu.Unlock()
		return
	}
	if err := s.storage.Apply(ctx, set, del); err != nil {
		s.recordMu.Unlock()
		s.log.Warn().Err(err).Msg("refresh business: persist snapshot failed")
		return
	}
	s.mu.Lock()
	s.business = business.Clone()
	s.mu.Unlock()
	s.recordMu.Unlock()

	s.broadcastTheme(ctx, business)
	s.log.Debug().Str("business_id", business.ID).Msg("business refreshed")
}

func (s *SessionStore) fetchProfile(ctx context.Context) (*domain.AuthPayload, error) {
	resp, err := s.api.Get(ctx, pathMe)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	var payload domain.AuthPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if payload.User == nil {
		return nil, fmt.Errorf("fetch profile: %w", errMalformedProfile)
	}
	return &payload, nil
}

// establish persists the credential record first and only then exposes the
// new session, so guards never observe a half-written one.
func (s *SessionStore) establish(ctx context.Context, token string, user *domain.User, business *domain.Business) error {
	business = businessFor(user, business)

	s.recordMu.Lock()
	if err := s.commitSession(ctx, token, user, business); err != nil {
		s.recordMu.Unlock()
		return err
	}
	s.setSession(user, business)
	s.recordMu.Unlock()

	s.broadcastTheme(ctx, business)
	return nil
}

func (s *SessionStore) setSession(user *domain.User, business *domain.Business) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user.Clone()
	s.business = business.Clone()
	s.epoch++
}

func (s *SessionStore) clearSessionState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.business = nil
	s.loading = false
	s.epoch++
}

func (s *SessionStore) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *SessionStore) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *SessionStore) broadcastTheme(ctx context.Context, business *domain.Business) {
	if _, ok := domain.ThemeFromBusiness(business); !ok {
		return
	}
	s.broadcast(ctx, "updated")
}

// broadcastReset tells theme consumers to fall back to the default palette.
func (s *SessionStore) broadcastReset(ctx context.Context) {
	s.broadcast(ctx, "reset")
}

func (s *SessionStore) broadcast(ctx context.Context, kind string) {
	if err := s.themes.Broadcast(ctx, s.id); err != nil {
		s.log.Warn().Err(err).Str("kind", kind).Msg("theme broadcast failed")
		return
	}
	metrics.ThemeBroadcastsTotal.WithLabelValues(kind).Inc()
}

func (s *SessionStore) audit(t domain.SessionEventType, user *domain.User, reason string) {
	ev := domain.SessionEvent{
		SessionID: s.id,
		Type:      t,
		Reason:    reason,
		At:        s.now().UTC(),
	}
	if user != nil {
		ev.UserID = user.ID
		ev.Role = user.Role
	}
	s.auditor.Record(ev)
}

// businessFor enforces that only business owners and staff carry a business.
func businessFor(user *domain.User, business *domain.Business) *domain.Business {
	if user == nil || business == nil || !user.Role.HasBusiness() {
		return nil
	}
	return business
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type nopThemes struct{}

func (nopThemes) Broadcast(context.Context, string) error { return nil }

func (nopThemes) Subscribe(context.Context, string) (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) {}

type nopAuditor struct{}

func (nopAuditor) Record(domain.SessionEvent) {}
