package domain

import "time"

// Persisted credential record keys. The four entries form one logical unit.
const (
	KeyToken         = "token"
	KeyUserData      = "userData"
	KeyBusinessData  = "businessData"
	KeyBusinessTheme = "businessTheme"
)

// SessionKeys lists the credential record entries in write order.
var SessionKeys = []string{KeyToken, KeyUserData, KeyBusinessData, KeyBusinessTheme}

// ThemeUpdatedSignal names the payload-free "business theme updated" broadcast.
const ThemeUpdatedSignal = "businessThemeUpdated"

// ThemeSnapshot is the subset of a business that drives tenant styling.
type ThemeSnapshot struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	ThemeMode      string `json:"theme_mode"`
}

// DefaultTheme is served when no business theme is stored.
var DefaultTheme = ThemeSnapshot{
	PrimaryColor:   "#7c3aed",
	SecondaryColor: "#ec4899",
	AccentColor:    "#f59e0b",
	ThemeMode:      "light",
}

// ThemeFromBusiness derives a snapshot; ok is false when b has no primary color.
func ThemeFromBusiness(b *Business) (ThemeSnapshot, bool) {
	if b == nil || b.PrimaryColor == "" {
		return ThemeSnapshot{}, false
	}
	return ThemeSnapshot{
		PrimaryColor:   b.PrimaryColor,
		SecondaryColor: b.SecondaryColor,
		AccentColor:    b.AccentColor,
		ThemeMode:      b.ThemeMode,
	}, true
}

// AuthPayload is the raw backend body of the auth endpoints.
type AuthPayload struct {
	Code     string             `json:"code,omitempty"`
	Message  string             `json:"message,omitempty"`
	User     *User              `json:"user,omitempty"`
	Business *Business          `json:"business,omitempty"`
	Token    string             `json:"token,omitempty"`
	Details  []ValidationDetail `json:"details,omitempty"`
}

// SessionState is an immutable snapshot of a session as seen by guards.
type SessionState struct {
	User     *User
	Business *Business
	Loading  bool
}

// Authenticated reports whether a user is present.
func (s SessionState) Authenticated() bool { return s.User != nil }

// SessionEventType classifies audit trail entries.
type SessionEventType string

const (
	EventLogin          SessionEventType = "login"
	EventLoginFailed    SessionEventType = "login_failed"
	EventPasswordChange SessionEventType = "password_change_required"
	EventRegister       SessionEventType = "register"
	EventLogout         SessionEventType = "logout"
	EventRestored       SessionEventType = "restored"
	EventDecayed        SessionEventType = "decayed"
	EventProfileUpdated SessionEventType = "profile_updated"
)

// SessionEvent records a session state change for the audit trail.
type SessionEvent struct {
	SessionID string
	Type      SessionEventType
	UserID    string
	Role      Role
	Reason    string
	At        time.Time
}
