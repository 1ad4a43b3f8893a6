package domain

import (
	"errors"
	"strings"
)

// Backend response codes the frontend branches on.
const (
	CodeLoginSuccess           = "LOGIN_SUCCESS"
	CodePasswordChangeRequired = "PASSWORD_CHANGE_REQUIRED"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeUserNotVerified        = "USER_NOT_VERIFIED"
	CodeAccountInactive        = "ACCOUNT_INACTIVE"
	CodeMissingFields          = "MISSING_FIELDS"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeProfileUpdated         = "PROFILE_UPDATED"
)

// User-facing messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserNotVerified    = "Please verify your email address before logging in"
	MsgAccountInactive    = "Your account is inactive. Please contact support"
	MsgMissingFields      = "Email and password are required"
	MsgValidationFailed   = "Validation failed"
	MsgTooManyAttempts    = "Too many login attempts. Please try again later"
	MsgLoginFailed        = "Login failed. Please try again"
	MsgNetworkError       = "Network error. Please check your connection and try again"
	MsgUnexpected         = "An unexpected error occurred. Please try again"
	MsgNotAuthenticated   = "Not authenticated"
	MsgProfileUpdate      = "Failed to update profile"
	MsgRegisterFailed     = "Registration failed"
)

// ErrorKind tags an AuthError so callers can branch without reading messages.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindUnverified         ErrorKind = "unverified"
	KindInactive           ErrorKind = "inactive"
	KindMissingFields      ErrorKind = "missing_fields"
	KindValidation         ErrorKind = "validation"
	KindRateLimited        ErrorKind = "rate_limited"
	KindNetwork            ErrorKind = "network"
	KindNotAuthenticated   ErrorKind = "not_authenticated"
	KindUnknown            ErrorKind = "unknown"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnverified         = errors.New("user not verified")
	ErrInactive           = errors.New("account inactive")
	ErrMissingFields      = errors.New("missing fields")
	ErrValidation         = errors.New("validation failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetwork            = errors.New("network error")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidCredentials: ErrInvalidCredentials,
	KindUnverified:         ErrUnverified,
	KindInactive:           ErrInactive,
	KindMissingFields:      ErrMissingFields,
	KindValidation:         ErrValidation,
	KindRateLimited:        ErrRateLimited,
	KindNetwork:            ErrNetwork,
	KindNotAuthenticated:   ErrNotAuthenticated,
}

// AuthError is the single error shape leaving the session store.
type AuthError struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field validation messages for KindValidation.
	Fields []string
	// Status is the backend HTTP status, 0 when no response was received.
	Status int
	Err    error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels, e.g. errors.Is(err, ErrInactive).
func (e *AuthError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of err, or KindUnknown if err is not an AuthError.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// ValidationDetail is one entry of a VALIDATION_ERROR details array.
type ValidationDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationMessage renders "<message>: <d1>, <d2>" or just message when
// there are no details.
func ValidationMessage(message string, details []string) string {
	if message == "" {
		message = MsgValidationFailed
	}
	if len(details) == 0 {
		return message
	}
	return message + ": " + strings.Join(details, ", ")
}
