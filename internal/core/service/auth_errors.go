package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/salonbook/webapp/internal/apiclient"
	"github.com/salonbook/webapp/internal/core/domain"
)

// classifyLoginError maps an adapter failure to an AuthError, in priority
// order: recognized code, bare string body, 429, other body, no response,
// anything else.
func classifyLoginError(err error) *domain.AuthError {
	var re *apiclient.ResponseError
	if errors.As(err, &re) {
		if aerr, ok := errorForCode(re.Code(), re.Message(), re.DetailMessages()); ok {
			aerr.Status = re.Status
			aerr.Err = err
			return aerr
		}
		if msg, ok := re.BareString(); ok {
			kind := domain.KindUnknown
			if re.Status == http.StatusTooManyRequests {
				kind = domain.KindRateLimited
			}
			return &domain.AuthError{Kind: kind, Message: msg, Status: re.Status, Err: err}
		}
		if re.Status == http.StatusTooManyRequests {
			return &domain.AuthError{Kind: domain.KindRateLimited, Message: domain.MsgTooManyAttempts, Status: re.Status, Err: err}
		}
		if re.HasBody() {
			return &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgLoginFailed, Status: re.Status, Err: err}
		}
		return &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgUnexpected, Status: re.Status, Err: err}
	}

	var nre *apiclient.NoResponseError
	if errors.As(err, &nre) {
		return &domain.AuthError{Kind: domain.KindNetwork, Message: domain.MsgNetworkError, Err: err}
	}
	return &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgUnexpected, Err: err}
}

// errorForCode returns the AuthError of a recognized backend error code.
func errorForCode(code, message string, details []string) (*domain.AuthError, bool) {
	switch code {
	case domain.CodeInvalidCredentials:
		return &domain.AuthError{Kind: domain.KindInvalidCredentials, Message: domain.MsgInvalidCredentials}, true
	case domain.CodeUserNotVerified:
		return &domain.AuthError{Kind: domain.KindUnverified, Message: domain.MsgUserNotVerified}, true
	case domain.CodeAccountInactive:
		return &domain.AuthError{Kind: domain.KindInactive, Message: domain.MsgAccountInactive}, true
	case domain.CodeMissingFields:
		return &domain.AuthError{Kind: domain.KindMissingFields, Message: domain.MsgMissingFields}, true
	case domain.CodeValidationError:
		return &domain.AuthError{
			Kind:    domain.KindValidation,
			Message: domain.ValidationMessage(message, details),
			Fields:  details,
		}, true
	}
	return nil, false
}

// registerError surfaces the backend message when there is one and returns
// the adapter error unchanged otherwise.
func registerError(err error) error {
	var re *apiclient.ResponseError
	if errors.As(err, &re) && re.Structured() {
		if aerr, ok := errorForCode(re.Code(), re.Message(), re.DetailMessages()); ok {
			aerr.Status = re.Status
			aerr.Err = err
			return aerr
		}
		if msg := re.Message(); msg != "" {
			return &domain.AuthError{Kind: domain.KindUnknown, Message: msg, Status: re.Status, Err: err}
		}
	}
	return err
}

func profileError(err error) *domain.AuthError {
	var re *apiclient.ResponseError
	if errors.As(err, &re) {
		if re.Status == http.StatusUnauthorized {
			return &domain.AuthError{Kind: domain.KindNotAuthenticated, Message: domain.MsgNotAuthenticated, Status: re.Status, Err: err}
		}
		if aerr, ok := errorForCode(re.Code(), re.Message(), re.DetailMessages()); ok {
			aerr.Status = re.Status
			aerr.Err = err
			return aerr
		}
		if msg := re.Message(); msg != "" {
			return &domain.AuthError{Kind: domain.KindUnknown, Message: msg, Status: re.Status, Err: err}
		}
		return &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgProfileUpdate, Status: re.Status, Err: err}
	}

	var nre *apiclient.NoResponseError
	if errors.As(err, &nre) {
		return &domain.AuthError{Kind: domain.KindNetwork, Message: domain.MsgProfileUpdate, Err: err}
	}
	return &domain.AuthError{Kind: domain.KindUnknown, Message: domain.MsgProfileUpdate, Err: err}
}

func detailMessages(details []domain.ValidationDetail) []string {
	if len(details) == 0 {
		return nil
	}
	out := make([]string, 0, len(details))
	for _, d := range details {
		if d.Message != "" {
			out = append(out, d.Message)
		}
	}
	return out
}

// tokenExpired reads the unverified exp claim of a JWT. Opaque tokens and
// tokens without exp are left to the backend to judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
