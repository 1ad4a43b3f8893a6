package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salonbook/webapp/internal/apiclient"
	"github.com/salonbook/webapp/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps AuthError kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error", "kind", "fields"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		_ = c.JSON(code, resp)
	}
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindInvalidCredentials: http.StatusUnauthorized,
	domain.KindUnverified:         http.StatusForbidden,
	domain.KindInactive:           http.StatusForbidden,
	domain.KindMissingFields:      http.StatusBadRequest,
	domain.KindValidation:         http.StatusBadRequest,
	domain.KindRateLimited:        http.StatusTooManyRequests,
	domain.KindNetwork:            http.StatusBadGateway,
	domain.KindNotAuthenticated:   http.StatusUnauthorized,
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ae *domain.AuthError
	if errors.As(err, &ae) {
		return authErrorStatus(ae), errorResponse{Error: ae.Message, Kind: string(ae.Kind), Fields: ae.Fields}
	}

	// Raw adapter errors surface from registration when the backend gave no message.
	var re *apiclient.ResponseError
	if errors.As(err, &re) && re.Status < http.StatusInternalServerError {
		return re.Status, errorResponse{Error: domain.MsgRegisterFailed, Kind: string(domain.KindUnknown)}
	}
	var nre *apiclient.NoResponseError
	if errors.As(err, &nre) {
		return http.StatusBadGateway, errorResponse{Error: domain.MsgNetworkError, Kind: string(domain.KindNetwork)}
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnexpected(log, c, err)
	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// authErrorStatus prefers the kind's status; unknown kinds reuse the
// backend's client-error status and otherwise report a bad gateway.
func authErrorStatus(ae *domain.AuthError) int {
	if code, ok := kindStatus[ae.Kind]; ok {
		return code
	}
	if ae.Status >= http.StatusBadRequest && ae.Status < http.StatusInternalServerError {
		return ae.Status
	}
	return http.StatusBadGateway
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
}
