package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// kindStatus maps each domain error kind to its HTTP status.
var kindStatus = map[domain.Kind]int{
	domain.KindValidation:         http.StatusBadRequest,
	domain.KindEligibility:        http.StatusForbidden,
	domain.KindAuthentication:     http.StatusUnauthorized,
	domain.KindInvitationDispatch: http.StatusBadGateway,
	domain.KindBackend:            http.StatusBadGateway,
	domain.KindLinkExpired:        http.StatusGone,
	domain.KindNotFound:           http.StatusNotFound,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes, keeping the message
//     the user is meant to see.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	if errors.Is(err, domain.ErrAccountExists) {
		return http.StatusConflict, err.Error()
	}

	var de *domain.Error
	if errors.As(err, &de) {
		code, ok := kindStatus[de.Kind]
		if !ok {
			code = http.StatusInternalServerError
		}
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("kind", string(de.Kind)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("backend failure")
		}
		return code, de.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
