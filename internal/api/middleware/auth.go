package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// SessionCookie carries the portal session id between requests.
const SessionCookie = "portal_session"

// Context keys set by Session.
const (
	ctxSession    = "session"
	ctxRole       = "role"
	ctxAccountID  = "account_id"
	ctxSessionErr = "session_error"
)

// SessionLoader looks up a stored portal session by id.
type SessionLoader interface {
	CurrentSession(ctx context.Context, sessionID string) (*domain.Session, bool, error)
}

// Session loads the caller's portal session, if any, from the session cookie
// or an "Authorization: Bearer <session id>" header and injects it into the
// context. A missing or unknown session is not an error here; RequireSession
// and RoleRouter decide what an anonymous caller may do. When the lookup
// itself fails the request continues anonymously and the guards report the
// failure.
func Session(loader SessionLoader, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := SessionID(c)
			if id == "" {
				return next(c)
			}

			s, found, err := loader.CurrentSession(c.Request().Context(), id)
			if err != nil {
				log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed")
				c.Set(ctxSessionErr, err)
				return next(c)
			}
			if found {
				c.Set(ctxSession, s)
				c.Set(ctxRole, string(s.Role))
				c.Set(ctxAccountID, s.Account.ID)
			}
			return next(c)
		}
	}
}

// RequireSession rejects callers without a loaded session.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := SessionError(c); err != nil {
				return err
			}
			if SessionFrom(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.MsgNoSession)
			}
			return next(c)
		}
	}
}

// SessionID returns the session id presented by the caller. The bearer
// header wins over the cookie.
func SessionID(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionFrom returns the session injected by Session, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	s, _ := c.Get(ctxSession).(*domain.Session)
	return s
}

// SessionError returns the failure Session hit while loading the caller's
// session, or nil.
func SessionError(c echo.Context) error {
	err, _ := c.Get(ctxSessionErr).(error)
	return err
}
