package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/middleware"
	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// ctxSession returns the session injected by the Session middleware and
// fails fast with 401 when the caller is anonymous.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s := middleware.SessionFrom(c)
	if s == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.MsgNoSession)
	}
	return s, nil
}

// CookieOptions controls the session cookie written by the auth handlers.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

func setSessionCookie(c echo.Context, opts CookieOptions, s *domain.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context, opts CookieOptions) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// parseDate reads a YYYY-MM-DD form value. Empty input yields nil.
func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, domain.NewValidationError("dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}
