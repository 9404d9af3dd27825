package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/metrics"
	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// RoleRouter guards a dashboard view. Anonymous callers go to sign-in and
// callers of the other role go to their own dashboard.
func RoleRouter(required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := SessionError(c); err != nil {
				return err
			}
			decision := domain.Route(SessionFrom(c), required)
			if !decision.Allowed {
				metrics.RoleRedirectsTotal.WithLabelValues(string(required), decision.Redirect).Inc()
				return c.Redirect(http.StatusFound, decision.Redirect)
			}
			return next(c)
		}
	}
}
