package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/metrics"
	"github.com/greenviewsolutions/portal/internal/api/middleware"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// CallbackHandler consumes magic-link redirects.
type CallbackHandler struct {
	resolver ports.SessionResolver
	cookie   CookieOptions
}

func NewCallbackHandler(resolver ports.SessionResolver, cookie CookieOptions) *CallbackHandler {
	return &CallbackHandler{resolver: resolver, cookie: cookie}
}

// Resolve handles GET /auth/callback with the redirect's query string.
// Browsers never send the fragment, so implicit-grant links need Submit.
//
// @Summary      Resolve a magic-link callback from its query string
// @Tags         auth
// @Produce      json
// @Param        error_code         query     string  false  "Error code from the identity store"
// @Param        error_description  query     string  false  "Error description"
// @Param        access_token       query     string  false  "Access token"
// @Param        refresh_token      query     string  false  "Refresh token"
// @Success      200                {object}  callbackResponse
// @Router       /auth/callback [get]
func (h *CallbackHandler) Resolve(c echo.Context) error {
	return h.respond(c, ports.CallbackInput{
		Query:     c.QueryParams(),
		SessionID: middleware.SessionID(c),
	})
}

// Submit handles POST /auth/callback with the full URL the browser landed
// on, fragment included.
//
// @Summary      Resolve a magic-link callback from the full URL
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      callbackRequest  true  "Callback URL"
// @Success      200   {object}  callbackResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/callback [post]
func (h *CallbackHandler) Submit(c echo.Context) error {
	var req callbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return domain.NewValidationError("url is not a valid URL")
	}

	return h.respond(c, ports.CallbackInput{
		Query:     u.Query(),
		Fragment:  u.Fragment,
		SessionID: middleware.SessionID(c),
	})
}

func (h *CallbackHandler) respond(c echo.Context, in ports.CallbackInput) error {
	res := h.resolver.Resolve(c.Request().Context(), in)
	metrics.CallbackResolutionsTotal.WithLabelValues(string(res.State)).Inc()
	if res.Redirect == domain.PathSetPassword {
		metrics.FirstLoginsTotal.Inc()
	}

	out := callbackResponse{
		State:    res.State,
		Trail:    res.Trail,
		Redirect: res.Redirect,
		Message:  res.Message,
		Notice:   res.Notice,
		DelayMs:  res.Delay.Milliseconds(),
	}
	if res.Session != nil {
		setSessionCookie(c, h.cookie, res.Session)
		out.SessionID = res.Session.ID
		out.Role = res.Session.Role
	}
	return c.JSON(http.StatusOK, out)
}
