package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/metrics"
	"github.com/greenviewsolutions/portal/internal/api/middleware"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// PasswordHandler serves the first-login password setup.
type PasswordHandler struct {
	bootstrap ports.PasswordBootstrap
	cookie    CookieOptions
}

func NewPasswordHandler(bootstrap ports.PasswordBootstrap, cookie CookieOptions) *PasswordHandler {
	return &PasswordHandler{bootstrap: bootstrap, cookie: cookie}
}

// Guard handles GET /set-password.
//
// @Summary      Check access to the set-password page
// @Tags         auth
// @Produce      json
// @Param        token  query     string  false  "Access token from the invitation link"
// @Success      200    {object}  guardResponse
// @Router       /set-password [get]
func (h *PasswordHandler) Guard(c echo.Context) error {
	res, err := h.bootstrap.Guard(c.Request().Context(), ports.GuardInput{
		Token:     c.QueryParam("token"),
		SessionID: middleware.SessionID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, guardResponse{Allowed: res.Allowed, Redirect: res.Redirect})
}

// Submit handles POST /set-password.
//
// @Summary      Set the account password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      setPasswordRequest  true  "New password"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /set-password [post]
func (h *PasswordHandler) Submit(c echo.Context) error {
	var req setPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.bootstrap.Submit(c.Request().Context(), ports.SetPasswordInput{
		SessionID: middleware.SessionID(c),
		Token:     req.Token,
		Password:  req.Password,
		Confirm:   req.ConfirmPassword,
	})
	metrics.PasswordSetupsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	if res.Redirect != domain.PathLogin {
		setSessionCookie(c, h.cookie, res.Session)
	}
	return c.JSON(http.StatusOK, toSessionResponse(res.Session, res.Redirect, res.Notice))
}
