package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/metrics"
	"github.com/greenviewsolutions/portal/internal/api/middleware"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// SignUp registers an employee or an invited customer.
//
// @Summary      Sign up
// @Description  Employees must use a company address. Customers must have a pending invitation or an existing customer record.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Sign-up form"
// @Success      201   {object}  signUpResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Kind:     domain.Role(req.Kind),
	})
	metrics.SignUpsTotal.WithLabelValues(req.Kind, metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signUpResponse{
		AccountID: res.Account.ID,
		Email:     res.Account.Email,
		Notice:    res.Notice,
	})
}

// SignIn authenticates with email and password and opens a portal session.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	metrics.SignInsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	setSessionCookie(c, h.cookie, res.Session)
	return c.JSON(http.StatusOK, toSessionResponse(res.Session, res.Redirect, ""))
}

// SignOut ends the caller's session.
//
// @Summary      Sign out
// @Tags         auth
// @Security     SessionAuth
// @Success      204
// @Failure      502  {object}  errorResponse
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.authService.SignOut(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return err
	}
	clearSessionCookie(c, h.cookie)
	return c.NoContent(http.StatusNoContent)
}

// RequestMagicLink re-sends a sign-in link after an expired one.
//
// @Summary      Request a new magic link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      magicLinkRequest  true  "Email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/magic-link [post]
func (h *AuthHandler) RequestMagicLink(c echo.Context) error {
	var req magicLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.RequestMagicLink(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: domain.MsgCheckEmail})
}

func toSessionResponse(s *domain.Session, redirect, notice string) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		Role:      s.Role,
		Email:     s.Account.Email,
		ExpiresAt: s.ExpiresAt,
		Redirect:  redirect,
		Notice:    notice,
	}
}
