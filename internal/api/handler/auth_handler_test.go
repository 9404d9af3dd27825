package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/middleware"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

type stubAuthService struct {
	signUpFn    func(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error)
	signInFn    func(ctx context.Context, email, password string) (*ports.SignInResult, error)
	signOutFn   func(ctx context.Context, sessionID string) error
	magicLinkFn func(ctx context.Context, email string) error
}

func (s *stubAuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAuthService) SignIn(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubAuthService) SignOut(ctx context.Context, sessionID string) error {
	return s.signOutFn(ctx, sessionID)
}

func (s *stubAuthService) RequestMagicLink(ctx context.Context, email string) error {
	return s.magicLinkFn(ctx, email)
}

func (s *stubAuthService) CurrentSession(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	return nil, false, nil
}

// newContext builds an echo context with the validator installed. A non-nil
// session is injected the way the Session middleware would.
func newContext(method, target, body string, session *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if session != nil {
		c.Set("session", session)
		c.Set("role", string(session.Role))
	}
	return c, rec
}

func testSession(role domain.Role, email string) *domain.Session {
	return &domain.Session{
		ID:        "sess_1",
		ExpiresAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Account:   domain.Account{ID: "user_1", Email: email},
		Role:      role,
	}
}

func errorKind(t *testing.T, err error) domain.Kind {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	return domain.KindOf(err)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func TestAuthHandler_SignUp_Success(t *testing.T) {
	stub := &stubAuthService{
		signUpFn: func(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
			if in.Email != "crew@greenviewsolutions.net" || in.Kind != domain.RoleEmployee {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.SignUpResult{
				Account: &domain.Account{ID: "user_1", Email: in.Email},
				Notice:  "Please check your email to verify your account.",
			}, nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, rec := newContext(http.MethodPost, "/auth/signup",
		`{"email":"crew@greenviewsolutions.net","password":"secret1","kind":"employee"}`, nil)
	if err := h.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp signUpResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccountID != "user_1" || resp.Notice == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_SignUp_ShortPassword(t *testing.T) {
	stub := &stubAuthService{
		signUpFn: func(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, _ := newContext(http.MethodPost, "/auth/signup",
		`{"email":"a@example.com","password":"123","kind":"customer"}`, nil)
	if kind := errorKind(t, h.SignUp(c)); kind != domain.KindValidation {
		t.Fatalf("expected validation error, got %s", kind)
	}
}

func TestAuthHandler_SignUp_NotEligible(t *testing.T) {
	stub := &stubAuthService{
		signUpFn: func(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
			return nil, domain.NewEligibilityError(domain.MsgNotInvited)
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, _ := newContext(http.MethodPost, "/auth/signup",
		`{"email":"a@example.com","password":"secret1","kind":"customer"}`, nil)
	if kind := errorKind(t, h.SignUp(c)); kind != domain.KindEligibility {
		t.Fatalf("expected eligibility error, got %s", kind)
	}
}

func TestAuthHandler_SignIn_SetsCookie(t *testing.T) {
	stub := &stubAuthService{
		signInFn: func(ctx context.Context, email, password string) (*ports.SignInResult, error) {
			return &ports.SignInResult{
				Session:  testSession(domain.RoleCustomer, email),
				Redirect: domain.PathCustomerDashboard,
			}, nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{MaxAge: time.Hour})

	c, rec := newContext(http.MethodPost, "/auth/signin", `{"email":"a@example.com","password":"secret1"}`, nil)
	if err := h.SignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookie := rec.Result().Cookies()
	if len(cookie) != 1 || cookie[0].Name != middleware.SessionCookie || cookie[0].Value != "sess_1" {
		t.Fatalf("unexpected cookies: %+v", cookie)
	}
	if !cookie[0].HttpOnly {
		t.Fatalf("session cookie must be http-only")
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != domain.PathCustomerDashboard || resp.Role != domain.RoleCustomer {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		signInFn: func(ctx context.Context, email, password string) (*ports.SignInResult, error) {
			return nil, domain.NewAuthenticationError("Invalid login credentials")
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, rec := newContext(http.MethodPost, "/auth/signin", `{"email":"a@example.com","password":"bad"}`, nil)
	if kind := errorKind(t, h.SignIn(c)); kind != domain.KindAuthentication {
		t.Fatalf("expected authentication error, got %s", kind)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestAuthHandler_SignIn_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		signInFn: func(ctx context.Context, email, password string) (*ports.SignInResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, _ := newContext(http.MethodPost, "/auth/signin", "not-json", nil)
	if code := httpStatus(t, h.SignIn(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_SignOut_ClearsCookie(t *testing.T) {
	var got string
	stub := &stubAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			got = sessionID
			return nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, rec := newContext(http.MethodPost, "/auth/signout", "", nil)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer sess_9")
	if err := h.SignOut(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "sess_9" {
		t.Fatalf("expected session sess_9, got %q", got)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestAuthHandler_RequestMagicLink(t *testing.T) {
	stub := &stubAuthService{
		magicLinkFn: func(ctx context.Context, email string) error {
			if email != "a@example.com" {
				t.Fatalf("unexpected email %q", email)
			}
			return nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, rec := newContext(http.MethodPost, "/auth/magic-link", `{"email":"a@example.com"}`, nil)
	if err := h.RequestMagicLink(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), domain.MsgCheckEmail) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
