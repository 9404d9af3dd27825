package ports

import (
	"context"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// SignUpInput carries the shared sign-up form. Kind selects the employee or
// customer variant.
type SignUpInput struct {
	Email    string
	Password string
	Kind     domain.Role
}

type SignUpResult struct {
	Account *domain.Account
	Notice  string
}

type SignInResult struct {
	Session  *domain.Session
	Redirect string
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
	// RequestMagicLink re-issues a sign-in link for a known customer.
	RequestMagicLink(ctx context.Context, email string) error
	// CurrentSession loads a stored session by id.
	CurrentSession(ctx context.Context, sessionID string) (*domain.Session, bool, error)
}
