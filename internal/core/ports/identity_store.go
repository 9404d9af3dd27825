package ports

import (
	"context"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// InviteResult is returned by IdentityStore.InviteByEmail.
// ActionLink is empty when the store mails the link itself without exposing it.
type InviteResult struct {
	Account    domain.Account
	ActionLink string
}

// IdentityStore is the external authentication and session service.
// Implementations map vendor errors into *domain.Error.
type IdentityStore interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Account, error)
	SignIn(ctx context.Context, email, password string) (*domain.AuthGrant, error)
	SignOut(ctx context.Context, accessToken string) error
	SendMagicLink(ctx context.Context, email, redirectTo string) error
	// SetSession installs a token pair and returns the account it belongs to.
	SetSession(ctx context.Context, tokens domain.Tokens) (*domain.AuthGrant, error)
	GetUser(ctx context.Context, accessToken string) (*domain.Account, error)
	// ResolveFragment turns an opaque redirect fragment into a grant.
	// found is false when the fragment carries no usable credentials.
	ResolveFragment(ctx context.Context, fragment string) (grant *domain.AuthGrant, found bool, err error)
	UpdatePassword(ctx context.Context, accessToken, password string) (*domain.Account, error)
	InviteByEmail(ctx context.Context, email, redirectTo string, metadata map[string]string) (*InviteResult, error)
	ListUsers(ctx context.Context) ([]domain.Account, error)
}
