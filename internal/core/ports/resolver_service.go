package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// CallbackInput is everything the magic-link redirect delivered.
// SessionID is the portal session already held by the browser, if any.
type CallbackInput struct {
	Query     url.Values
	Fragment  string
	SessionID string
}

// Resolution is the terminal outcome of the callback state machine.
type Resolution struct {
	State    domain.ResolverState
	Trail    []domain.ResolverState
	Redirect string
	// Message is shown while waiting for Delay before redirecting.
	Message string
	// Notice is carried to the redirect target.
	Notice  string
	Delay   time.Duration
	Session *domain.Session
}

// SessionResolver consumes magic-link redirects.
type SessionResolver interface {
	Resolve(ctx context.Context, in CallbackInput) *Resolution
}

type GuardInput struct {
	Token     string
	SessionID string
}

type GuardResult struct {
	Allowed  bool
	Redirect string
}

type SetPasswordInput struct {
	SessionID string
	Token     string
	Password  string
	Confirm   string
}

type SetPasswordResult struct {
	Redirect string
	Notice   string
	Session  *domain.Session
}

// PasswordBootstrap forces first-time users to set a password.
type PasswordBootstrap interface {
	Guard(ctx context.Context, in GuardInput) (GuardResult, error)
	Submit(ctx context.Context, in SetPasswordInput) (*SetPasswordResult, error)
}
