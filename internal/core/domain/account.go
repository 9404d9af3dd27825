package domain

import (
	"strings"
	"time"
)

// Account metadata keys written by sign-up and invitation.
const (
	MetaFirstName = "first_name"
	MetaLastName  = "last_name"
	MetaUserType  = "user_type"
	MetaRole      = "role"
)

// Account repository errors.
var (
	ErrAccountNotFound = &Error{Kind: KindNotFound, Message: "account not found"}
	ErrAccountExists   = &Error{Kind: KindValidation, Message: "User already registered"}
)

// Account models an identity record held by the identity store.
type Account struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	PasswordHash     string            `json:"-"`
	HasPassword      bool              `json:"has_password"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	LastSignInAt     *time.Time        `json:"last_sign_in_at,omitempty"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at,omitempty"`
}

// Meta returns a metadata value or "" when absent.
func (a Account) Meta(key string) string {
	if a.Metadata == nil {
		return ""
	}
	return a.Metadata[key]
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsFirstLogin reports whether the account has never completed an
// interactive sign-in: no recorded sign-in, or one recorded at the exact
// instant the account was created.
func IsFirstLogin(a Account) bool {
	if a.LastSignInAt == nil {
		return true
	}
	return a.LastSignInAt.Equal(a.CreatedAt)
}

// Session is an authenticated portal session. Role is fixed at creation.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Account      Account   `json:"account"`
	Role         Role      `json:"role"`
}

// NewSession builds a session for account, classifying its role once.
func NewSession(id string, tokens Tokens, account Account) *Session {
	return &Session{
		ID:           id,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		Account:      account,
		Role:         ClassifyEmail(account.Email),
	}
}

// Tokens is the credential pair issued by the identity store.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthGrant is what the identity store returns when it authenticates a user.
type AuthGrant struct {
	Tokens  Tokens
	Account Account
}

// PendingSetup is the handoff record written when a first-time user is sent
// to set a password. It is keyed by session and expires on its own.
type PendingSetup struct {
	SessionID   string    `json:"session_id"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (p PendingSetup) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}
