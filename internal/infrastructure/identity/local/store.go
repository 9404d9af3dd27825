// Package local is a self-hosted identity store for development and
// single-node deployments. Accounts live in Mongo, passwords are bcrypt
// hashes and tokens are HS256 JWTs. Links are written to the log instead of
// being mailed.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"

	msgInvalidCredentials = "Invalid login credentials"
	msgAlreadyRegistered  = "A user with this email address has already been registered"
	msgSignupsNotAllowed  = "Signups not allowed for otp"
)

// Options configures the local store.
type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// LinkTTL bounds how long an emailed link stays usable.
	LinkTTL time.Duration
}

type Store struct {
	accounts   ports.AccountRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	linkTTL    time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

var _ ports.IdentityStore = (*Store)(nil)

func New(accounts ports.AccountRepository, opts Options, log zerolog.Logger) *Store {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = 24 * time.Hour
	}
	return &Store{
		accounts:   accounts,
		secret:     []byte(opts.Secret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		linkTTL:    opts.LinkTTL,
		log:        log,
		now:        time.Now,
	}
}

type claims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

func (s *Store) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	now := s.now().UTC()
	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:            email,
		PasswordHash:     string(hash),
		Metadata:         metadata,
		CreatedAt:        now,
		EmailConfirmedAt: &now,
	})
	if err != nil {
		return nil, domain.NewBackendError(err)
	}
	s.log.Info().Str("account_id", created.ID).Str("email", created.Email).Msg("local identity: account registered")
	return created, nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.AuthGrant, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewAuthenticationError(msgInvalidCredentials)
		}
		return nil, domain.NewBackendError(err)
	}
	if !account.HasPassword || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewAuthenticationError(msgInvalidCredentials)
	}

	now := s.now().UTC()
	account.LastSignInAt = &now
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, domain.NewBackendError(err)
	}
	return s.issue(*account, s.accessTTL)
}

// SignOut is a no-op beyond validation: tokens are stateless and expire on
// their own.
func (s *Store) SignOut(_ context.Context, accessToken string) error {
	if _, err := s.parse(accessToken, tokenAccess); err != nil {
		s.log.Debug().Err(err).Msg("local identity: sign out with unusable token")
	}
	return nil
}

func (s *Store) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError(msgSignupsNotAllowed)
		}
		return domain.NewBackendError(err)
	}
	link, err := s.actionLink(*account, redirectTo, "magiclink")
	if err != nil {
		return domain.NewBackendError(err)
	}
	s.log.Info().Str("email", account.Email).Str("action_link", link).Msg("local identity: magic link issued")
	return nil
}

// SetSession validates the access token, falling back to the refresh token
// when the access token is no longer usable.
func (s *Store) SetSession(ctx context.Context, tokens domain.Tokens) (*domain.AuthGrant, error) {
	c, err := s.parse(tokens.AccessToken, tokenAccess)
	if err == nil {
		account, err := s.load(ctx, c.Subject)
		if err != nil {
			return nil, err
		}
		tokens.ExpiresAt = c.ExpiresAt.Time
		return &domain.AuthGrant{Tokens: tokens, Account: *account}, nil
	}
	if tokens.RefreshToken == "" {
		return nil, err
	}

	rc, rerr := s.parse(tokens.RefreshToken, tokenRefresh)
	if rerr != nil {
		return nil, rerr
	}
	account, lerr := s.load(ctx, rc.Subject)
	if lerr != nil {
		return nil, lerr
	}
	return s.issue(*account, s.accessTTL)
}

func (s *Store) GetUser(ctx context.Context, accessToken string) (*domain.Account, error) {
	c, err := s.parse(accessToken, tokenAccess)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, c.Subject)
}

// ResolveFragment accepts the fragment written by actionLink. An expired
// link token surfaces as a link-expired error.
func (s *Store) ResolveFragment(ctx context.Context, fragment string) (*domain.AuthGrant, bool, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil || values.Get("access_token") == "" {
		return nil, false, nil
	}

	access := values.Get("access_token")
	c, err := s.parse(access, tokenAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, false, domain.NewLinkExpiredError(domain.MsgLinkExpired)
		}
		return nil, false, err
	}
	account, err := s.load(ctx, c.Subject)
	if err != nil {
		return nil, false, err
	}
	if s.stampLinkSignIn(account) {
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, false, domain.NewBackendError(err)
		}
	}
	return &domain.AuthGrant{
		Tokens: domain.Tokens{
			AccessToken:  access,
			RefreshToken: values.Get("refresh_token"),
			ExpiresAt:    c.ExpiresAt.Time,
		},
		Account: *account,
	}, true, nil
}

// stampLinkSignIn records a link sign-in. Until a password is set the
// account keeps LastSignInAt equal to CreatedAt so it still reads as a first
// login; afterwards every link sign-in is stamped with the current time.
func (s *Store) stampLinkSignIn(account *domain.Account) bool {
	switch {
	case account.HasPassword:
		now := s.now().UTC()
		account.LastSignInAt = &now
		return true
	case account.LastSignInAt == nil:
		created := account.CreatedAt
		account.LastSignInAt = &created
		return true
	default:
		return false
	}
}

func (s *Store) UpdatePassword(ctx context.Context, accessToken, password string) (*domain.Account, error) {
	account, err := s.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	account.PasswordHash = string(hash)
	account.HasPassword = true
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, domain.NewBackendError(err)
	}
	return account, nil
}

// InviteByEmail creates a password-less account and returns the link that
// would be mailed to it.
func (s *Store) InviteByEmail(ctx context.Context, email, redirectTo string, metadata map[string]string) (*ports.InviteResult, error) {
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return nil, domain.NewValidationError(msgAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewBackendError(err)
	}

	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:     email,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.NewValidationError(msgAlreadyRegistered)
		}
		return nil, domain.NewBackendError(err)
	}

	link, err := s.actionLink(*created, redirectTo, "invite")
	if err != nil {
		return nil, domain.NewBackendError(err)
	}
	s.log.Info().Str("email", created.Email).Str("action_link", link).Msg("local identity: invitation issued")
	return &ports.InviteResult{Account: *created, ActionLink: link}, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, domain.NewBackendError(err)
	}
	return accounts, nil
}

func (s *Store) load(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewAuthenticationError("User from sub claim in JWT does not exist")
		}
		return nil, domain.NewBackendError(err)
	}
	return account, nil
}

func (s *Store) issue(account domain.Account, accessTTL time.Duration) (*domain.AuthGrant, error) {
	access, exp, err := s.sign(account, tokenAccess, accessTTL)
	if err != nil {
		return nil, domain.NewBackendError(err)
	}
	refresh, _, err := s.sign(account, tokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, domain.NewBackendError(err)
	}
	return &domain.AuthGrant{
		Tokens:  domain.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp},
		Account: account,
	}, nil
}

// actionLink builds redirectTo with the implicit-grant fragment GoTrue uses,
// so the callback handles both stores the same way.
func (s *Store) actionLink(account domain.Account, redirectTo, linkType string) (string, error) {
	grant, err := s.issue(account, s.linkTTL)
	if err != nil {
		return "", err
	}
	frag := url.Values{}
	frag.Set("access_token", grant.Tokens.AccessToken)
	frag.Set("refresh_token", grant.Tokens.RefreshToken)
	frag.Set("expires_at", strconv.FormatInt(grant.Tokens.ExpiresAt.Unix(), 10))
	frag.Set("type", linkType)
	return redirectTo + "#" + frag.Encode(), nil
}

func (s *Store) sign(account domain.Account, typ string, ttl time.Duration) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: account.Email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

func (s *Store) parse(token, typ string) (*claims, error) {
	if token == "" {
		return nil, domain.NewAuthenticationError(domain.MsgNoSession)
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindAuthentication, Message: "invalid JWT: " + err.Error(), Err: err}
	}
	if c.Type != typ {
		return nil, domain.NewAuthenticationError("invalid JWT: wrong token type")
	}
	return &c, nil
}
