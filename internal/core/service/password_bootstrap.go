package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

type passwordBootstrap struct {
	identity   ports.IdentityStore
	sessions   ports.SessionStore
	setups     ports.PendingSetupStore
	sessionTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewPasswordBootstrap returns a PasswordBootstrap implementation.
func NewPasswordBootstrap(
	identity ports.IdentityStore,
	sessions ports.SessionStore,
	setups ports.PendingSetupStore,
	sessionTTL time.Duration,
	log zerolog.Logger,
) ports.PasswordBootstrap {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &passwordBootstrap{
		identity:   identity,
		sessions:   sessions,
		setups:     setups,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Guard admits the caller when a setup token is present or a session exists.
func (b *passwordBootstrap) Guard(ctx context.Context, in ports.GuardInput) (ports.GuardResult, error) {
	if strings.TrimSpace(in.Token) != "" {
		return ports.GuardResult{Allowed: true}, nil
	}
	if in.SessionID != "" {
		_, found, err := b.sessions.Get(ctx, in.SessionID)
		if err != nil {
			b.log.Error().Err(err).Msg("set-password: session lookup failed")
			return ports.GuardResult{Redirect: domain.PathLogin}, domain.NewBackendError(err)
		}
		if found {
			return ports.GuardResult{Allowed: true}, nil
		}
	}
	return ports.GuardResult{Redirect: domain.PathLogin}, nil
}

// Submit sets the password for the current session and resumes the
// destination stored by the callback, if any.
func (b *passwordBootstrap) Submit(ctx context.Context, in ports.SetPasswordInput) (*ports.SetPasswordResult, error) {
	if in.Password != in.Confirm {
		return nil, domain.NewValidationError(domain.MsgPasswordsMismatch)
	}
	if in.Password == "" {
		return nil, domain.NewValidationError("Password is required")
	}

	session, exchanged, err := b.currentSession(ctx, in)
	if err != nil {
		return nil, err
	}

	if _, err := b.identity.UpdatePassword(ctx, session.AccessToken, in.Password); err != nil {
		b.log.Warn().Err(err).Str("account_id", session.Account.ID).Msg("set-password: update rejected")
		return nil, domain.NewBackendError(err)
	}
	b.log.Info().Str("account_id", session.Account.ID).Msg("password set")

	setup, found, err := b.setups.Get(ctx, session.ID)
	if err != nil {
		b.log.Warn().Err(err).Str("session_id", session.ID).Msg("set-password: pending setup lookup failed")
		found = false
	}
	if found && !setup.Expired(b.now()) {
		if err := b.setups.Delete(ctx, session.ID); err != nil {
			b.log.Warn().Err(err).Str("session_id", session.ID).Msg("set-password: pending setup not cleared")
		}
		if exchanged {
			if err := b.sessions.Save(ctx, session, b.sessionTTL); err != nil {
				return nil, domain.NewBackendError(err)
			}
		}
		return &ports.SetPasswordResult{Redirect: setup.Destination, Session: session}, nil
	}

	return &ports.SetPasswordResult{
		Redirect: domain.PathLogin,
		Notice:   domain.MsgPasswordSet,
		Session:  session,
	}, nil
}

// currentSession prefers the browser's session and falls back to
// exchanging the setup token for one. An exchanged session is not stored
// yet; Submit saves it only when the caller keeps it as a cookie.
func (b *passwordBootstrap) currentSession(ctx context.Context, in ports.SetPasswordInput) (*domain.Session, bool, error) {
	if in.SessionID != "" {
		s, found, err := b.sessions.Get(ctx, in.SessionID)
		if err != nil {
			b.log.Error().Err(err).Msg("set-password: session lookup failed")
			return nil, false, domain.NewBackendError(err)
		}
		if found {
			return s, false, nil
		}
	}

	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, false, domain.NewAuthenticationError(domain.MsgNoSession)
	}
	grant, err := b.identity.SetSession(ctx, domain.Tokens{AccessToken: token})
	if err != nil {
		b.log.Warn().Err(err).Msg("set-password: token exchange failed")
		return nil, false, domain.NewBackendError(err)
	}
	return domain.NewSession(b.newID(), grant.Tokens, grant.Account), true, nil
}
