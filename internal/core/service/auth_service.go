package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// DevTestEmail may sign up as a customer without an invitation when the
// service runs in development mode.
const DevTestEmail = "test@example.com"

// AuthOptions configures AuthService.
type AuthOptions struct {
	PublicURL  string
	SessionTTL time.Duration
	// DevMode enables the sign-up escape hatch for company addresses and
	// DevTestEmail.
	DevMode bool
}

// AuthService implements sign-up, sign-in, sign-out and link re-issue.
type AuthService struct {
	identity    ports.IdentityStore
	directory   ports.CustomerDirectory
	ledger      ports.InvitationLedger
	sessions    ports.SessionStore
	setups      ports.PendingSetupStore
	callbackURL string
	sessionTTL  time.Duration
	devMode     bool
	log         zerolog.Logger
	newID       func() string
}

func NewAuthService(
	identity ports.IdentityStore,
	directory ports.CustomerDirectory,
	ledger ports.InvitationLedger,
	sessions ports.SessionStore,
	setups ports.PendingSetupStore,
	opts AuthOptions,
	log zerolog.Logger,
) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	return &AuthService{
		identity:    identity,
		directory:   directory,
		ledger:      ledger,
		sessions:    sessions,
		setups:      setups,
		callbackURL: callbackURL(opts.PublicURL),
		sessionTTL:  opts.SessionTTL,
		devMode:     opts.DevMode,
		log:         log,
		newID:       uuid.NewString,
	}
}

// SignUp registers an employee or an eligible customer. No session is
// created: the account must be verified by email first.
func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError("Email and password are required")
	}

	switch in.Kind {
	case domain.RoleEmployee:
		if !domain.IsCompanyEmail(email) {
			return nil, domain.NewValidationError(domain.MsgEmployeeDomain)
		}
	case domain.RoleCustomer:
		if err := s.checkEligibility(ctx, email); err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewValidationError("sign-up type must be employee or customer")
	}

	account, err := s.identity.SignUp(ctx, email, in.Password, map[string]string{
		domain.MetaRole: string(in.Kind),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("sign-up rejected")
		return nil, domain.NewBackendError(err)
	}

	s.log.Info().Str("email", email).Str("kind", string(in.Kind)).Msg("account signed up")
	return &ports.SignUpResult{Account: account, Notice: domain.MsgCheckEmail}, nil
}

// checkEligibility admits a customer with a pending invitation or an
// existing profile. In dev mode company addresses and DevTestEmail pass too.
func (s *AuthService) checkEligibility(ctx context.Context, email string) error {
	_, found, err := s.ledger.FindPendingByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("eligibility: invitation lookup failed")
		return domain.NewBackendError(err)
	}
	if found {
		return nil
	}

	_, found, err = s.directory.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("eligibility: customer lookup failed")
		return domain.NewBackendError(err)
	}
	if found {
		return nil
	}

	if s.devMode && (domain.IsCompanyEmail(email) || email == DevTestEmail) {
		s.log.Warn().Str("email", email).Msg("eligibility: development bypass used")
		return nil
	}
	return domain.NewEligibilityError(domain.MsgNotInvited)
}

// SignIn authenticates with email and password and opens a portal session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Email and password are required")
	}

	grant, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		s.log.Info().Err(err).Str("email", email).Msg("sign-in failed")
		return nil, domain.NewBackendError(err)
	}

	session := domain.NewSession(s.newID(), grant.Tokens, grant.Account)
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		s.log.Error().Err(err).Msg("sign-in: session save failed")
		return nil, domain.NewBackendError(err)
	}

	s.log.Info().Str("account_id", session.Account.ID).Str("role", string(session.Role)).Msg("signed in")
	return &ports.SignInResult{Session: session, Redirect: session.Role.Dashboard()}, nil
}

// SignOut ends the portal session and any password setup still pending on it.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	session, found, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.NewBackendError(err)
	}
	if found {
		if err := s.identity.SignOut(ctx, session.AccessToken); err != nil {
			s.log.Warn().Err(err).Str("account_id", session.Account.ID).Msg("sign-out: identity store call failed")
		}
	}
	if err := s.setups.Delete(ctx, sessionID); err != nil {
		return domain.NewBackendError(err)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return domain.NewBackendError(err)
	}
	return nil
}

// RequestMagicLink sends a fresh sign-in link to a known customer.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewValidationError("Email is required")
	}

	_, found, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("magic-link: customer lookup failed")
		return domain.NewBackendError(err)
	}
	if !found {
		_, found, err = s.ledger.FindPendingByEmail(ctx, email)
		if err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("magic-link: invitation lookup failed")
			return domain.NewBackendError(err)
		}
	}
	if !found {
		return domain.NewEligibilityError(domain.MsgNotInvited)
	}

	if err := s.identity.SendMagicLink(ctx, email, s.callbackURL); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("magic-link: send failed")
		return domain.NewBackendError(err)
	}
	s.log.Info().Str("email", email).Msg("magic link re-issued")
	return nil
}

func (s *AuthService) CurrentSession(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	if sessionID == "" {
		return nil, false, nil
	}
	session, found, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, domain.NewBackendError(err)
	}
	return session, found, nil
}
