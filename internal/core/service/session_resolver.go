package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// FailureRedirectDelay is how long a failed callback shows its message
// before sending the user back to sign-in.
const FailureRedirectDelay = 3 * time.Second

const (
	defaultSessionTTL = 24 * time.Hour
	defaultSetupTTL   = time.Hour
)

// ResolverOptions tunes how long resolved state is kept.
type ResolverOptions struct {
	SessionTTL      time.Duration
	PendingSetupTTL time.Duration
}

type sessionResolver struct {
	identity   ports.IdentityStore
	sessions   ports.SessionStore
	setups     ports.PendingSetupStore
	sessionTTL time.Duration
	setupTTL   time.Duration
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewSessionResolver returns a SessionResolver implementation.
func NewSessionResolver(
	identity ports.IdentityStore,
	sessions ports.SessionStore,
	setups ports.PendingSetupStore,
	opts ResolverOptions,
	log zerolog.Logger,
) ports.SessionResolver {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.PendingSetupTTL <= 0 {
		opts.PendingSetupTTL = defaultSetupTTL
	}
	return &sessionResolver{
		identity:   identity,
		sessions:   sessions,
		setups:     setups,
		sessionTTL: opts.SessionTTL,
		setupTTL:   opts.PendingSetupTTL,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Resolve runs the callback state machine to a terminal state. It never
// returns an error: failures become a Failed resolution that redirects to
// sign-in after FailureRedirectDelay.
func (r *sessionResolver) Resolve(ctx context.Context, in ports.CallbackInput) *ports.Resolution {
	res := &ports.Resolution{
		State: domain.StateArriving,
		Trail: []domain.ResolverState{domain.StateArriving},
	}

	params := callbackParams(in.Query, in.Fragment)
	code := params.Get("error_code")
	if code == domain.ErrorCodeOTPExpired {
		r.advance(res, domain.StateLinkExpired)
		res.Redirect = domain.PathExpiredLink
		res.Message = firstNonEmpty(params.Get("error_description"), domain.MsgLinkExpired)
		r.log.Info().Msg("callback: magic link expired")
		return res
	}
	if errParam := params.Get("error"); errParam != "" || code != "" {
		r.advance(res, domain.StateErrorInURL)
		res.Message = firstNonEmpty(params.Get("error_description"), errParam, code)
		res.Notice = domain.MsgAuthFailedNotice
		res.Redirect = domain.PathLogin
		res.Delay = FailureRedirectDelay
		r.log.Warn().Str("error", errParam).Str("error_code", code).Msg("callback: error in redirect")
		return res
	}

	session, err := r.establish(ctx, res, in)
	if err != nil {
		return r.fail(res, err)
	}
	if !r.advance(res, domain.StateSessionEstablished) {
		return r.fail(res, domain.NewAuthenticationError(domain.MsgNoSession))
	}

	if domain.IsFirstLogin(session.Account) {
		r.advance(res, domain.StateFirstLogin)
		now := r.now().UTC()
		setup := domain.PendingSetup{
			SessionID:   session.ID,
			Destination: session.Role.Dashboard(),
			CreatedAt:   now,
			ExpiresAt:   now.Add(r.setupTTL),
		}
		if err := r.setups.Save(ctx, setup); err != nil {
			return r.fail(res, domain.NewBackendError(err))
		}
		r.advance(res, domain.StateRedirected)
		res.Redirect = domain.PathSetPassword
		res.Session = session
		r.log.Info().Str("account_id", session.Account.ID).Str("destination", setup.Destination).Msg("callback: first login, password setup required")
		return res
	}

	r.advance(res, domain.StateReturningLogin)
	r.advance(res, domain.StateRedirected)
	res.Redirect = session.Role.Dashboard()
	res.Session = session
	r.log.Info().Str("account_id", session.Account.ID).Str("role", string(session.Role)).Msg("callback: returning login")
	return res
}

// establish finds a session from explicit query tokens, the browser's
// existing session, or the redirect fragment, in that order.
func (r *sessionResolver) establish(ctx context.Context, res *ports.Resolution, in ports.CallbackInput) (*domain.Session, error) {
	if access := in.Query.Get("access_token"); access != "" {
		r.advance(res, domain.StateTokenExchange)
		grant, err := r.identity.SetSession(ctx, domain.Tokens{
			AccessToken:  access,
			RefreshToken: in.Query.Get("refresh_token"),
		})
		if err != nil {
			return nil, domain.NewBackendError(err)
		}
		return r.persist(ctx, grant)
	}

	if in.SessionID != "" {
		existing, found, err := r.sessions.Get(ctx, in.SessionID)
		if err != nil {
			return nil, domain.NewBackendError(err)
		}
		if found {
			return r.refresh(ctx, existing), nil
		}
	}

	grant, found, err := r.identity.ResolveFragment(ctx, in.Fragment)
	if err != nil {
		return nil, domain.NewBackendError(err)
	}
	if !found {
		return nil, domain.NewAuthenticationError("Failed to authenticate with the provided token")
	}
	return r.persist(ctx, grant)
}

// refresh replaces the account snapshot of a stored session with the
// identity store's current view. The role stays as the session fixed it.
func (r *sessionResolver) refresh(ctx context.Context, session *domain.Session) *domain.Session {
	account, err := r.identity.GetUser(ctx, session.AccessToken)
	if err != nil {
		r.log.Warn().Err(err).Str("session_id", session.ID).Msg("callback: account refresh failed, using stored snapshot")
		return session
	}
	refreshed := *session
	refreshed.Account = *account
	return &refreshed
}

func (r *sessionResolver) persist(ctx context.Context, grant *domain.AuthGrant) (*domain.Session, error) {
	session := domain.NewSession(r.newID(), grant.Tokens, grant.Account)
	if err := r.sessions.Save(ctx, session, r.sessionTTL); err != nil {
		return nil, domain.NewBackendError(err)
	}
	return session, nil
}

// advance records a transition; it refuses transitions the state table
// does not allow.
func (r *sessionResolver) advance(res *ports.Resolution, next domain.ResolverState) bool {
	if !res.State.CanTransitionTo(next) {
		r.log.Error().Str("from", string(res.State)).Str("to", string(next)).Msg("callback: invalid state transition")
		return false
	}
	res.State = next
	res.Trail = append(res.Trail, next)
	return true
}

func (r *sessionResolver) fail(res *ports.Resolution, err error) *ports.Resolution {
	r.log.Warn().Err(err).Str("state", string(res.State)).Msg("callback: authentication failed")
	res.State = domain.StateFailed
	res.Trail = append(res.Trail, domain.StateFailed)
	res.Message = err.Error()
	res.Notice = domain.MsgAuthFailedNotice
	res.Redirect = domain.PathLogin
	res.Delay = FailureRedirectDelay
	res.Session = nil
	return res
}

// callbackParams merges the query string with a fragment shaped like a query
// string. Query values win.
func callbackParams(query url.Values, fragment string) url.Values {
	merged := url.Values{}
	if frag, err := url.ParseQuery(strings.TrimPrefix(fragment, "#")); err == nil {
		for k, v := range frag {
			merged[k] = v
		}
	}
	for k, v := range query {
		merged[k] = v
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
