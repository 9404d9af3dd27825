package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

type invitationService struct {
	directory   ports.CustomerDirectory
	identity    ports.IdentityStore
	ledger      ports.InvitationLedger
	callbackURL string
	log         zerolog.Logger
	now         func() time.Time
}

// NewInvitationService returns an InvitationService implementation.
// publicURL is the portal origin the invitation link returns to.
func NewInvitationService(
	directory ports.CustomerDirectory,
	identity ports.IdentityStore,
	ledger ports.InvitationLedger,
	publicURL string,
	log zerolog.Logger,
) ports.InvitationService {
	return &invitationService{
		directory:   directory,
		identity:    identity,
		ledger:      ledger,
		callbackURL: callbackURL(publicURL),
		log:         log,
		now:         time.Now,
	}
}

// Dispatch invites a customer by email unless they already have both a
// profile and an account. The ledger row is written only after the identity
// store accepted the invitation.
func (s *invitationService) Dispatch(ctx context.Context, in ports.InviteInput) (*ports.InviteOutcome, error) {
	email := domain.NormalizeEmail(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if email == "" || first == "" || last == "" {
		return nil, domain.NewValidationError("Email, firstName, and lastName are required")
	}

	profile, found, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("invite: customer lookup failed")
		return nil, domain.NewBackendError(err)
	}
	if found {
		accountID, exists, err := s.existingAccount(ctx, profile)
		if err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("invite: account lookup failed")
			return nil, domain.NewBackendError(err)
		}
		if exists {
			s.log.Info().Str("email", email).Str("account_id", accountID).Msg("invite skipped, customer already has an account")
			return &ports.InviteOutcome{Status: ports.InviteAlreadyHasAccount, AccountID: accountID}, nil
		}
	}

	res, err := s.identity.InviteByEmail(ctx, email, s.callbackURL, map[string]string{
		domain.MetaFirstName: first,
		domain.MetaLastName:  last,
		domain.MetaUserType:  string(domain.RoleCustomer),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("invite: identity store rejected invitation")
		return nil, domain.NewInvitationDispatchError(err)
	}

	inv := &domain.Invitation{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Status:    domain.InvitationPending,
		UserID:    res.Account.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.ledger.Insert(ctx, inv); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("invite: ledger insert failed")
		return nil, domain.NewBackendError(err)
	}

	s.log.Info().Str("email", email).Str("invited_by", in.InvitedBy).Msg("invitation sent")

	return &ports.InviteOutcome{
		Status:     ports.InviteSent,
		Invitation: inv,
		AccountID:  res.Account.ID,
		ActionLink: res.ActionLink,
	}, nil
}

// existingAccount reports whether an identity account exists for the
// profile, trusting the profile link before asking the identity store.
func (s *invitationService) existingAccount(ctx context.Context, p *domain.CustomerProfile) (string, bool, error) {
	if p.HasAccount && p.UserID != nil {
		return *p.UserID, true, nil
	}
	accounts, err := s.identity.ListUsers(ctx)
	if err != nil {
		return "", false, err
	}
	email := domain.NormalizeEmail(p.Email)
	for _, a := range accounts {
		if domain.NormalizeEmail(a.Email) == email {
			return a.ID, true, nil
		}
	}
	return "", false, nil
}

func callbackURL(publicURL string) string {
	return strings.TrimRight(publicURL, "/") + domain.PathAuthCallback
}
