package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// ProfileEnsurer abstracts lazy profile creation (CustomerService).
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, account domain.Account) (*domain.CustomerProfile, error)
}

type serviceRequestService struct {
	requests  ports.ServiceRequestRepository
	directory ports.CustomerDirectory
	profiles  ProfileEnsurer
	log       zerolog.Logger
	now       func() time.Time
}

// NewServiceRequestService returns a ServiceRequestService implementation.
func NewServiceRequestService(
	requests ports.ServiceRequestRepository,
	directory ports.CustomerDirectory,
	profiles ProfileEnsurer,
	log zerolog.Logger,
) ports.ServiceRequestService {
	return &serviceRequestService{
		requests:  requests,
		directory: directory,
		profiles:  profiles,
		log:       log,
		now:       time.Now,
	}
}

// Schedule books a visit, creating the customer's profile first if needed.
func (s *serviceRequestService) Schedule(ctx context.Context, account domain.Account, in ports.ScheduleInput) (*domain.ServiceRequest, error) {
	st := domain.ServiceType(in.ServiceType)
	if !st.Valid() {
		return nil, domain.NewValidationError("service type must be one of: cleaning, repair, inspection")
	}
	band := domain.TimeBand(in.PreferredTime)
	if !band.Valid() {
		return nil, domain.NewValidationError("preferred time must be one of: morning, afternoon, evening")
	}
	if err := s.checkDate(in.ScheduledDate); err != nil {
		return nil, err
	}

	p, err := s.profiles.EnsureProfile(ctx, account)
	if err != nil {
		return nil, err
	}

	created, err := s.requests.Insert(ctx, &domain.ServiceRequest{
		CustomerID:    p.ID,
		ServiceType:   st,
		ScheduledDate: domain.DateOnly(in.ScheduledDate),
		PreferredTime: band,
		Status:        domain.ServiceUpcoming,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", p.ID).Msg("service schedule failed")
		return nil, domain.NewBackendError(err)
	}

	s.log.Info().
		Str("service_id", created.ID).
		Str("customer_id", p.ID).
		Str("type", string(st)).
		Str("band", band.Label()).
		Msg("service scheduled")
	return created, nil
}

// List returns the account's requests by scheduled date. An account with no
// profile has no requests.
func (s *serviceRequestService) List(ctx context.Context, account domain.Account, status string) ([]*domain.ServiceRequest, error) {
	st := domain.ServiceStatus(status)
	switch st {
	case "", domain.ServiceUpcoming, domain.ServiceCompleted, domain.ServiceCancelled:
	default:
		return nil, domain.NewValidationError("status must be one of: upcoming, completed, cancelled")
	}

	p, err := s.profileOf(ctx, account)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return []*domain.ServiceRequest{}, nil
	}

	list, err := s.requests.ListByCustomer(ctx, p.ID, st)
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", p.ID).Msg("service list failed")
		return nil, domain.NewBackendError(err)
	}
	return list, nil
}

// Reschedule moves an upcoming request to a new date and, optionally, band.
func (s *serviceRequestService) Reschedule(ctx context.Context, account domain.Account, id string, in ports.RescheduleInput) (*domain.ServiceRequest, error) {
	r, err := s.owned(ctx, account, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ServiceUpcoming {
		return nil, domain.NewValidationError(fmt.Sprintf("cannot reschedule a %s service", r.Status))
	}
	if err := s.checkDate(in.ScheduledDate); err != nil {
		return nil, err
	}
	if in.PreferredTime != "" {
		band := domain.TimeBand(in.PreferredTime)
		if !band.Valid() {
			return nil, domain.NewValidationError("preferred time must be one of: morning, afternoon, evening")
		}
		r.PreferredTime = band
	}
	r.ScheduledDate = domain.DateOnly(in.ScheduledDate)

	if err := s.requests.Update(ctx, r); err != nil {
		s.log.Error().Err(err).Str("service_id", id).Msg("service reschedule failed")
		return nil, domain.NewBackendError(err)
	}
	s.log.Info().Str("service_id", id).Time("scheduled_date", r.ScheduledDate).Msg("service rescheduled")
	return r, nil
}

// Cancel moves an upcoming request to cancelled.
func (s *serviceRequestService) Cancel(ctx context.Context, account domain.Account, id string) (*domain.ServiceRequest, error) {
	r, err := s.owned(ctx, account, id)
	if err != nil {
		return nil, err
	}
	if !r.Status.CanTransitionTo(domain.ServiceCancelled) {
		return nil, domain.NewValidationError(fmt.Sprintf("cannot cancel a %s service", r.Status))
	}
	r.Status = domain.ServiceCancelled

	if err := s.requests.Update(ctx, r); err != nil {
		s.log.Error().Err(err).Str("service_id", id).Msg("service cancel failed")
		return nil, domain.NewBackendError(err)
	}
	s.log.Info().Str("service_id", id).Msg("service cancelled")
	return r, nil
}

func (s *serviceRequestService) checkDate(date time.Time) error {
	if date.IsZero() {
		return domain.NewValidationError("scheduled date is required")
	}
	if domain.IsPastDate(date, s.now().UTC()) {
		return domain.NewValidationError("scheduled date cannot be in the past")
	}
	return nil
}

// owned loads a request and hides requests of other customers as not found.
func (s *serviceRequestService) owned(ctx context.Context, account domain.Account, id string) (*domain.ServiceRequest, error) {
	r, found, err := s.requests.FindByID(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("service_id", id).Msg("service lookup failed")
		return nil, domain.NewBackendError(err)
	}
	if !found {
		return nil, domain.NewNotFoundError("service request not found")
	}
	p, err := s.profileOf(ctx, account)
	if err != nil {
		return nil, err
	}
	if p == nil || r.CustomerID != p.ID {
		return nil, domain.NewNotFoundError("service request not found")
	}
	return r, nil
}

// profileOf looks up the account's profile without creating one.
func (s *serviceRequestService) profileOf(ctx context.Context, account domain.Account) (*domain.CustomerProfile, error) {
	p, found, err := s.directory.FindByUserID(ctx, account.ID)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("profile lookup failed")
		return nil, domain.NewBackendError(err)
	}
	if found {
		return p, nil
	}
	p, found, err = s.directory.FindByEmail(ctx, account.Email)
	if err != nil {
		s.log.Error().Err(err).Str("email", account.Email).Msg("profile lookup failed")
		return nil, domain.NewBackendError(err)
	}
	if !found {
		return nil, nil
	}
	return p, nil
}
