package service

import (
	"bytes"
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

const msgProfileCreateFailed = "Failed to create customer profile. Please contact support."

var warrantyTemplate = template.Must(template.New("warranty").Funcs(template.FuncMap{
	"date":  formatDate,
	"upper": strings.ToUpper,
}).Parse(`GREEN VIEW SOLUTIONS - FENCE WARRANTY AGREEMENT

Customer: {{.Profile.FirstName}} {{.Profile.LastName}}
Address: {{if .Profile.Address}}{{.Profile.Address}}{{else}}N/A{{end}}
Warranty Issue Date: {{date .Profile.WarrantyIssueDate}}
Warranty Status: {{.Summary.Status}}
{{range .Summary.Clauses}}
{{upper .Title}}
{{.Body}}
{{end}}
For questions or to schedule maintenance, please contact Green View Solutions at support@greenviewsolutions.net
`))

type customerService struct {
	directory   ports.CustomerDirectory
	requests    ports.ServiceRequestRepository
	invitations ports.InvitationService
	log         zerolog.Logger
	now         func() time.Time
}

// NewCustomerService returns a CustomerService implementation.
func NewCustomerService(
	directory ports.CustomerDirectory,
	requests ports.ServiceRequestRepository,
	invitations ports.InvitationService,
	log zerolog.Logger,
) ports.CustomerService {
	return &customerService{
		directory:   directory,
		requests:    requests,
		invitations: invitations,
		log:         log,
		now:         time.Now,
	}
}

// EnsureProfile returns the account's profile, linking a staff-created one
// found by email or inserting a new one from account metadata.
// Lookup and insert are separate calls with no lock, so two concurrent first
// visits can both insert.
func (s *customerService) EnsureProfile(ctx context.Context, account domain.Account) (*domain.CustomerProfile, error) {
	p, found, err := s.directory.FindByUserID(ctx, account.ID)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("profile lookup by user failed")
		return nil, domain.NewBackendError(err)
	}
	if found {
		return p, nil
	}

	p, found, err = s.directory.FindByEmail(ctx, account.Email)
	if err != nil {
		s.log.Error().Err(err).Str("email", account.Email).Msg("profile lookup by email failed")
		return nil, domain.NewBackendError(err)
	}
	if found {
		if !p.LinkedTo(account.ID) || !p.HasAccount {
			id := account.ID
			p.UserID = &id
			p.HasAccount = true
			if err := s.directory.Update(ctx, p); err != nil {
				s.log.Error().Err(err).Str("customer_id", p.ID).Msg("profile link failed")
				return nil, domain.NewBackendError(err)
			}
			s.log.Info().Str("customer_id", p.ID).Str("account_id", account.ID).Msg("profile linked to account")
		}
		return p, nil
	}

	id := account.ID
	created, err := s.directory.Insert(ctx, &domain.CustomerProfile{
		UserID:         &id,
		Email:          domain.NormalizeEmail(account.Email),
		FirstName:      account.Meta(domain.MetaFirstName),
		LastName:       account.Meta(domain.MetaLastName),
		WarrantyStatus: domain.WarrantyActive,
		HasAccount:     true,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("profile create failed")
		return nil, &domain.Error{Kind: domain.KindBackend, Message: msgProfileCreateFailed, Err: err}
	}
	s.log.Info().Str("customer_id", created.ID).Str("account_id", account.ID).Msg("profile created on first visit")
	return created, nil
}

func (s *customerService) Dashboard(ctx context.Context, account domain.Account) (*ports.CustomerDashboard, error) {
	p, err := s.EnsureProfile(ctx, account)
	if err != nil {
		return nil, err
	}
	services, err := s.requests.ListByCustomer(ctx, p.ID, "")
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", p.ID).Msg("dashboard: service list failed")
		return nil, domain.NewBackendError(err)
	}

	d := &ports.CustomerDashboard{
		Profile:  p,
		Services: services,
		Warranty: domain.WarrantyFor(*p),
	}
	for _, r := range services {
		switch r.Status {
		case domain.ServiceUpcoming:
			d.UpcomingCount++
		case domain.ServiceCompleted:
			d.CompletedCount++
		}
	}
	return d, nil
}

// WarrantyDocument renders the downloadable warranty agreement.
func (s *customerService) WarrantyDocument(ctx context.Context, account domain.Account) (string, []byte, error) {
	p, err := s.EnsureProfile(ctx, account)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	if err := warrantyTemplate.Execute(&buf, struct {
		Profile *domain.CustomerProfile
		Summary domain.WarrantySummary
	}{p, domain.WarrantyFor(*p)}); err != nil {
		return "", nil, domain.NewBackendError(err)
	}

	name := p.LastName
	if name == "" {
		name = "Customer"
	}
	return "GVS_Warranty_" + name + ".txt", buf.Bytes(), nil
}

// CreateCustomer pre-provisions a profile and invites the customer. The
// profile is kept when the invitation fails; the error is still returned.
func (s *customerService) CreateCustomer(ctx context.Context, in ports.CustomerInput) (*ports.CreateCustomerResult, error) {
	email := domain.NormalizeEmail(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if email == "" || first == "" || last == "" {
		return nil, domain.NewValidationError("Email, first name, and last name are required")
	}

	status := in.WarrantyStatus
	if status == "" {
		status = domain.WarrantyActive
	}
	var createdBy *string
	if in.CreatedBy != "" {
		createdBy = &in.CreatedBy
	}

	p, err := s.directory.Insert(ctx, &domain.CustomerProfile{
		Email:             email,
		FirstName:         first,
		LastName:          last,
		PhoneNumbers:      in.PhoneNumbers,
		Address:           in.Address,
		FenceType:         in.FenceType,
		FenceLength:       in.FenceLength,
		Gates:             in.Gates,
		Color:             in.Color,
		InstallDate:       in.InstallDate,
		WarrantyStatus:    status,
		WarrantyIssueDate: in.WarrantyIssueDate,
		NextReviewDate:    in.NextReviewDate,
		Notes:             in.Notes,
		HasAccount:        false,
		CreatedBy:         createdBy,
		CreatedAt:         s.now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("customer create failed")
		return nil, domain.NewBackendError(err)
	}
	s.log.Info().Str("customer_id", p.ID).Str("created_by", in.CreatedBy).Msg("customer created")

	outcome, err := s.invitations.Dispatch(ctx, ports.InviteInput{
		Email:     email,
		FirstName: first,
		LastName:  last,
		InvitedBy: in.CreatedBy,
	})
	if err != nil {
		return &ports.CreateCustomerResult{Profile: p}, err
	}
	return &ports.CreateCustomerResult{Profile: p, Invite: outcome}, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*domain.CustomerProfile, error) {
	list, err := s.directory.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("customer list failed")
		return nil, domain.NewBackendError(err)
	}
	return list, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*domain.CustomerProfile, error) {
	p, found, err := s.directory.FindByID(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", id).Msg("customer lookup failed")
		return nil, domain.NewBackendError(err)
	}
	if !found {
		return nil, domain.NewNotFoundError("customer not found")
	}
	return p, nil
}

// UpdateCustomer applies a staff edit. Concurrent edits are last-write-wins.
func (s *customerService) UpdateCustomer(ctx context.Context, id string, patch ports.CustomerPatch) (*domain.CustomerProfile, error) {
	p, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(p, patch)
	if err := s.directory.Update(ctx, p); err != nil {
		s.log.Error().Err(err).Str("customer_id", id).Msg("customer update failed")
		return nil, domain.NewBackendError(err)
	}
	return p, nil
}

func applyPatch(p *domain.CustomerProfile, patch ports.CustomerPatch) {
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.PhoneNumbers != nil {
		p.PhoneNumbers = patch.PhoneNumbers
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.FenceType != nil {
		p.FenceType = *patch.FenceType
	}
	if patch.FenceLength != nil {
		p.FenceLength = *patch.FenceLength
	}
	if patch.Gates != nil {
		p.Gates = *patch.Gates
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if patch.InstallDate != nil {
		p.InstallDate = patch.InstallDate
	}
	if patch.WarrantyStatus != nil {
		p.WarrantyStatus = *patch.WarrantyStatus
	}
	if patch.WarrantyIssueDate != nil {
		p.WarrantyIssueDate = patch.WarrantyIssueDate
	}
	if patch.NextReviewDate != nil {
		p.NextReviewDate = patch.NextReviewDate
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02")
}
