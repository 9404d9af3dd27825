package ports

import (
	"context"
	"time"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// ScheduleInput carries the fields of the schedule-service form.
type ScheduleInput struct {
	ServiceType   string
	ScheduledDate time.Time
	PreferredTime string
}

// RescheduleInput moves an upcoming request. An empty PreferredTime keeps
// the current band.
type RescheduleInput struct {
	ScheduledDate time.Time
	PreferredTime string
}

// ServiceRequestService lets customers book and manage visits.
type ServiceRequestService interface {
	Schedule(ctx context.Context, account domain.Account, in ScheduleInput) (*domain.ServiceRequest, error)
	List(ctx context.Context, account domain.Account, status string) ([]*domain.ServiceRequest, error)
	Reschedule(ctx context.Context, account domain.Account, id string, in RescheduleInput) (*domain.ServiceRequest, error)
	Cancel(ctx context.Context, account domain.Account, id string) (*domain.ServiceRequest, error)
}

// CustomerDashboard is the data behind the customer landing page.
type CustomerDashboard struct {
	Profile        *domain.CustomerProfile  `json:"profile"`
	Services       []*domain.ServiceRequest `json:"services"`
	UpcomingCount  int                      `json:"upcoming_count"`
	CompletedCount int                      `json:"completed_count"`
	Warranty       domain.WarrantySummary   `json:"warranty"`
}

// CustomerInput carries the staff customer form.
type CustomerInput struct {
	Email             string
	FirstName         string
	LastName          string
	PhoneNumbers      []string
	Address           string
	FenceType         string
	FenceLength       float64
	Gates             int
	Color             string
	InstallDate       *time.Time
	WarrantyStatus    string
	WarrantyIssueDate *time.Time
	NextReviewDate    *time.Time
	Notes             string
	CreatedBy         string
}

// CustomerPatch updates only the non-nil fields.
type CustomerPatch struct {
	FirstName         *string
	LastName          *string
	PhoneNumbers      []string
	Address           *string
	FenceType         *string
	FenceLength       *float64
	Gates             *int
	Color             *string
	InstallDate       *time.Time
	WarrantyStatus    *string
	WarrantyIssueDate *time.Time
	NextReviewDate    *time.Time
	Notes             *string
}

type CreateCustomerResult struct {
	Profile *domain.CustomerProfile
	Invite  *InviteOutcome
}

// CustomerService serves customer records to both dashboards.
type CustomerService interface {
	EnsureProfile(ctx context.Context, account domain.Account) (*domain.CustomerProfile, error)
	Dashboard(ctx context.Context, account domain.Account) (*CustomerDashboard, error)
	WarrantyDocument(ctx context.Context, account domain.Account) (filename string, body []byte, err error)
	CreateCustomer(ctx context.Context, in CustomerInput) (*CreateCustomerResult, error)
	ListCustomers(ctx context.Context) ([]*domain.CustomerProfile, error)
	GetCustomer(ctx context.Context, id string) (*domain.CustomerProfile, error)
	UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*domain.CustomerProfile, error)
}
