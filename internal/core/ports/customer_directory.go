package ports

import (
	"context"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// CustomerDirectory defines persistence operations for customer profiles.
// Lookups report absence through found=false; err is reserved for failures.
type CustomerDirectory interface {
	FindByEmail(ctx context.Context, email string) (p *domain.CustomerProfile, found bool, err error)
	FindByUserID(ctx context.Context, userID string) (p *domain.CustomerProfile, found bool, err error)
	FindByID(ctx context.Context, id string) (p *domain.CustomerProfile, found bool, err error)
	// List returns all profiles, newest first.
	List(ctx context.Context) ([]*domain.CustomerProfile, error)
	Insert(ctx context.Context, p *domain.CustomerProfile) (*domain.CustomerProfile, error)
	Update(ctx context.Context, p *domain.CustomerProfile) error
}

// ServiceRequestRepository defines persistence operations for service requests.
type ServiceRequestRepository interface {
	Insert(ctx context.Context, r *domain.ServiceRequest) (*domain.ServiceRequest, error)
	FindByID(ctx context.Context, id string) (r *domain.ServiceRequest, found bool, err error)
	// ListByCustomer returns requests ordered by scheduled date ascending.
	// An empty status returns every status.
	ListByCustomer(ctx context.Context, customerID string, status domain.ServiceStatus) ([]*domain.ServiceRequest, error)
	Update(ctx context.Context, r *domain.ServiceRequest) error
}
