package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

const serviceRequestColumns = `id::text, customer_id::text, service_type, scheduled_date, preferred_time, status, created_at`

// ServiceRequestRepository implements ports.ServiceRequestRepository on the
// service_requests table.
type ServiceRequestRepository struct {
	db DB
}

func NewServiceRequestRepository(db DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

var _ ports.ServiceRequestRepository = (*ServiceRequestRepository)(nil)

func (r *ServiceRequestRepository) Insert(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	const q = `
INSERT INTO service_requests (customer_id, service_type, scheduled_date, preferred_time, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + serviceRequestColumns
	out, err := scanServiceRequest(r.db.QueryRow(ctx, q,
		req.CustomerID,
		string(req.ServiceType),
		req.ScheduledDate,
		string(req.PreferredTime),
		string(req.Status),
	))
	if err != nil {
		return nil, fmt.Errorf("insert service request: %w", err)
	}
	return out, nil
}

func (r *ServiceRequestRepository) FindByID(ctx context.Context, id string) (*domain.ServiceRequest, bool, error) {
	const q = `
SELECT ` + serviceRequestColumns + `
FROM service_requests
WHERE id = $1
LIMIT 1
`
	out, err := scanServiceRequest(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find service request: %w", err)
	}
	return out, true, nil
}

// ListByCustomer returns the customer's requests by scheduled date. An empty
// status matches every status.
func (r *ServiceRequestRepository) ListByCustomer(ctx context.Context, customerID string, status domain.ServiceStatus) ([]*domain.ServiceRequest, error) {
	const q = `
SELECT ` + serviceRequestColumns + `
FROM service_requests
WHERE customer_id = $1 AND ($2::text = '' OR status = $2)
ORDER BY scheduled_date ASC, created_at ASC
`
	rows, err := r.db.Query(ctx, q, customerID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	defer rows.Close()

	out := []*domain.ServiceRequest{}
	for rows.Next() {
		sr, err := scanServiceRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service request: %w", err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	return out, nil
}

func (r *ServiceRequestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	const q = `
UPDATE service_requests
SET scheduled_date = $2, preferred_time = $3, status = $4
WHERE id = $1
`
	tag, err := r.db.Exec(ctx, q, req.ID, req.ScheduledDate, string(req.PreferredTime), string(req.Status))
	if err != nil {
		return fmt.Errorf("update service request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("service request not found")
	}
	return nil
}

func scanServiceRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var (
		sr                    domain.ServiceRequest
		serviceType, band, st string
	)
	if err := row.Scan(&sr.ID, &sr.CustomerID, &serviceType, &sr.ScheduledDate, &band, &st, &sr.CreatedAt); err != nil {
		return nil, err
	}
	sr.ServiceType = domain.ServiceType(serviceType)
	sr.PreferredTime = domain.TimeBand(band)
	sr.Status = domain.ServiceStatus(st)
	sr.ScheduledDate = domain.DateOnly(sr.ScheduledDate)
	return &sr, nil
}
