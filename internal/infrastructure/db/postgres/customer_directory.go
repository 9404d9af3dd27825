package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

const pgInvalidTextFormat = "22P02"

const customerColumns = `id::text, user_id, email, first_name, last_name, phone_numbers, address, fence_type,
       fence_length, gates, color, install_date, warranty_status, warranty_issue_date, next_review_date,
       notes, has_account, created_by, created_at`

// CustomerDirectory implements ports.CustomerDirectory on the customers table.
// Email is not unique; single-row lookups return the oldest match.
type CustomerDirectory struct {
	db DB
}

func NewCustomerDirectory(db DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

var _ ports.CustomerDirectory = (*CustomerDirectory)(nil)

func (r *CustomerDirectory) FindByEmail(ctx context.Context, email string) (*domain.CustomerProfile, bool, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE lower(email) = lower($1)
ORDER BY created_at ASC
LIMIT 1
`
	return r.findOne(r.db.QueryRow(ctx, q, email))
}

func (r *CustomerDirectory) FindByUserID(ctx context.Context, userID string) (*domain.CustomerProfile, bool, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE user_id = $1
ORDER BY created_at ASC
LIMIT 1
`
	return r.findOne(r.db.QueryRow(ctx, q, userID))
}

func (r *CustomerDirectory) FindByID(ctx context.Context, id string) (*domain.CustomerProfile, bool, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE id = $1
LIMIT 1
`
	return r.findOne(r.db.QueryRow(ctx, q, id))
}

func (r *CustomerDirectory) List(ctx context.Context) ([]*domain.CustomerProfile, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []*domain.CustomerProfile{}
	for rows.Next() {
		p, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (r *CustomerDirectory) Insert(ctx context.Context, p *domain.CustomerProfile) (*domain.CustomerProfile, error) {
	const q = `
INSERT INTO customers (
    user_id, email, first_name, last_name, phone_numbers, address, fence_type, fence_length, gates, color,
    install_date, warranty_status, warranty_issue_date, next_review_date, notes, has_account, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id::text, created_at
`
	phones := p.PhoneNumbers
	if phones == nil {
		phones = []string{}
	}
	out := *p
	out.PhoneNumbers = phones
	out.Email = domain.NormalizeEmail(p.Email)
	err := r.db.QueryRow(ctx, q,
		p.UserID,
		out.Email,
		p.FirstName,
		p.LastName,
		phones,
		p.Address,
		p.FenceType,
		p.FenceLength,
		p.Gates,
		p.Color,
		p.InstallDate,
		p.WarrantyStatus,
		p.WarrantyIssueDate,
		p.NextReviewDate,
		p.Notes,
		p.HasAccount,
		p.CreatedBy,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return &out, nil
}

// Update overwrites every mutable column. Concurrent edits are
// last-write-wins.
func (r *CustomerDirectory) Update(ctx context.Context, p *domain.CustomerProfile) error {
	const q = `
UPDATE customers SET
    user_id = $2, email = $3, first_name = $4, last_name = $5, phone_numbers = $6, address = $7,
    fence_type = $8, fence_length = $9, gates = $10, color = $11, install_date = $12,
    warranty_status = $13, warranty_issue_date = $14, next_review_date = $15, notes = $16, has_account = $17
WHERE id = $1
`
	phones := p.PhoneNumbers
	if phones == nil {
		phones = []string{}
	}
	tag, err := r.db.Exec(ctx, q,
		p.ID,
		p.UserID,
		domain.NormalizeEmail(p.Email),
		p.FirstName,
		p.LastName,
		phones,
		p.Address,
		p.FenceType,
		p.FenceLength,
		p.Gates,
		p.Color,
		p.InstallDate,
		p.WarrantyStatus,
		p.WarrantyIssueDate,
		p.NextReviewDate,
		p.Notes,
		p.HasAccount,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("customer not found")
	}
	return nil
}

func (r *CustomerDirectory) findOne(row pgx.Row) (*domain.CustomerProfile, bool, error) {
	p, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find customer: %w", err)
	}
	return p, true, nil
}

func scanCustomer(row pgx.Row) (*domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.PhoneNumbers,
		&p.Address,
		&p.FenceType,
		&p.FenceLength,
		&p.Gates,
		&p.Color,
		&p.InstallDate,
		&p.WarrantyStatus,
		&p.WarrantyIssueDate,
		&p.NextReviewDate,
		&p.Notes,
		&p.HasAccount,
		&p.CreatedBy,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// isInvalidInput reports a malformed uuid, which cannot match any row.
func isInvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextFormat
}
