package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

var customerCols = []string{
	"id", "user_id", "email", "first_name", "last_name", "phone_numbers", "address", "fence_type",
	"fence_length", "gates", "color", "install_date", "warranty_status", "warranty_issue_date", "next_review_date",
	"notes", "has_account", "created_by", "created_at",
}

func customerRow(mockPool pgxmock.PgxPoolIface, id string, userID *string, created time.Time) *pgxmock.Rows {
	var nilTime *time.Time
	staff := "staff-1"
	return mockPool.NewRows(customerCols).AddRow(
		id, userID, "c@example.com", "Casey", "Stone", []string{"555-0100"}, "12 Elm St", "cedar",
		float64(120.5), 2, "natural", nilTime, "Active", nilTime, nilTime,
		"", userID != nil, &staff, created,
	)
}

func TestCustomerDirectory_FindByEmail(t *testing.T) {
	t.Run("Should return the oldest matching profile", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		mockPool.ExpectQuery("SELECT (.+) FROM customers WHERE lower\\(email\\) = lower\\(\\$1\\) ORDER BY created_at ASC").
			WithArgs("C@Example.com").
			WillReturnRows(customerRow(mockPool, "cust-1", nil, created))

		p, found, err := repo.FindByEmail(context.Background(), "C@Example.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "cust-1", p.ID)
		assert.Nil(t, p.UserID)
		assert.False(t, p.HasAccount)
		assert.Equal(t, []string{"555-0100"}, p.PhoneNumbers)
		assert.Equal(t, "staff-1", *p.CreatedBy)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should report absence as not found without an error", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)

		mockPool.ExpectQuery("SELECT (.+) FROM customers WHERE lower\\(email\\)").
			WithArgs("nobody@example.com").
			WillReturnRows(mockPool.NewRows(customerCols))

		p, found, err := repo.FindByEmail(context.Background(), "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, p)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should keep query failures distinct from absence", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)

		mockPool.ExpectQuery("SELECT (.+) FROM customers").
			WithArgs("c@example.com").
			WillReturnError(errors.New("connection reset by peer"))

		_, found, err := repo.FindByEmail(context.Background(), "c@example.com")
		assert.ErrorContains(t, err, "connection reset by peer")
		assert.False(t, found)
	})
}

func TestCustomerDirectory_FindByID(t *testing.T) {
	t.Run("Should treat a malformed id as not found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)

		mockPool.ExpectQuery("SELECT (.+) FROM customers WHERE id = \\$1").
			WithArgs("not-a-uuid").
			WillReturnError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})

		_, found, err := repo.FindByID(context.Background(), "not-a-uuid")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestCustomerDirectory_Insert(t *testing.T) {
	t.Run("Should return the generated id and creation time", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		mockPool.ExpectQuery("INSERT INTO customers").
			WillReturnRows(mockPool.NewRows([]string{"id", "created_at"}).AddRow("6f1c0d9e-0000-4000-8000-000000000001", created))

		p, err := repo.Insert(context.Background(), &domain.CustomerProfile{
			Email:          " New@Example.com",
			FirstName:      "Nia",
			LastName:       "Park",
			WarrantyStatus: domain.WarrantyActive,
		})
		require.NoError(t, err)
		assert.Equal(t, "6f1c0d9e-0000-4000-8000-000000000001", p.ID)
		assert.Equal(t, "new@example.com", p.Email)
		assert.Equal(t, []string{}, p.PhoneNumbers)
		assert.True(t, p.CreatedAt.Equal(created))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCustomerDirectory_Update(t *testing.T) {
	t.Run("Should report a missing row as not found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)

		mockPool.ExpectExec("UPDATE customers SET").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.Update(context.Background(), &domain.CustomerProfile{ID: "cust-404"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("Should link the profile to an account", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)
		userID := "u-1"

		mockPool.ExpectExec("UPDATE customers SET").
			WithArgs("cust-1", &userID, "c@example.com", "Casey", "Stone", []string{},
				"", "", float64(0), 0, "", pgxmock.AnyArg(), "Active", pgxmock.AnyArg(), pgxmock.AnyArg(), "", true).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.Update(context.Background(), &domain.CustomerProfile{
			ID: "cust-1", UserID: &userID, Email: "c@example.com", FirstName: "Casey", LastName: "Stone",
			WarrantyStatus: "Active", HasAccount: true,
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCustomerDirectory_List(t *testing.T) {
	t.Run("Should list newest first", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewCustomerDirectory(mockPool)
		u := "u-1"
		newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

		var nilTime *time.Time
		rows := mockPool.NewRows(customerCols).
			AddRow("b", &u, "b@example.com", "B", "B", []string{}, "", "", float64(0), 0, "", nilTime, "Active", nilTime, nilTime, "", true, (*string)(nil), newer).
			AddRow("a", (*string)(nil), "a@example.com", "A", "A", []string{}, "", "", float64(0), 0, "", nilTime, "Active", nilTime, nilTime, "", false, (*string)(nil), older)
		mockPool.ExpectQuery("SELECT (.+) FROM customers ORDER BY created_at DESC").WillReturnRows(rows)

		list, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "b", list[0].ID)
		assert.True(t, list[0].LinkedTo("u-1"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

var serviceCols = []string{"id", "customer_id", "service_type", "scheduled_date", "preferred_time", "status", "created_at"}

func TestServiceRequestRepository(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("Should insert and return the stored row", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewServiceRequestRepository(mockPool)

		mockPool.ExpectQuery("INSERT INTO service_requests").
			WithArgs("cust-1", "cleaning", day, "morning", "upcoming").
			WillReturnRows(mockPool.NewRows(serviceCols).AddRow("svc-1", "cust-1", "cleaning", day, "morning", "upcoming", created))

		sr, err := repo.Insert(context.Background(), &domain.ServiceRequest{
			CustomerID:    "cust-1",
			ServiceType:   domain.ServiceCleaning,
			ScheduledDate: day,
			PreferredTime: domain.BandMorning,
			Status:        domain.ServiceUpcoming,
		})
		require.NoError(t, err)
		assert.Equal(t, "svc-1", sr.ID)
		assert.Equal(t, domain.BandMorning, sr.PreferredTime)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should filter by status", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewServiceRequestRepository(mockPool)

		mockPool.ExpectQuery("SELECT (.+) FROM service_requests WHERE customer_id = \\$1 (.+) ORDER BY scheduled_date ASC").
			WithArgs("cust-1", "upcoming").
			WillReturnRows(mockPool.NewRows(serviceCols).AddRow("svc-1", "cust-1", "repair", day, "evening", "upcoming", created))

		list, err := repo.ListByCustomer(context.Background(), "cust-1", domain.ServiceUpcoming)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.ServiceRepair, list[0].ServiceType)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should report a missing request as not found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewServiceRequestRepository(mockPool)

		mockPool.ExpectQuery("SELECT (.+) FROM service_requests WHERE id = \\$1").
			WithArgs("svc-404").
			WillReturnRows(mockPool.NewRows(serviceCols))

		_, found, err := repo.FindByID(context.Background(), "svc-404")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Should update status", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewServiceRequestRepository(mockPool)

		mockPool.ExpectExec("UPDATE service_requests").
			WithArgs("svc-1", day, "morning", "cancelled").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.Update(context.Background(), &domain.ServiceRequest{
			ID: "svc-1", ScheduledDate: day, PreferredTime: domain.BandMorning, Status: domain.ServiceCancelled,
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
