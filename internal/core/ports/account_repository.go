package ports

import (
	"context"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// AccountRepository defines persistence for the self-hosted identity store.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	List(ctx context.Context) ([]domain.Account, error)
}
