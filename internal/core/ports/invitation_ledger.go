package ports

import (
	"context"
	"time"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// InvitationLedger records customer invitations.
type InvitationLedger interface {
	Insert(ctx context.Context, inv *domain.Invitation) error
	// FindPendingByEmail returns the oldest pending invitation for email.
	FindPendingByEmail(ctx context.Context, email string) (inv *domain.Invitation, found bool, err error)
}

// SessionStore keeps portal sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (s *domain.Session, found bool, err error)
	Delete(ctx context.Context, id string) error
}

// PendingSetupStore keeps the first-login handoff record until the password
// is set or the record expires.
type PendingSetupStore interface {
	Save(ctx context.Context, p domain.PendingSetup) error
	Get(ctx context.Context, sessionID string) (p *domain.PendingSetup, found bool, err error)
	Delete(ctx context.Context, sessionID string) error
}
