package ports

import (
	"context"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// InviteInput is the staff request to invite a customer.
type InviteInput struct {
	Email     string
	FirstName string
	LastName  string
	InvitedBy string
}

type InviteStatus string

const (
	InviteSent              InviteStatus = "sent"
	InviteAlreadyHasAccount InviteStatus = "already_has_account"
)

// InviteOutcome reports what the dispatcher did.
type InviteOutcome struct {
	Status     InviteStatus
	Invitation *domain.Invitation
	AccountID  string
	ActionLink string
}

// InvitationService sends customer invitations.
type InvitationService interface {
	Dispatch(ctx context.Context, in InviteInput) (*InviteOutcome, error)
}
