package domain

import "time"

// WarrantyActive is the default warranty status for a new customer.
const WarrantyActive = "Active"

// CustomerProfile is the business record for a fencing customer. It may be
// created by staff before the customer has an account, so UserID is nullable.
type CustomerProfile struct {
	ID                string     `json:"id"`
	UserID            *string    `json:"user_id,omitempty"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	PhoneNumbers      []string   `json:"phone_numbers"`
	Address           string     `json:"address"`
	FenceType         string     `json:"fence_type"`
	FenceLength       float64    `json:"fence_length"`
	Gates             int        `json:"gates"`
	Color             string     `json:"color"`
	InstallDate       *time.Time `json:"install_date,omitempty"`
	WarrantyStatus    string     `json:"warranty_status"`
	WarrantyIssueDate *time.Time `json:"warranty_issue_date,omitempty"`
	NextReviewDate    *time.Time `json:"next_review_date,omitempty"`
	Notes             string     `json:"notes"`
	HasAccount        bool       `json:"has_account"`
	CreatedBy         *string    `json:"created_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// FullName joins first and last name.
func (p CustomerProfile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// LinkedTo reports whether the profile is linked to the given account id.
func (p CustomerProfile) LinkedTo(userID string) bool {
	return p.UserID != nil && *p.UserID == userID
}

// InvitationStatus tracks an invitation through the ledger.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
)

// Invitation is a ledger row written when staff invite a customer.
type Invitation struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Status    InvitationStatus `json:"status"`
	UserID    string           `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
