package handler

import (
	"time"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type signUpRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Kind     string `json:"kind"     validate:"required,oneof=employee customer"`
}

type signUpResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Notice    string `json:"notice"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	SessionID string      `json:"session_id"`
	Role      domain.Role `json:"role"`
	Email     string      `json:"email"`
	ExpiresAt time.Time   `json:"expires_at"`
	Redirect  string      `json:"redirect"`
	Notice    string      `json:"notice,omitempty"`
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// --- Callback ---

type callbackRequest struct {
	// URL is the full callback URL as seen by the browser, fragment included.
	URL string `json:"url" validate:"required"`
}

type callbackResponse struct {
	State     domain.ResolverState   `json:"state"`
	Trail     []domain.ResolverState `json:"trail"`
	Redirect  string                 `json:"redirect"`
	Message   string                 `json:"message,omitempty"`
	Notice    string                 `json:"notice,omitempty"`
	DelayMs   int64                  `json:"delay_ms"`
	SessionID string                 `json:"session_id,omitempty"`
	Role      domain.Role            `json:"role,omitempty"`
}

// --- Password bootstrap ---

type guardResponse struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// setPasswordRequest carries the new password. Token is the access token
// from the invitation fragment, used when the browser holds no session yet.
type setPasswordRequest struct {
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Token           string `json:"token"`
}

// --- Invitations and customers ---

type inviteRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
}

type inviteResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	InvitationID string `json:"invitation_id,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	ActionLink   string `json:"action_link,omitempty"`
}

type customerRequest struct {
	Email             string   `json:"email"               validate:"required,email"`
	FirstName         string   `json:"first_name"          validate:"required"`
	LastName          string   `json:"last_name"           validate:"required"`
	PhoneNumbers      []string `json:"phone_numbers"`
	Address           string   `json:"address"`
	FenceType         string   `json:"fence_type"`
	FenceLength       float64  `json:"fence_length"        validate:"gte=0"`
	Gates             int      `json:"gates"               validate:"gte=0"`
	Color             string   `json:"color"`
	InstallDate       string   `json:"install_date"        validate:"omitempty,datetime=2006-01-02"`
	WarrantyStatus    string   `json:"warranty_status"`
	WarrantyIssueDate string   `json:"warranty_issue_date" validate:"omitempty,datetime=2006-01-02"`
	NextReviewDate    string   `json:"next_review_date"    validate:"omitempty,datetime=2006-01-02"`
	Notes             string   `json:"notes"`
}

type customerPatchRequest struct {
	FirstName         *string  `json:"first_name"`
	LastName          *string  `json:"last_name"`
	PhoneNumbers      []string `json:"phone_numbers"`
	Address           *string  `json:"address"`
	FenceType         *string  `json:"fence_type"`
	FenceLength       *float64 `json:"fence_length"        validate:"omitempty,gte=0"`
	Gates             *int     `json:"gates"               validate:"omitempty,gte=0"`
	Color             *string  `json:"color"`
	InstallDate       string   `json:"install_date"        validate:"omitempty,datetime=2006-01-02"`
	WarrantyStatus    *string  `json:"warranty_status"`
	WarrantyIssueDate string   `json:"warranty_issue_date" validate:"omitempty,datetime=2006-01-02"`
	NextReviewDate    string   `json:"next_review_date"    validate:"omitempty,datetime=2006-01-02"`
	Notes             *string  `json:"notes"`
}

type createCustomerResponse struct {
	Customer *domain.CustomerProfile `json:"customer"`
	Invite   *inviteResponse         `json:"invite,omitempty"`
	Warning  string                  `json:"warning,omitempty"`
}

// --- Service requests ---

type scheduleRequest struct {
	ServiceType   string `json:"service_type"   validate:"required,oneof=cleaning repair inspection"`
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	PreferredTime string `json:"preferred_time" validate:"required,oneof=morning afternoon evening"`
}

type rescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	PreferredTime string `json:"preferred_time" validate:"omitempty,oneof=morning afternoon evening"`
}

type serviceRequestResponse struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customer_id"`
	ServiceType   domain.ServiceType   `json:"service_type"`
	ScheduledDate string               `json:"scheduled_date"`
	PreferredTime domain.TimeBand      `json:"preferred_time"`
	TimeLabel     string               `json:"time_label"`
	Status        domain.ServiceStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

// --- Dashboards ---

type customerDashboardResponse struct {
	Profile        *domain.CustomerProfile  `json:"profile"`
	Services       []serviceRequestResponse `json:"services"`
	UpcomingCount  int                      `json:"upcoming_count"`
	CompletedCount int                      `json:"completed_count"`
	Warranty       domain.WarrantySummary   `json:"warranty"`
}

type employeeDashboardResponse struct {
	Employee  string                    `json:"employee"`
	Customers []*domain.CustomerProfile `json:"customers"`
	Total     int                       `json:"total"`
}
