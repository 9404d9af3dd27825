package domain

import "strings"

// Role is decided once from the account email when a session is established.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// Email domains owned by GreenView Solutions. Any other domain is a customer.
const (
	DomainGreenView = "greenviewsolutions.net"
	DomainGVSCo     = "gvsco.net"
)

var companyDomains = []string{DomainGreenView, DomainGVSCo}

// Portal paths the auth flow redirects between.
const (
	PathLogin             = "/login"
	PathSetPassword       = "/set-password"
	PathExpiredLink       = "/expired-link"
	PathAuthCallback      = "/auth/callback"
	PathEmployeeDashboard = "/employee-dashboard"
	PathCustomerDashboard = "/customer-dashboard"
)

// IsCompanyEmail reports whether email belongs to one of the company domains.
func IsCompanyEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, d := range companyDomains {
		if domain == d {
			return true
		}
	}
	return false
}

// ClassifyEmail maps an email address to its portal role.
func ClassifyEmail(email string) Role {
	if IsCompanyEmail(email) {
		return RoleEmployee
	}
	return RoleCustomer
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleCustomer
}

// Dashboard returns the landing page for the role.
func (r Role) Dashboard() string {
	if r == RoleEmployee {
		return PathEmployeeDashboard
	}
	return PathCustomerDashboard
}

// RouteDecision is the outcome of guarding a role-restricted view.
type RouteDecision struct {
	Allowed  bool
	Redirect string
}

// Route decides whether session may view a page that requires role.
// A mismatched role is sent to its own dashboard instead of being denied.
func Route(session *Session, required Role) RouteDecision {
	if session == nil {
		return RouteDecision{Redirect: PathLogin}
	}
	if session.Role != required {
		return RouteDecision{Redirect: session.Role.Dashboard()}
	}
	return RouteDecision{Allowed: true}
}
