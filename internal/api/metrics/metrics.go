// Package metrics defines and registers the custom Prometheus metrics of the
// GreenView portal. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

const namespace = "portal"

// ResultOK is the result label of a successful operation.
const ResultOK = "ok"

// Result returns ResultOK for a nil error and the error kind otherwise.
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	return string(domain.KindOf(err))
}

// ── Onboarding metrics ────────────────────────────────────────────────────────

// InvitationsTotal counts customer invitation attempts.
// Label:
//   - result: "sent", "already_has_account", or the error kind on failure
var InvitationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invitations_total",
		Help:      "Total number of customer invitation attempts, by result.",
	},
	[]string{"result"},
)

// CallbackResolutionsTotal counts magic-link callbacks by terminal state.
// Label:
//   - state: the resolver state the callback ended in (e.g. "redirected", "failed")
var CallbackResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "callback_resolutions_total",
		Help:      "Total number of magic-link callbacks resolved, by terminal state.",
	},
	[]string{"state"},
)

// FirstLoginsTotal counts callbacks that sent the user to set a password.
var FirstLoginsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "first_logins_total",
		Help:      "Total number of callbacks that required a first-time password setup.",
	},
)

// SignUpsTotal counts sign-up attempts.
// Labels:
//   - kind: "employee" or "customer"
//   - result: "ok" or the error kind on failure
var SignUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of sign-up attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)

// SignInsTotal counts password sign-in attempts.
// Label:
//   - result: "ok" or the error kind on failure
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of password sign-in attempts, by result.",
	},
	[]string{"result"},
)

// PasswordSetupsTotal counts password bootstrap submissions.
// Label:
//   - result: "ok" or the error kind on failure
var PasswordSetupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_setups_total",
		Help:      "Total number of password setup submissions, by result.",
	},
	[]string{"result"},
)

// ── Routing metrics ───────────────────────────────────────────────────────────

// RoleRedirectsTotal counts soft redirects issued by the role router.
// Labels:
//   - required: the role the view requires
//   - to: the path the caller was sent to
var RoleRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_redirects_total",
		Help:      "Total number of role-router redirects, by required role and target.",
	},
	[]string{"required", "to"},
)

// ── Service scheduling metrics ────────────────────────────────────────────────

// ServiceRequestsTotal counts service request mutations.
// Labels:
//   - action: "schedule", "reschedule", or "cancel"
//   - result: "ok" or the error kind on failure
var ServiceRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "service_requests_total",
		Help:      "Total number of service request mutations, by action and result.",
	},
	[]string{"action", "result"},
)
