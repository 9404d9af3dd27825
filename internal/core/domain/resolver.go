package domain

// ResolverState is a step of the magic-link callback state machine.
type ResolverState string

const (
	StateArriving           ResolverState = "arriving"
	StateErrorInURL         ResolverState = "error_in_url"
	StateLinkExpired        ResolverState = "link_expired"
	StateTokenExchange      ResolverState = "token_exchange"
	StateSessionEstablished ResolverState = "session_established"
	StateFirstLogin         ResolverState = "first_login"
	StateReturningLogin     ResolverState = "returning_login"
	StateRedirected         ResolverState = "redirected"
	StateFailed             ResolverState = "failed"
)

// resolverTransitions defines the allowed state machine transitions.
// Arriving may skip TokenExchange when the session comes from the cookie or
// the fragment.
var resolverTransitions = map[ResolverState][]ResolverState{
	StateArriving:           {StateErrorInURL, StateLinkExpired, StateTokenExchange, StateSessionEstablished, StateFailed},
	StateTokenExchange:      {StateSessionEstablished, StateFailed},
	StateSessionEstablished: {StateFirstLogin, StateReturningLogin, StateFailed},
	StateFirstLogin:         {StateRedirected, StateFailed},
	StateReturningLogin:     {StateRedirected},
}

// CanTransitionTo reports whether a transition from current state to next is valid.
func (s ResolverState) CanTransitionTo(next ResolverState) bool {
	for _, allowed := range resolverTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Callback error codes delivered in the redirect URL.
const ErrorCodeOTPExpired = "otp_expired"

// Messages shown by the auth flow.
const (
	MsgAuthFailedNotice  = "Authentication failed. Please try logging in again."
	MsgCheckEmail        = "Please check your email for verification link"
	MsgPasswordSet       = "Password set successfully. Please log in."
	MsgPasswordsMismatch = "Passwords do not match"
	MsgEmployeeDomain    = "Only @greenviewsolutions.net or @gvsco.net email addresses can sign up"
	MsgNotInvited        = "Your email is not in our system. Please contact GreenView Solutions to create an account."
	MsgNoSession         = "No session found. Please try logging in again."
	MsgLinkExpired       = "Email link is invalid or has expired"
)
