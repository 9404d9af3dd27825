package domain

import "errors"

// Kind is the closed set of failure categories surfaced by the portal.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindEligibility        Kind = "eligibility"
	KindAuthentication     Kind = "authentication"
	KindInvitationDispatch Kind = "invitation_dispatch"
	KindBackend            Kind = "backend"
	KindLinkExpired        Kind = "link_expired"
	KindNotFound           Kind = "not_found"
)

// Error is the single error shape returned by services and adapters.
// Message is shown to the user as is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels (errors with no message) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrEligibility        = &Error{Kind: KindEligibility}
	ErrAuthentication     = &Error{Kind: KindAuthentication}
	ErrInvitationDispatch = &Error{Kind: KindInvitationDispatch}
	ErrBackend            = &Error{Kind: KindBackend}
	ErrLinkExpired        = &Error{Kind: KindLinkExpired}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewEligibilityError(msg string) *Error {
	return &Error{Kind: KindEligibility, Message: msg}
}

func NewAuthenticationError(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func NewInvitationDispatchError(err error) *Error {
	return &Error{Kind: KindInvitationDispatch, Message: messageOf(err), Err: err}
}

// NewBackendError wraps a collaborator failure. The cause's message is kept
// verbatim unless it is already a classified *Error, which is returned as is.
func NewBackendError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: KindBackend, Message: messageOf(err), Err: err}
}

func NewLinkExpiredError(msg string) *Error {
	return &Error{Kind: KindLinkExpired, Message: msg}
}

func NewNotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// KindOf returns the kind of err, or KindBackend when err is unclassified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindBackend
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
