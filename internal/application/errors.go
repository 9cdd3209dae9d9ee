package application

import "errors"

// Sentinel errors forming the planner's failure taxonomy. Services return
// these (possibly wrapped) rather than panicking; nothing throws across the
// component boundary into the transport layer.
var (
	// ErrInvalidInput marks malformed caller input such as an inverted
	// interval or unparseable identifier. Never retried automatically.
	ErrInvalidInput = errors.New("application: invalid input")
	// ErrNotFound is returned when an entity is absent or belongs to another
	// workspace; the two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a candidate interval overlaps an existing
	// one, whether detected up front or rejected by the store at commit time.
	ErrConflict = errors.New("application: time conflict")
	// ErrUnauthenticated is returned when no valid session accompanies a
	// request.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrNoWorkspace is returned when a session exists but is not bound to a
	// workspace.
	ErrNoWorkspace = errors.New("application: no workspace")
	// ErrStoreUnavailable is returned when the durable store cannot be
	// reached; no fallback value is invented for it.
	ErrStoreUnavailable = errors.New("application: store unavailable")
	// ErrInvalidCredentials is returned when authentication fails. It does
	// not reveal whether the account exists.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when the presented session is past its
	// expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when the presented session was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
