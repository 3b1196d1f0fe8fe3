package auth

import (
	"errors"
	"fmt"
)

// Authorization-intent failures of Login.
var (
	ErrDomain            = errors.New("email domain not allowed")
	ErrNotRegistered     = errors.New("email not registered")
	ErrPendingApproval   = errors.New("account pending approval")
	ErrInvalidCredential = errors.New("invalid identity credential")
)

// AuthError carries the human-readable reason shown to the person signing in.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// LookupError is a directory transport failure. Callers see it as
// ErrNotRegistered (fail closed) while logs keep the cause.
type LookupError struct {
	Email string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("directory lookup for %s failed: %v", e.Email, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool { return target == ErrNotRegistered }

func domainError(domain string) error {
	return &AuthError{Reason: fmt.Sprintf("Must use school email (@%s)", domain), Err: ErrDomain}
}

func notRegisteredError(cause error) error {
	if cause == nil {
		cause = ErrNotRegistered
	}
	return &AuthError{Reason: "Your email must be added to the system. Contact your administrator.", Err: cause}
}

func pendingApprovalError() error {
	return &AuthError{Reason: "Your account is pending approval. Contact your administrator.", Err: ErrPendingApproval}
}

func invalidCredentialError(cause error) error {
	return &AuthError{Reason: "Login failed. Please try again.", Err: fmt.Errorf("%w: %v", ErrInvalidCredential, cause)}
}
