package identity

import "errors"

var (
	// ErrInvalidCredentials is the single login failure surfaced to
	// callers. Unknown email and wrong password are not distinguished
	// at the boundary.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
