package directory

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNationalIDExists = errors.New("user with this national id already exists")
	ErrEmailExists      = errors.New("user with this email already exists")

	// ErrPasswordPairRequired guards the partial-update endpoint: the
	// stored hash can only change when the caller proves knowledge of
	// the current password, so both fields travel together.
	ErrPasswordPairRequired = errors.New("both current and new password must be provided to change the password")
	ErrPasswordMismatch     = errors.New("current password is incorrect")
)
