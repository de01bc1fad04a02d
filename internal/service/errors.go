package service

import "errors"

// Failure classes surfaced to callers. Handlers map these onto HTTP
// statuses; the login and reset messages stay deliberately generic so the
// API never confirms whether an email or password was the wrong half.
var (
	ErrNotAllowed           = errors.New("Not allowed")
	ErrInvalidToken         = errors.New("Invalid Token")
	ErrIncorrectLogin       = errors.New("Incorrect user or password")
	ErrPasswordConfirmation = errors.New("Password confirmation does not match.")
	ErrEmailInUse           = errors.New("Email already in use")
	ErrEmailInUseByOther    = errors.New("Email already in use by other user.")
	ErrCurrentPassword      = errors.New("Unable to verify current password.")
	ErrInconsistentDevice   = errors.New("Inconsistent device id")
	ErrDeviceNotLinked      = errors.New("Device not linked to user.")
	ErrEmailNotRegistered   = errors.New("Email not registered for any user.")
	ErrNoActiveEmail        = errors.New("Unable to find active email.")
	ErrNoResetRequest       = errors.New("No reset request found for this email.")
	ErrInvalidResetCode     = errors.New("Invalid code, try again.")
	ErrUserNotFound         = errors.New("Not found")
)
