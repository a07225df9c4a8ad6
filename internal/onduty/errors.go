package onduty

import "errors"

var (
	// ErrInvalidCredentials is returned for every authentication failure.
	// Unknown id and wrong secret are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateID is returned when creating a user whose id is taken.
	ErrDuplicateID = errors.New("user id already exists")

	// ErrValidation is returned when required fields are missing. Callers can
	// unwrap it from the detailed error via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller's role does not permit the
	// operation.
	ErrForbidden = errors.New("operation not permitted for role")

	// ErrUnknownStatus is returned for a status value outside the known set.
	ErrUnknownStatus = errors.New("unknown request status")
)
