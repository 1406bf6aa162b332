package order

import "errors"

// ValidationError is a problem the diner fixes before trying again.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

var (
	ErrEmptyCart = &ValidationError{Reason: "empty cart"}
	ErrNoTable   = &ValidationError{Reason: "no table"}

	ErrAuthRequired       = errors.New("authentication required")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
)

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
