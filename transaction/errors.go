package transaction

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that failed the composition validation
// gate: missing asset, unresolved node, no assigned port. It is an expected
// failure mode, not a programming error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidActionError reports an action kind the composer does not recognize
// as a transaction request.
type InvalidActionError struct {
	Action Action
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("Invalid action %s", e.Action)
}

// NotYetSupportedError marks a recognized action family whose payload
// assembly has not been implemented. Callers can branch on it to
// distinguish deliberate extension points from bad input.
type NotYetSupportedError struct {
	Action Action
}

func (e *NotYetSupportedError) Error() string {
	return fmt.Sprintf("action %s is not yet supported", e.Action)
}
