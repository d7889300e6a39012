package scheduling

import (
	"errors"

	"clinic-scheduling-server/internal/metrics"
)

// Error kinds returned by the scheduling operations. Callers classify with
// errors.Is; none of them is retryable.
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Classify maps an error to its metrics outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, ErrInvalidTransition):
		return metrics.OutcomeInvalidTransition
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	default:
		return metrics.OutcomeError
	}
}
