package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSubmitInFlight is returned by Submit while another submission runs.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrAttachmentLimit is returned when the attachment cap is reached.
	ErrAttachmentLimit = errors.New("attachment limit reached")

	// ErrAttachmentIndex is returned for an out-of-range attachment index.
	ErrAttachmentIndex = errors.New("attachment index out of range")
)

// ValidationError reports the failing fields of one step.
type ValidationError struct {
	Step   StepID
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("step %q: invalid %s", e.Step, strings.Join(names, ", "))
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
