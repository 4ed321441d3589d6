package streamconfig

import "fmt"

// ValidationError reports a patch value that could not be coerced to its field's type.
type ValidationError struct {
	Field  string // JSON key, e.g. "bitrate"
	Value  string // raw JSON text as received
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %s for field %q: %s", e.Value, e.Field, e.Reason)
}
