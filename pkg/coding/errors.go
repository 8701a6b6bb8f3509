package coding

import (
	"errors"
	"fmt"
)

// ErrCoding is the kind shared by every malformed bit pattern, unknown enumerated
// byte or length encoding that cannot be represented.
var ErrCoding = errors.New("coding error")

// FieldError reports which header field failed to decode or encode.
type FieldError struct {
	Field  string
	Raw    byte
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s (raw=%02X): %s", e.Field, e.Raw, e.Reason)
}

// Unwrap lets errors.Is(err, ErrCoding) match every FieldError.
func (e *FieldError) Unwrap() error {
	return ErrCoding
}

func fieldErr(field string, raw byte, format string, args ...interface{}) error {
	return &FieldError{Field: field, Raw: raw, Reason: fmt.Sprintf(format, args...)}
}
