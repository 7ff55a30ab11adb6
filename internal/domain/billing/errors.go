package billing

import "fmt"

// ValidationError covers every precondition failure during invoice assembly:
// empty selections, unknown or foreign records, and records that are already
// billed. It is always raised before any mutation persists.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
