package ledger

import (
	"errors"
	"fmt"
)

// ErrTransactionFailed is returned when the purchase transaction aborts for a
// storage-level reason (constraint violation, connectivity loss). No partial
// rows survive; the caller may retry.
var ErrTransactionFailed = errors.New("purchase transaction failed")

// ValidationError reports a malformed submission. Nothing has been written
// when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s %s", e.Field, e.Reason)
}
