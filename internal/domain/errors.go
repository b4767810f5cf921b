package domain

import "fmt"

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidStateError is reserved for a stricter lifecycle policy where a
// repeated terminal transition would be rejected instead of ignored. The
// current completion policy is idempotent and never returns it.
type InvalidStateError struct {
	Current   string
	Requested string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot move %s deadline to %s", e.Current, e.Requested)
}
