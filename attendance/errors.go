package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrStaffNotFound = errors.New("staff not found")
	ErrInvalidPolicy = errors.New("invalid shift policy")
)

// ValidationError marks a single staff/date unit that cannot be computed.
// Batch operations skip the unit and carry on with its siblings.
type ValidationError struct {
	StaffID int32
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("staff %d: %v", e.StaffID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
