package figure

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrPanelNotFound = errors.New("panel not found")
	ErrNoSelection   = errors.New("no panels selected")
)

// ValidationError reports an attribute value that was rejected. The
// attribute set it belongs to was not applied.
type ValidationError struct {
	Field  Field
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
