package rank

import (
	"errors"
	"fmt"
)

// ErrUnknownBinding is returned by New for a binding name it does not know.
var ErrUnknownBinding = errors.New("unknown binding")

// ErrContractViolation marks a binding result that breaks the output contract.
var ErrContractViolation = errors.New("binding contract violation")

// BindingError represents a failed call on one binding
type BindingError struct {
	Binding   string
	Operation string
	Cause     error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding %s failed in %s: %v", e.Binding, e.Operation, e.Cause)
}

func (e *BindingError) Unwrap() error {
	return e.Cause
}
