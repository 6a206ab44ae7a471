package entity

import "fmt"

// FailureKind classifies why a snapshot or lock operation did not succeed.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureContextSwitch   FailureKind = "context_switch"
	FailureLockEnumeration FailureKind = "lock_enumeration"
	FailureLockRemoval     FailureKind = "lock_removal"
	FailureDelete          FailureKind = "delete"
	FailureLockRestore     FailureKind = "lock_restore"
)

// OperationError carries the failure kind and the scope it applies to
// (subscription id, resource group or snapshot id).
type OperationError struct {
	Kind  FailureKind
	Scope string
	Err   error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed for %s", e.Kind, e.Scope)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Kind, e.Scope, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError wraps err with a failure kind and scope.
func NewOperationError(kind FailureKind, scope string, err error) *OperationError {
	return &OperationError{Kind: kind, Scope: scope, Err: err}
}
