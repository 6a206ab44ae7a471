package entity

import "errors"

// LockLevel is the Azure management lock level.
type LockLevel string

const (
	LockLevelCanNotDelete LockLevel = "CanNotDelete"
	LockLevelReadOnly     LockLevel = "ReadOnly"
)

// ErrScopeLocked marks a delete rejected because a lock still covers the
// resource. Only locks defined on the resource group itself are lifted, so a
// lock on the snapshot or on the subscription keeps blocking the delete.
var ErrScopeLocked = errors.New("scope is locked by a lock outside the resource group")

// Lock é um lock de gerenciamento aplicado a um resource group.
type Lock struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ResourceGroup string    `json:"resource_group"`
	Level         LockLevel `json:"level"`
	Notes         string    `json:"notes,omitempty"`
}

// LockRestoreResult is the outcome of re-creating one previously removed lock.
type LockRestoreResult struct {
	Lock Lock
	Err  error
}
