package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
)

// LockError is the failure to remove or re-create a single lock.
type LockError struct {
	Lock entity.Lock
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock %q on resource group %q: %v", e.Lock.Name, e.Lock.ResourceGroup, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// LockGuard temporarily removes CanNotDelete locks from a resource group and
// puts them back afterwards.
type LockGuard struct {
	cloud       repository.CloudRepository
	callTimeout time.Duration
}

// NewLockGuard creates a LockGuard. A zero callTimeout disables per-call timeouts.
func NewLockGuard(cloud repository.CloudRepository, callTimeout time.Duration) *LockGuard {
	return &LockGuard{cloud: cloud, callTimeout: callTimeout}
}

// Suspend lists the CanNotDelete locks of resourceGroup and deletes each one.
// Every lock is attempted even when an earlier one fails. The locks actually
// removed are always returned so the caller can restore them; a non-nil error
// (an *entity.OperationError) means the resource group is not safe to delete from.
// A panic while removing locks is returned as a removal failure together with
// the locks removed before it.
func (g *LockGuard) Suspend(ctx context.Context, resourceGroup string) (removed []entity.Lock, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = entity.NewOperationError(entity.FailureLockRemoval, resourceGroup, fmt.Errorf("lock removal panicked: %v", r))
		}
	}()

	var locks []entity.Lock
	err = callWithTimeout(ctx, g.callTimeout, func(ctx context.Context) error {
		var err error
		locks, err = g.cloud.ListLocks(ctx, resourceGroup, entity.LockLevelCanNotDelete)
		return err
	})
	if err != nil {
		return nil, entity.NewOperationError(entity.FailureLockEnumeration, resourceGroup, err)
	}

	removed = make([]entity.Lock, 0, len(locks))
	var failures []error
	for _, lock := range locks {
		if lock.ResourceGroup == "" {
			lock.ResourceGroup = resourceGroup
		}
		if lock.Level == "" {
			lock.Level = entity.LockLevelCanNotDelete
		}

		err := callWithTimeout(ctx, g.callTimeout, func(ctx context.Context) error {
			return g.cloud.DeleteLock(ctx, lock.ID)
		})
		if err != nil {
			failures = append(failures, &LockError{Lock: lock, Err: err})
			continue
		}
		removed = append(removed, lock)
	}

	if len(failures) > 0 {
		return removed, entity.NewOperationError(entity.FailureLockRemoval, resourceGroup, errors.Join(failures...))
	}
	return removed, nil
}

// Restore re-creates every lock in removed exactly as it was listed. One result
// is returned per lock, in input order.
func (g *LockGuard) Restore(ctx context.Context, resourceGroup string, removed []entity.Lock) []entity.LockRestoreResult {
	results := make([]entity.LockRestoreResult, 0, len(removed))
	for _, lock := range removed {
		lock.ResourceGroup = resourceGroup
		err := callWithTimeout(ctx, g.callTimeout, func(ctx context.Context) error {
			return g.cloud.CreateLock(ctx, lock)
		})
		if err != nil {
			err = entity.NewOperationError(entity.FailureLockRestore, resourceGroup, &LockError{Lock: lock, Err: err})
		}
		results = append(results, entity.LockRestoreResult{Lock: lock, Err: err})
	}
	return results
}

// LockErrors extracts the per-lock failures carried by an error returned from Suspend.
func LockErrors(err error) []*LockError {
	var out []*LockError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if le, ok := e.(*LockError); ok {
			out = append(out, le)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// callWithTimeout runs fn with a derived deadline when timeout is positive.
// A deadline hit or a panic in fn surfaces as an ordinary error.
func callWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return guarded(ctx, fn)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := guarded(callCtx, fn); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		return err
	}
	return nil
}

func guarded(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("call panicked: %v", r)
		}
	}()
	return fn(ctx)
}
