package repository

import (
	"context"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
)

// CloudRepository defines the control-plane operations needed to discover and
// delete snapshots and to manage resource-group locks.
type CloudRepository interface {
	// Subscription Operations
	ListSubscriptions(ctx context.Context) ([]entity.Subscription, error)
	SetActiveSubscription(ctx context.Context, subscriptionID string) error

	// Snapshot Operations
	ListSnapshots(ctx context.Context, subscriptionID string, timeRange entity.TimeRange, keyword string) ([]entity.Snapshot, error)
	DeleteSnapshot(ctx context.Context, snapshotID string) error

	// Lock Operations
	ListLocks(ctx context.Context, resourceGroup string, level entity.LockLevel) ([]entity.Lock, error)
	DeleteLock(ctx context.Context, lockID string) error
	CreateLock(ctx context.Context, lock entity.Lock) error
}
