package repository

import (
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
)

// AuditRepository is the append-only audit trail of a run.
type AuditRepository interface {
	LockEvent(ev entity.LockEvent)
	SnapshotOutcome(subscriptionID string, outcome entity.SnapshotOutcome)
	SubscriptionSwitchFailed(subscriptionID string, err error)
	Inventory(tree entity.AuditTree)
	DeletionSummary(tree entity.AuditTree)
	Close() error
}
