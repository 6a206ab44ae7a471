package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/rs/zerolog"
)

// AuditRepositoryImpl grava a trilha de auditoria como JSON lines via zerolog.
type AuditRepositoryImpl struct {
	logger zerolog.Logger
	closer io.Closer
	mu     sync.Mutex
}

// NewFileAuditRepository abre (em modo append) o arquivo de auditoria em path.
func NewFileAuditRepository(path, level string) (repository.AuditRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating audit log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening audit log: %w", err)
	}

	return NewAuditRepository(file, level), nil
}

// NewAuditRepository writes audit records to w. If w is an io.Closer it is
// closed by Close. Unknown levels fall back to info.
func NewAuditRepository(w io.Writer, level string) *AuditRepositoryImpl {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	r := &AuditRepositoryImpl{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

func (r *AuditRepositoryImpl) LockEvent(ev entity.LockEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var e *zerolog.Event
	switch ev.Action {
	case entity.LockActionSuspended, entity.LockActionRestored:
		e = r.logger.Info()
	case entity.LockActionRestoreFailed:
		e = r.logger.Error()
	default:
		e = r.logger.Warn()
	}

	e = e.Str("subscription_id", ev.SubscriptionID).
		Str("resource_group", ev.ResourceGroup).
		Str("lock_name", ev.LockName).
		Str("lock_id", ev.LockID).
		Time("at", ev.At)
	if ev.Error != "" {
		e = e.Str("error", ev.Error)
	}
	e.Msg("lock_" + string(ev.Action))
}

func (r *AuditRepositoryImpl) SnapshotOutcome(subscriptionID string, outcome entity.SnapshotOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome.Status == entity.OutcomeDeleted {
		r.logger.Info().
			Str("subscription_id", subscriptionID).
			Str("resource_group", outcome.Snapshot.ResourceGroup).
			Str("snapshot_id", outcome.Snapshot.ID).
			Str("snapshot_name", outcome.Snapshot.Name).
			Msg("snapshot_deleted")
		return
	}

	r.logger.Error().
		Str("subscription_id", subscriptionID).
		Str("resource_group", outcome.Snapshot.ResourceGroup).
		Str("snapshot_id", outcome.Snapshot.ID).
		Str("snapshot_name", outcome.Snapshot.Name).
		Str("failure_kind", string(outcome.Kind)).
		Str("error", outcome.Error).
		Msg("snapshot_delete_failed")
}

func (r *AuditRepositoryImpl) SubscriptionSwitchFailed(subscriptionID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Error().Str("subscription_id", subscriptionID).Err(err).Msg("subscription_switch_failed")
}

// Inventory grava um registro por resource group, na hierarquia subscription -> resource group -> ids.
func (r *AuditRepositoryImpl) Inventory(tree entity.AuditTree) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range tree.Subscriptions {
		for _, rg := range sub.ResourceGroups {
			r.logger.Info().
				Str("subscription", sub.Name).
				Str("resource_group", rg.Name).
				Strs("snapshot_ids", rg.SnapshotIDs).
				Msg("inventory")
		}
	}
}

// DeletionSummary grava a árvore dos snapshots efetivamente apagados, construída do relatório final.
func (r *AuditRepositoryImpl) DeletionSummary(tree entity.AuditTree) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range tree.Subscriptions {
		for _, rg := range sub.ResourceGroups {
			r.logger.Info().
				Str("subscription", sub.Name).
				Str("resource_group", rg.Name).
				Strs("snapshot_ids", rg.SnapshotIDs).
				Int("count", len(rg.SnapshotIDs)).
				Msg("deletion_summary")
		}
	}
}

func (r *AuditRepositoryImpl) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
