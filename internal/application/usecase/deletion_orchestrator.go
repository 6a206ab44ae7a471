package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
)

// DefaultCallTimeout bounds every control-plane call made by the orchestrator.
const DefaultCallTimeout = 10 * time.Minute

// DeletionOrchestrator deletes snapshots subscription by subscription, clearing
// and restoring resource-group locks around the concurrent deletes.
type DeletionOrchestrator struct {
	cloud       repository.CloudRepository
	subs        *SubscriptionContext
	guard       *LockGuard
	audit       repository.AuditRepository
	console     types.ConsoleInterface
	callTimeout time.Duration
	maxParallel int
	now         func() time.Time
}

// OrchestratorOption configures a DeletionOrchestrator.
type OrchestratorOption func(*DeletionOrchestrator)

// WithCallTimeout sets the per-call timeout. Zero disables it.
func WithCallTimeout(d time.Duration) OrchestratorOption {
	return func(o *DeletionOrchestrator) { o.callTimeout = d }
}

// WithMaxParallel bounds concurrent deletes inside a batch. Zero means one
// goroutine per snapshot.
func WithMaxParallel(n int) OrchestratorOption {
	return func(o *DeletionOrchestrator) { o.maxParallel = n }
}

// WithAudit sets the audit trail.
func WithAudit(audit repository.AuditRepository) OrchestratorOption {
	return func(o *DeletionOrchestrator) { o.audit = audit }
}

// WithConsole enables progress and per-item console output.
func WithConsole(console types.ConsoleInterface) OrchestratorOption {
	return func(o *DeletionOrchestrator) { o.console = console }
}

// WithClock overrides the clock used to timestamp lock events.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *DeletionOrchestrator) { o.now = now }
}

// NewDeletionOrchestrator creates an orchestrator backed by cloud.
func NewDeletionOrchestrator(cloud repository.CloudRepository, opts ...OrchestratorOption) *DeletionOrchestrator {
	o := &DeletionOrchestrator{
		cloud:       cloud,
		subs:        NewSubscriptionContext(cloud),
		audit:       nopAudit{},
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.guard = NewLockGuard(cloud, o.callTimeout)
	return o
}

// DeleteAll deletes the given snapshots and reports, per snapshot, whether it
// was deleted or failed. It never returns without an outcome for every input.
func (o *DeletionOrchestrator) DeleteAll(ctx context.Context, snapshots []entity.Snapshot) *entity.DeletionReport {
	report := entity.NewDeletionReport()
	if len(snapshots) == 0 {
		return report
	}

	var progress types.ProgressHandle
	if o.console != nil {
		progress = o.console.ProgressWithTotal("Deleting snapshots", len(snapshots))
		defer progress.Stop()
	}

	for _, batch := range PartitionBySubscription(snapshots) {
		batchReport := o.deleteBatch(ctx, batch)
		if progress != nil {
			for i := 0; i < batchReport.Len(); i++ {
				progress.Increment()
			}
		}
		report.Merge(batchReport)
	}

	o.audit.DeletionSummary(entity.BuildReportAuditTree(report, entity.OutcomeDeleted))
	return report
}

// deleteBatch handles one subscription. Locks suspended here are restored in
// a deferred call so restoration runs on every exit path.
func (o *DeletionOrchestrator) deleteBatch(ctx context.Context, batch entity.SubscriptionBatch) (report *entity.DeletionReport) {
	report = entity.NewDeletionReport()

	err := callWithTimeout(ctx, o.callTimeout, func(ctx context.Context) error {
		return o.subs.Switch(ctx, batch.SubscriptionID)
	})
	if err != nil {
		opErr := entity.NewOperationError(entity.FailureContextSwitch, batch.SubscriptionID, err)
		o.audit.SubscriptionSwitchFailed(batch.SubscriptionID, err)
		o.logError("Failed to switch to subscription %s. Skipping %d snapshot(s): %s", batch.SubscriptionName, len(batch.Snapshots), err)
		for _, s := range batch.Snapshots {
			o.fail(report, batch.SubscriptionID, s, entity.FailureContextSwitch, opErr)
		}
		return report
	}

	suspended := make(map[string][]entity.Lock)
	var suspendedOrder []string

	defer func() {
		if r := recover(); r != nil {
			fault := fmt.Errorf("deletion aborted: %v", r)
			for _, s := range batch.Snapshots {
				o.fail(report, batch.SubscriptionID, s, entity.FailureDelete, fault)
			}
		}
		restoreCtx := context.WithoutCancel(ctx)
		for _, rg := range suspendedOrder {
			o.restore(restoreCtx, report, batch.SubscriptionID, rg, suspended[rg])
		}
	}()

	cleared := make(map[string]bool)
	for _, rg := range batch.ResourceGroups() {
		removed, err := o.guard.Suspend(ctx, rg)
		if len(removed) > 0 {
			suspended[rg] = removed
			suspendedOrder = append(suspendedOrder, rg)
			for _, lock := range removed {
				o.lockEvent(report, batch.SubscriptionID, lock, entity.LockActionSuspended, nil)
				o.logWarning("Removed lock '%s' on resource group '%s'", lock.Name, rg)
			}
		}
		if err != nil {
			o.suspendFailed(report, batch, rg, err)
			continue
		}
		cleared[rg] = true
	}

	var eligible []entity.Snapshot
	for _, s := range batch.Snapshots {
		if cleared[s.ResourceGroup] {
			eligible = append(eligible, s)
		}
	}

	errs := o.deleteConcurrently(ctx, eligible)
	for i, s := range eligible {
		if errs[i] != nil {
			o.fail(report, batch.SubscriptionID, s, entity.FailureDelete, errs[i])
			o.logError("Failed to delete snapshot '%s': %s", s.Name, errs[i])
			if errors.Is(errs[i], entity.ErrScopeLocked) {
				o.logWarning("Snapshot '%s' is protected by a lock outside resource group '%s'; only resource-group locks are lifted", s.Name, s.ResourceGroup)
			}
			continue
		}
		if report.RecordDeleted(s) {
			o.audit.SnapshotOutcome(batch.SubscriptionID, entity.SnapshotOutcome{Snapshot: s, Status: entity.OutcomeDeleted})
			o.logSuccess("Deleted snapshot '%s'", s.Name)
		}
	}

	return report
}

// deleteConcurrently issues one delete per snapshot and waits for all of them.
// errs[i] is the outcome of snapshots[i].
func (o *DeletionOrchestrator) deleteConcurrently(ctx context.Context, snapshots []entity.Snapshot) []error {
	errs := make([]error, len(snapshots))

	var sem chan struct{}
	if o.maxParallel > 0 {
		sem = make(chan struct{}, o.maxParallel)
	}

	var wg sync.WaitGroup
	for i, s := range snapshots {
		wg.Add(1)
		go func(i int, s entity.Snapshot) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			errs[i] = o.deleteOne(ctx, s)
		}(i, s)
	}
	wg.Wait()

	return errs
}

func (o *DeletionOrchestrator) deleteOne(ctx context.Context, s entity.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delete of %s panicked: %v", s.ID, r)
		}
	}()

	o.logInfo("Deleting snapshot '%s'", s.Name)
	err = callWithTimeout(ctx, o.callTimeout, func(ctx context.Context) error {
		return o.cloud.DeleteSnapshot(ctx, s.ID)
	})
	if err != nil {
		return entity.NewOperationError(entity.FailureDelete, s.ID, err)
	}
	return nil
}

func (o *DeletionOrchestrator) suspendFailed(report *entity.DeletionReport, batch entity.SubscriptionBatch, rg string, err error) {
	kind := entity.FailureLockRemoval
	var opErr *entity.OperationError
	if errors.As(err, &opErr) {
		kind = opErr.Kind
	}

	lockErrs := LockErrors(err)
	if len(lockErrs) == 0 {
		o.lockEvent(report, batch.SubscriptionID, entity.Lock{ResourceGroup: rg}, entity.LockActionSuspendFailed, err)
	}
	for _, le := range lockErrs {
		o.lockEvent(report, batch.SubscriptionID, le.Lock, entity.LockActionSuspendFailed, le.Err)
	}
	o.logError("Failed to clear locks on resource group '%s'. Skipping associated snapshots: %s", rg, err)

	for _, s := range batch.Snapshots {
		if s.ResourceGroup == rg {
			o.fail(report, batch.SubscriptionID, s, kind, err)
		}
	}
}

// restore re-creates the locks removed from rg. A panic is contained here:
// locks without a result are recorded as restore failures and the caller
// moves on to the next resource group.
func (o *DeletionOrchestrator) restore(ctx context.Context, report *entity.DeletionReport, subscriptionID, rg string, removed []entity.Lock) {
	handled := 0
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fault := entity.NewOperationError(entity.FailureLockRestore, rg, fmt.Errorf("lock restore panicked: %v", r))
		for _, lock := range removed[handled:] {
			ev := o.newLockEvent(subscriptionID, lock, entity.LockActionRestoreFailed, fault)
			report.AddLockEvent(ev)
			o.safeAudit(func() { o.audit.LockEvent(ev) })
		}
	}()

	for _, res := range o.guard.Restore(ctx, rg, removed) {
		handled++
		if res.Err != nil {
			o.lockEvent(report, subscriptionID, res.Lock, entity.LockActionRestoreFailed, res.Err)
			o.logError("Failed to restore lock '%s' on resource group '%s': %s", res.Lock.Name, rg, res.Err)
			continue
		}
		o.lockEvent(report, subscriptionID, res.Lock, entity.LockActionRestored, nil)
		o.logWarning("Restored lock '%s' on resource group '%s'", res.Lock.Name, rg)
	}
}

func (o *DeletionOrchestrator) fail(report *entity.DeletionReport, subscriptionID string, s entity.Snapshot, kind entity.FailureKind, err error) {
	if !report.RecordFailed(s, kind, err) {
		return
	}
	outcome, _ := report.Outcome(s.ID)
	o.audit.SnapshotOutcome(subscriptionID, outcome)
}

func (o *DeletionOrchestrator) lockEvent(report *entity.DeletionReport, subscriptionID string, lock entity.Lock, action entity.LockAction, err error) {
	ev := o.newLockEvent(subscriptionID, lock, action, err)
	report.AddLockEvent(ev)
	o.audit.LockEvent(ev)
}

// safeAudit drops a panic from the audit trail.
func (o *DeletionOrchestrator) safeAudit(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func (o *DeletionOrchestrator) newLockEvent(subscriptionID string, lock entity.Lock, action entity.LockAction, err error) entity.LockEvent {
	ev := entity.LockEvent{
		SubscriptionID: subscriptionID,
		ResourceGroup:  lock.ResourceGroup,
		LockName:       lock.Name,
		LockID:         lock.ID,
		Action:         action,
		At:             o.now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

func (o *DeletionOrchestrator) logInfo(format string, a ...interface{}) {
	if o.console != nil {
		o.console.LogInfo(format, a...)
	}
}

func (o *DeletionOrchestrator) logWarning(format string, a ...interface{}) {
	if o.console != nil {
		o.console.LogWarning(format, a...)
	}
}

func (o *DeletionOrchestrator) logError(format string, a ...interface{}) {
	if o.console != nil {
		o.console.LogError(format, a...)
	}
}

func (o *DeletionOrchestrator) logSuccess(format string, a ...interface{}) {
	if o.console != nil {
		o.console.LogSuccess(format, a...)
	}
}

type nopAudit struct{}

func (nopAudit) LockEvent(entity.LockEvent)                     {}
func (nopAudit) SnapshotOutcome(string, entity.SnapshotOutcome) {}
func (nopAudit) SubscriptionSwitchFailed(string, error)         {}
func (nopAudit) Inventory(entity.AuditTree)                     {}
func (nopAudit) DeletionSummary(entity.AuditTree)               {}
func (nopAudit) Close() error                                   { return nil }
