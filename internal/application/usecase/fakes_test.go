package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
)

// fakeCloud is an in-memory control plane that records every call in order.
type fakeCloud struct {
	mu sync.Mutex

	subscriptions []entity.Subscription
	snapshots     map[string][]entity.Snapshot
	listSnapErr   map[string]error

	locks         map[string][]entity.Lock
	listLocksErr  map[string]error
	deleteLockErr map[string]error
	createLockErr map[string]error
	deleteErr     map[string]error
	setActiveErr  map[string]error

	deleteHook     func(ctx context.Context, snapshotID string) error
	listLocksHook  func(ctx context.Context, resourceGroup string) error
	deleteLockHook func(lockID string)
	createLockHook func(lock entity.Lock)

	active      string
	calls       []string
	deleted     []string
	created     []entity.Lock
	inFlight    int
	maxInFlight int
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		snapshots:     make(map[string][]entity.Snapshot),
		listSnapErr:   make(map[string]error),
		locks:         make(map[string][]entity.Lock),
		listLocksErr:  make(map[string]error),
		deleteLockErr: make(map[string]error),
		createLockErr: make(map[string]error),
		deleteErr:     make(map[string]error),
		setActiveErr:  make(map[string]error),
	}
}

func (f *fakeCloud) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCloud) ListSubscriptions(ctx context.Context) ([]entity.Subscription, error) {
	f.record("list-subscriptions")
	return f.subscriptions, nil
}

func (f *fakeCloud) SetActiveSubscription(ctx context.Context, subscriptionID string) error {
	f.record("set:" + subscriptionID)
	if err := f.setActiveErr[subscriptionID]; err != nil {
		return err
	}
	f.mu.Lock()
	f.active = subscriptionID
	f.mu.Unlock()
	return nil
}

func (f *fakeCloud) ListSnapshots(ctx context.Context, subscriptionID string, timeRange entity.TimeRange, keyword string) ([]entity.Snapshot, error) {
	f.record("list-snapshots:" + subscriptionID)
	if err := f.listSnapErr[subscriptionID]; err != nil {
		return nil, err
	}
	var out []entity.Snapshot
	for _, s := range f.snapshots[subscriptionID] {
		if timeRange.Contains(s.TimeCreated) && entity.MatchesKeyword(s.Name, keyword) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCloud) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	var err error
	if f.deleteHook != nil {
		err = f.deleteHook(ctx, snapshotID)
	}
	if err == nil {
		err = f.deleteErr[snapshotID]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+snapshotID)
	if err == nil {
		f.deleted = append(f.deleted, snapshotID)
	}
	return err
}

func (f *fakeCloud) ListLocks(ctx context.Context, resourceGroup string, level entity.LockLevel) ([]entity.Lock, error) {
	f.record("list-locks:" + resourceGroup)
	if f.listLocksHook != nil {
		if err := f.listLocksHook(ctx, resourceGroup); err != nil {
			return nil, err
		}
	}
	if err := f.listLocksErr[resourceGroup]; err != nil {
		return nil, err
	}
	return f.locks[resourceGroup], nil
}

func (f *fakeCloud) DeleteLock(ctx context.Context, lockID string) error {
	if f.deleteLockHook != nil {
		f.deleteLockHook(lockID)
	}
	f.record("delete-lock:" + lockID)
	return f.deleteLockErr[lockID]
}

func (f *fakeCloud) CreateLock(ctx context.Context, lock entity.Lock) error {
	f.record("create-lock:" + lock.Name)
	if f.createLockHook != nil {
		f.createLockHook(lock)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.createLockErr[lock.Name]; err != nil {
		return err
	}
	f.mu.Lock()
	f.created = append(f.created, lock)
	f.mu.Unlock()
	return nil
}

func (f *fakeCloud) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCloud) count(call string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeCloud) indexOf(call string) int {
	for i, c := range f.callLog() {
		if c == call {
			return i
		}
	}
	return -1
}

// fakeAudit records audit calls.
type fakeAudit struct {
	mu             sync.Mutex
	lockEvents     []entity.LockEvent
	outcomes       []entity.SnapshotOutcome
	switchFailures []string
	trees          []entity.AuditTree
	summaries      []entity.AuditTree
	closed         bool

	// panicOn makes LockEvent panic after recording events with this action.
	panicOn entity.LockAction
}

func (a *fakeAudit) LockEvent(ev entity.LockEvent) {
	a.mu.Lock()
	a.lockEvents = append(a.lockEvents, ev)
	a.mu.Unlock()
	if a.panicOn != "" && ev.Action == a.panicOn {
		panic("audit sink closed")
	}
}

func (a *fakeAudit) SnapshotOutcome(subscriptionID string, outcome entity.SnapshotOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, outcome)
}

func (a *fakeAudit) SubscriptionSwitchFailed(subscriptionID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.switchFailures = append(a.switchFailures, subscriptionID)
}

func (a *fakeAudit) Inventory(tree entity.AuditTree) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trees = append(a.trees, tree)
}

func (a *fakeAudit) DeletionSummary(tree entity.AuditTree) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries = append(a.summaries, tree)
}

func (a *fakeAudit) Close() error {
	a.closed = true
	return nil
}

// fakeConsole discards output and answers confirmations with confirm.
type fakeConsole struct {
	mu       sync.Mutex
	confirm  bool
	asked    int
	warnings []string
	errors   []string
}

func (c *fakeConsole) Print(a ...interface{})                     {}
func (c *fakeConsole) Printf(format string, a ...interface{})     {}
func (c *fakeConsole) Println(a ...interface{})                   {}
func (c *fakeConsole) LogInfo(format string, a ...interface{})    {}
func (c *fakeConsole) LogSuccess(format string, a ...interface{}) {}

func (c *fakeConsole) LogWarning(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogError(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) Status(message string) types.StatusHandle     { return fakeHandle{} }
func (c *fakeConsole) Progress(items []string) types.ProgressHandle { return fakeHandle{} }
func (c *fakeConsole) ProgressWithTotal(title string, total int) types.ProgressHandle {
	return fakeHandle{}
}
func (c *fakeConsole) CreateTable() types.TableInterface { return &fakeTable{} }
func (c *fakeConsole) Box(title, content string)         {}

func (c *fakeConsole) Confirm(question string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked++
	return c.confirm
}

type fakeHandle struct{}

func (fakeHandle) Update(string) {}
func (fakeHandle) Increment()    {}
func (fakeHandle) Stop()         {}

type fakeTable struct {
	rows int
}

func (t *fakeTable) AddColumn(name string, options ...interface{}) {}
func (t *fakeTable) AddRow(cells ...interface{})                   { t.rows++ }
func (t *fakeTable) Render() string                                { return "" }

func snap(id, sub, rg string) entity.Snapshot {
	return entity.Snapshot{
		ID:               fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Compute/snapshots/%s", sub, rg, id),
		Name:             id,
		ResourceGroup:    rg,
		SubscriptionID:   sub,
		SubscriptionName: sub,
	}
}

func lock(name, rg string) entity.Lock {
	return entity.Lock{
		ID:            fmt.Sprintf("/subscriptions/s/resourceGroups/%s/providers/Microsoft.Authorization/locks/%s", rg, name),
		Name:          name,
		ResourceGroup: rg,
		Level:         entity.LockLevelCanNotDelete,
	}
}
