package entity

import (
	"sort"
	"time"
)

// OutcomeStatus is the final state of a snapshot after a deletion run.
type OutcomeStatus string

const (
	OutcomeDeleted OutcomeStatus = "deleted"
	OutcomeFailed  OutcomeStatus = "failed"
)

// SnapshotOutcome records what happened to one snapshot.
type SnapshotOutcome struct {
	Snapshot Snapshot      `json:"snapshot"`
	Status   OutcomeStatus `json:"status"`
	Kind     FailureKind   `json:"failure_kind,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// LockAction identifies a lock operation recorded for audit purposes.
type LockAction string

const (
	LockActionSuspended     LockAction = "suspended"
	LockActionSuspendFailed LockAction = "suspend_failed"
	LockActionRestored      LockAction = "restored"
	LockActionRestoreFailed LockAction = "restore_failed"
)

// LockEvent é um registro de auditoria de uma ação sobre lock.
type LockEvent struct {
	SubscriptionID string     `json:"subscription_id"`
	ResourceGroup  string     `json:"resource_group"`
	LockName       string     `json:"lock_name"`
	LockID         string     `json:"lock_id,omitempty"`
	Action         LockAction `json:"action"`
	Error          string     `json:"error,omitempty"`
	At             time.Time  `json:"at"`
}

// DeletionReport accumulates the outcome of a deletion run. Outcomes are keyed
// by snapshot id, so a snapshot is recorded at most once.
type DeletionReport struct {
	outcomes   map[string]SnapshotOutcome
	order      []string
	LockEvents []LockEvent `json:"lock_events"`
}

// NewDeletionReport creates an empty report.
func NewDeletionReport() *DeletionReport {
	return &DeletionReport{outcomes: make(map[string]SnapshotOutcome)}
}

// RecordDeleted marks the snapshot as deleted. It returns false when the
// snapshot already has an outcome.
func (r *DeletionReport) RecordDeleted(s Snapshot) bool {
	return r.record(SnapshotOutcome{Snapshot: s, Status: OutcomeDeleted})
}

// RecordFailed marks the snapshot as failed. It returns false when the
// snapshot already has an outcome.
func (r *DeletionReport) RecordFailed(s Snapshot, kind FailureKind, err error) bool {
	o := SnapshotOutcome{Snapshot: s, Status: OutcomeFailed, Kind: kind}
	if err != nil {
		o.Error = err.Error()
	}
	return r.record(o)
}

func (r *DeletionReport) record(o SnapshotOutcome) bool {
	if _, exists := r.outcomes[o.Snapshot.ID]; exists {
		return false
	}
	r.outcomes[o.Snapshot.ID] = o
	r.order = append(r.order, o.Snapshot.ID)
	return true
}

// AddLockEvent appends an audit record.
func (r *DeletionReport) AddLockEvent(ev LockEvent) {
	r.LockEvents = append(r.LockEvents, ev)
}

// Merge folds other into r. Outcomes already present in r are kept.
func (r *DeletionReport) Merge(other *DeletionReport) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		r.record(other.outcomes[id])
	}
	r.LockEvents = append(r.LockEvents, other.LockEvents...)
}

// Outcomes returns outcomes in the order they were recorded.
func (r *DeletionReport) Outcomes() []SnapshotOutcome {
	out := make([]SnapshotOutcome, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.outcomes[id])
	}
	return out
}

// Outcome looks up the outcome of a snapshot by id.
func (r *DeletionReport) Outcome(snapshotID string) (SnapshotOutcome, bool) {
	o, ok := r.outcomes[snapshotID]
	return o, ok
}

// Deleted returns the sorted names of deleted snapshots. See Label for how
// names shared by several snapshots are told apart.
func (r *DeletionReport) Deleted() []string {
	return r.labels(OutcomeDeleted)
}

// Failed returns the sorted names of failed snapshots, labelled like Deleted.
func (r *DeletionReport) Failed() []string {
	return r.labels(OutcomeFailed)
}

// Label returns the name under which a snapshot is listed by Deleted and
// Failed. A name is unique only inside its resource group, so when two
// outcomes share a name the label becomes "resourceGroup/name", and
// "subscriptionID/resourceGroup/name" when that still collides.
func (r *DeletionReport) Label(snapshotID string) string {
	o, ok := r.outcomes[snapshotID]
	if !ok {
		return ""
	}
	byName, byGroup := r.collisions()
	return label(o.Snapshot, byName, byGroup)
}

func (r *DeletionReport) labels(status OutcomeStatus) []string {
	byName, byGroup := r.collisions()
	names := []string{}
	for _, id := range r.order {
		if o := r.outcomes[id]; o.Status == status {
			names = append(names, label(o.Snapshot, byName, byGroup))
		}
	}
	sort.Strings(names)
	return names
}

func (r *DeletionReport) collisions() (byName, byGroup map[string]int) {
	byName = make(map[string]int, len(r.order))
	byGroup = make(map[string]int, len(r.order))
	for _, id := range r.order {
		s := r.outcomes[id].Snapshot
		byName[s.Name]++
		byGroup[groupLabel(s)]++
	}
	return byName, byGroup
}

func label(s Snapshot, byName, byGroup map[string]int) string {
	switch {
	case byName[s.Name] <= 1:
		return s.Name
	case byGroup[groupLabel(s)] <= 1:
		return groupLabel(s)
	default:
		return s.SubscriptionID + "/" + groupLabel(s)
	}
}

func groupLabel(s Snapshot) string {
	return s.ResourceGroup + "/" + s.Name
}

// RestoreFailures returns the lock events for locks that could not be re-created.
func (r *DeletionReport) RestoreFailures() []LockEvent {
	var failed []LockEvent
	for _, ev := range r.LockEvents {
		if ev.Action == LockActionRestoreFailed {
			failed = append(failed, ev)
		}
	}
	return failed
}

// HasFailures reports whether any snapshot failed or any lock was left unrestored.
func (r *DeletionReport) HasFailures() bool {
	return len(r.Failed()) > 0 || len(r.RestoreFailures()) > 0
}

// Len returns the number of snapshots with an outcome.
func (r *DeletionReport) Len() int {
	return len(r.order)
}
