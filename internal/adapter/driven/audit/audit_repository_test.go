package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var records []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	return records
}

func TestAuditRepositoryRecords(t *testing.T) {
	var buf bytes.Buffer
	repo := NewAuditRepository(&buf, "info")

	repo.LockEvent(entity.LockEvent{
		SubscriptionID: "sub", ResourceGroup: "rg1", LockName: "keep", LockID: "/locks/keep",
		Action: entity.LockActionSuspended, At: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	repo.LockEvent(entity.LockEvent{
		SubscriptionID: "sub", ResourceGroup: "rg1", LockName: "keep",
		Action: entity.LockActionRestoreFailed, Error: "throttled",
	})
	repo.SnapshotOutcome("sub", entity.SnapshotOutcome{
		Snapshot: entity.Snapshot{ID: "/snap/1", Name: "s1", ResourceGroup: "rg1"},
		Status:   entity.OutcomeDeleted,
	})
	repo.SnapshotOutcome("sub", entity.SnapshotOutcome{
		Snapshot: entity.Snapshot{ID: "/snap/2", Name: "s2", ResourceGroup: "rg1"},
		Status:   entity.OutcomeFailed, Kind: entity.FailureDelete, Error: "in use",
	})
	repo.SubscriptionSwitchFailed("other", errors.New("disabled"))
	repo.Inventory(entity.AuditTree{Subscriptions: []entity.SubscriptionNode{{
		Name: "app-nonprod",
		ResourceGroups: []entity.ResourceGroupNode{
			{Name: "rg1", SnapshotIDs: []string{"/snap/1", "/snap/2"}},
			{Name: "rg2", SnapshotIDs: []string{"/snap/3"}},
		},
	}}})

	records := decodeLines(t, buf.Bytes())
	require.Len(t, records, 7)

	assert.Equal(t, "lock_suspended", records[0]["message"])
	assert.Equal(t, "info", records[0]["level"])
	assert.Equal(t, "rg1", records[0]["resource_group"])
	assert.Equal(t, "/locks/keep", records[0]["lock_id"])
	assert.NotEmpty(t, records[0]["time"])

	assert.Equal(t, "lock_restore_failed", records[1]["message"])
	assert.Equal(t, "error", records[1]["level"])
	assert.Equal(t, "throttled", records[1]["error"])

	assert.Equal(t, "snapshot_deleted", records[2]["message"])
	assert.Equal(t, "/snap/1", records[2]["snapshot_id"])

	assert.Equal(t, "snapshot_delete_failed", records[3]["message"])
	assert.Equal(t, "delete", records[3]["failure_kind"])
	assert.Equal(t, "in use", records[3]["error"])

	assert.Equal(t, "subscription_switch_failed", records[4]["message"])
	assert.Equal(t, "disabled", records[4]["error"])

	assert.Equal(t, "inventory", records[5]["message"])
	assert.Equal(t, "app-nonprod", records[5]["subscription"])
	assert.Equal(t, []interface{}{"/snap/1", "/snap/2"}, records[5]["snapshot_ids"])
	assert.Equal(t, "rg2", records[6]["resource_group"])
}

func TestAuditRepositoryDeletionSummary(t *testing.T) {
	var buf bytes.Buffer
	repo := NewAuditRepository(&buf, "info")

	repo.DeletionSummary(entity.AuditTree{Subscriptions: []entity.SubscriptionNode{{
		Name:           "app-prod",
		ResourceGroups: []entity.ResourceGroupNode{{Name: "rg1", SnapshotIDs: []string{"/snap/9"}}},
	}}})
	repo.DeletionSummary(entity.AuditTree{})

	records := decodeLines(t, buf.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, "deletion_summary", records[0]["message"])
	assert.Equal(t, "app-prod", records[0]["subscription"])
	assert.Equal(t, float64(1), records[0]["count"])
}

func TestAuditRepositoryLevel(t *testing.T) {
	var buf bytes.Buffer
	repo := NewAuditRepository(&buf, "error")

	repo.LockEvent(entity.LockEvent{Action: entity.LockActionSuspended})
	repo.LockEvent(entity.LockEvent{Action: entity.LockActionRestoreFailed})

	records := decodeLines(t, buf.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, "lock_restore_failed", records[0]["message"])

	buf.Reset()
	NewAuditRepository(&buf, "not-a-level").LockEvent(entity.LockEvent{Action: entity.LockActionRestored})
	assert.Len(t, decodeLines(t, buf.Bytes()), 1)
}

func TestFileAuditRepositoryAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")

	for i := 0; i < 2; i++ {
		repo, err := NewFileAuditRepository(path, "info")
		require.NoError(t, err)
		repo.SubscriptionSwitchFailed("sub", errors.New("boom"))
		require.NoError(t, repo.Close())
		require.NoError(t, repo.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, decodeLines(t, data), 2)
}
