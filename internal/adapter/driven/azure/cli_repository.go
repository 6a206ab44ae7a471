package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
)

const (
	azBinary = "az"
	// azTimeLayout matches the offset format az prints for timeCreated, so
	// the JMESPath string comparison stays lexicographic.
	azTimeLayout = "2006-01-02T15:04:05-07:00"
)

// azSnapshot mirrors the projection requested from `az snapshot list`.
type azSnapshot struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	ResourceGroup string            `json:"resourceGroup"`
	TimeCreated   string            `json:"timeCreated"`
	DiskState     string            `json:"diskState"`
	Tags          map[string]string `json:"tags"`
}

type azSubscription struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type azLock struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
	Notes string `json:"notes"`
}

// CLIRepositoryImpl implementa o CloudRepository usando o Azure CLI.
type CLIRepositoryImpl struct {
	runner CommandRunner
}

// NewCLIRepository cria um CloudRepository que executa comandos `az`.
func NewCLIRepository(runner CommandRunner) repository.CloudRepository {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CLIRepositoryImpl{runner: runner}
}

func (r *CLIRepositoryImpl) az(ctx context.Context, args ...string) ([]byte, error) {
	return r.runner.Run(ctx, azBinary, args...)
}

func (r *CLIRepositoryImpl) azJSON(ctx context.Context, out interface{}, args ...string) error {
	data, err := r.az(ctx, args...)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing az output: %w", err)
	}
	return nil
}

func (r *CLIRepositoryImpl) ListSubscriptions(ctx context.Context) ([]entity.Subscription, error) {
	var subs []azSubscription
	if err := r.azJSON(ctx, &subs, "account", "list", "--query", "[].{name:name, id:id}", "-o", "json"); err != nil {
		return nil, err
	}

	result := make([]entity.Subscription, 0, len(subs))
	for _, s := range subs {
		result = append(result, entity.Subscription{ID: s.ID, Name: s.Name})
	}
	return result, nil
}

func (r *CLIRepositoryImpl) SetActiveSubscription(ctx context.Context, subscriptionID string) error {
	_, err := r.az(ctx, "account", "set", "--subscription", subscriptionID)
	return err
}

func (r *CLIRepositoryImpl) ListSnapshots(ctx context.Context, subscriptionID string, timeRange entity.TimeRange, keyword string) ([]entity.Snapshot, error) {
	query := fmt.Sprintf(
		"[?timeCreated >= '%s' && timeCreated <= '%s'].{name:name, resourceGroup:resourceGroup, timeCreated:timeCreated, diskState:diskState, id:id, tags:tags}",
		timeRange.Start.UTC().Format(azTimeLayout), timeRange.End.UTC().Format(azTimeLayout),
	)

	var raw []azSnapshot
	if err := r.azJSON(ctx, &raw, "snapshot", "list", "--subscription", subscriptionID, "--query", query, "-o", "json"); err != nil {
		return nil, err
	}

	snapshots := make([]entity.Snapshot, 0, len(raw))
	for _, s := range raw {
		if !entity.MatchesKeyword(s.Name, keyword) {
			continue
		}
		created, err := time.Parse(time.RFC3339, s.TimeCreated)
		if err != nil {
			return nil, fmt.Errorf("invalid timeCreated %q for snapshot %s: %w", s.TimeCreated, s.Name, err)
		}
		snapshots = append(snapshots, entity.Snapshot{
			ID:             s.ID,
			Name:           s.Name,
			ResourceGroup:  s.ResourceGroup,
			SubscriptionID: subscriptionID,
			TimeCreated:    created,
			DiskState:      s.DiskState,
			CreatedBy:      s.Tags["CreatedByUserId"],
		})
	}
	return snapshots, nil
}

func (r *CLIRepositoryImpl) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	_, err := r.az(ctx, "snapshot", "delete", "--ids", snapshotID)
	return markScopeLocked(err)
}

func (r *CLIRepositoryImpl) ListLocks(ctx context.Context, resourceGroup string, level entity.LockLevel) ([]entity.Lock, error) {
	query := fmt.Sprintf("[?level=='%s'].{name:name, id:id, level:level, notes:notes}", level)

	var raw []azLock
	if err := r.azJSON(ctx, &raw, "lock", "list", "--resource-group", resourceGroup, "--query", query, "-o", "json"); err != nil {
		return nil, err
	}

	locks := make([]entity.Lock, 0, len(raw))
	for _, l := range raw {
		if !IsResourceGroupScoped(l.ID, resourceGroup) {
			continue
		}
		lvl := entity.LockLevel(l.Level)
		if lvl == "" {
			lvl = level
		}
		locks = append(locks, entity.Lock{ID: l.ID, Name: l.Name, ResourceGroup: resourceGroup, Level: lvl, Notes: l.Notes})
	}
	return locks, nil
}

func (r *CLIRepositoryImpl) DeleteLock(ctx context.Context, lockID string) error {
	_, err := r.az(ctx, "lock", "delete", "--ids", lockID)
	return err
}

func (r *CLIRepositoryImpl) CreateLock(ctx context.Context, lock entity.Lock) error {
	level := lock.Level
	if level == "" {
		level = entity.LockLevelCanNotDelete
	}
	args := []string{"lock", "create", "--name", lock.Name, "--resource-group", lock.ResourceGroup, "--lock-type", string(level)}
	if lock.Notes != "" {
		args = append(args, "--notes", lock.Notes)
	}
	_, err := r.az(ctx, args...)
	return err
}
