package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepo struct {
	cfg *types.Config
	err error
}

func (r fakeConfigRepo) LoadConfigFile(string) (*types.Config, error) {
	return r.cfg, r.err
}

func TestResolveTimeRange(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	month := entity.CurrentMonthRange(now)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		wantOK    bool
	}{
		{"defaults to current month", "", "", month.Start, month.End, true},
		{"explicit range", "2026-01-10", "2026-01-20",
			time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 20, 23, 59, 59, 0, time.UTC), true},
		{"start only", "2026-02-03", "", time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), month.End, true},
		{"invalid start", "2026/01/10", "2026-01-20", month.Start, month.End, false},
		{"invalid end", "2026-01-10", "tomorrow", month.Start, month.End, false},
		{"end before start", "2026-01-20", "2026-01-10", month.Start, month.End, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := ResolveTimeRange(tt.start, tt.end, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStart, tr.Start)
			assert.Equal(t, tt.wantEnd, tr.End)
		})
	}

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), month.Start)
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC), month.End)
}

func TestApplyConfigFile(t *testing.T) {
	cfg := &types.Config{
		Subscriptions:     []string{"from-file"},
		Keyword:           "daily",
		Backend:           "sdk",
		NonProdMinAgeDays: 5,
		ProdMinAgeDays:    14,
		CallTimeout:       "90s",
		MaxParallel:       4,
		ReportType:        []string{"json", "pdf"},
		Dir:               "reports",
		Yes:               true,
	}
	uc := NewSweepUseCase(SweepDependencies{}, nil, fakeConfigRepo{cfg: cfg}, &fakeConsole{})

	args := &types.CLIArgs{
		ConfigFile:        "config.toml",
		Subscriptions:     []string{"from-flag"},
		Backend:           "cli",
		NonProdMinAgeDays: DefaultNonProdMinAgeDays,
		ProdMinAgeDays:    DefaultProdMinAgeDays,
		CallTimeout:       DefaultCallTimeout,
		ReportType:        []string{"csv"},
	}
	explicit := func(flag string) bool { return flag == "subscriptions" }

	require.NoError(t, uc.ApplyConfigFile(args, explicit))

	assert.Equal(t, []string{"from-flag"}, args.Subscriptions)
	assert.Equal(t, "daily", args.Keyword)
	assert.Equal(t, "sdk", args.Backend)
	assert.Equal(t, 5, args.NonProdMinAgeDays)
	assert.Equal(t, 14, args.ProdMinAgeDays)
	assert.Equal(t, 90*time.Second, args.CallTimeout)
	assert.Equal(t, 4, args.MaxParallel)
	assert.Equal(t, []string{"json", "pdf"}, args.ReportType)
	assert.True(t, filepath.IsAbs(args.Dir))
	assert.True(t, args.Yes)
	assert.False(t, args.DryRun)

	t.Run("no config file", func(t *testing.T) {
		args := &types.CLIArgs{Keyword: "keep"}
		require.NoError(t, uc.ApplyConfigFile(args, explicit))
		assert.Equal(t, "keep", args.Keyword)
	})

	t.Run("invalid call timeout", func(t *testing.T) {
		bad := NewSweepUseCase(SweepDependencies{}, nil, fakeConfigRepo{cfg: &types.Config{CallTimeout: "soon"}}, &fakeConsole{})
		err := bad.ApplyConfigFile(&types.CLIArgs{ConfigFile: "c.yaml"}, explicit)
		assert.ErrorContains(t, err, "invalid call_timeout")
	})

	t.Run("load error", func(t *testing.T) {
		bad := NewSweepUseCase(SweepDependencies{}, nil, fakeConfigRepo{err: errors.New("unsupported config file format")}, &fakeConsole{})
		err := bad.ApplyConfigFile(&types.CLIArgs{ConfigFile: "c.ini"}, explicit)
		assert.Error(t, err)
	})
}

func TestDefaultAuditLogPath(t *testing.T) {
	now := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	path := DefaultAuditLogPath("/var/log/sweeper", now)

	assert.Equal(t, "/var/log/sweeper", filepath.Dir(path))
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "azure_snapshot_manager_20260307_"), base)
	assert.True(t, strings.HasSuffix(base, ".log"), base)
}

func TestSelectSubscriptions(t *testing.T) {
	ctx := context.Background()
	cloud := newFakeCloud()
	cloud.subscriptions = []entity.Subscription{
		{ID: "1111", Name: "app-nonprod"},
		{ID: "2222", Name: "app-prod"},
	}

	t.Run("all when no filter", func(t *testing.T) {
		uc := NewSweepUseCase(SweepDependencies{}, nil, nil, &fakeConsole{})
		subs, err := uc.SelectSubscriptions(ctx, cloud, nil)
		require.NoError(t, err)
		assert.Len(t, subs, 2)
	})

	t.Run("by id or name", func(t *testing.T) {
		console := &fakeConsole{}
		uc := NewSweepUseCase(SweepDependencies{}, nil, nil, console)
		subs, err := uc.SelectSubscriptions(ctx, cloud, []string{"APP-PROD", "missing"})
		require.NoError(t, err)
		assert.Equal(t, []entity.Subscription{{ID: "2222", Name: "app-prod"}}, subs)
		require.Len(t, console.warnings, 1)
		assert.Contains(t, console.warnings[0], "missing")
	})

	t.Run("none matched", func(t *testing.T) {
		uc := NewSweepUseCase(SweepDependencies{}, nil, nil, &fakeConsole{})
		_, err := uc.SelectSubscriptions(ctx, cloud, []string{"nope"})
		assert.ErrorIs(t, err, types.ErrNoValidSubscriptionsFound)
	})

	t.Run("no subscriptions", func(t *testing.T) {
		uc := NewSweepUseCase(SweepDependencies{}, nil, nil, &fakeConsole{})
		_, err := uc.SelectSubscriptions(ctx, newFakeCloud(), nil)
		assert.ErrorIs(t, err, types.ErrNoSubscriptionsFound)
	})
}

func TestDiscover(t *testing.T) {
	created := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	cloud := newFakeCloud()
	subs := []entity.Subscription{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}, {ID: "3", Name: "three"}}
	cloud.snapshots["1"] = []entity.Snapshot{{ID: "s1", Name: "daily-1", TimeCreated: created}}
	cloud.snapshots["3"] = []entity.Snapshot{
		{ID: "s3", Name: "daily-3", TimeCreated: created},
		{ID: "s4", Name: "weekly-4", TimeCreated: created},
	}
	cloud.listSnapErr["2"] = errors.New("AuthorizationFailed")

	console := &fakeConsole{}
	uc := NewSweepUseCase(SweepDependencies{}, nil, nil, console)
	found := uc.Discover(context.Background(), cloud, subs, entity.CurrentMonthRange(created), "DAILY")

	require.Len(t, found, 2)
	assert.Equal(t, "s1", found[0].ID)
	assert.Equal(t, "one", found[0].SubscriptionName)
	assert.Equal(t, "s3", found[1].ID)
	assert.Equal(t, "3", found[1].SubscriptionID)
	require.Len(t, console.warnings, 1)
	assert.Contains(t, console.warnings[0], "two")
}

// sweepFixture wires a SweepUseCase to in-memory adapters.
type sweepFixture struct {
	cloud   *fakeCloud
	audit   *fakeAudit
	console *fakeConsole
	uc      *SweepUseCase
	args    *types.CLIArgs
}

func newSweepFixture(t *testing.T) *sweepFixture {
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	f := &sweepFixture{cloud: newFakeCloud(), audit: &fakeAudit{}, console: &fakeConsole{}}

	f.cloud.subscriptions = []entity.Subscription{
		{ID: "np", Name: "app-nonprod"},
		{ID: "p", Name: "app-prod"},
		{ID: "sb", Name: "sandbox"},
	}
	at := func(days int) time.Time { return now.Add(-time.Duration(days)*24*time.Hour - time.Hour) }
	f.cloud.snapshots["np"] = []entity.Snapshot{
		{ID: "/np/old", Name: "np-old", ResourceGroup: "rg-np", TimeCreated: at(5)},
		{ID: "/np/new", Name: "np-new", ResourceGroup: "rg-np", TimeCreated: at(1)},
	}
	f.cloud.snapshots["p"] = []entity.Snapshot{
		{ID: "/p/old", Name: "p-old", ResourceGroup: "rg-p", TimeCreated: at(10)},
		{ID: "/p/mid", Name: "p-mid", ResourceGroup: "rg-p", TimeCreated: at(5)},
	}
	f.cloud.snapshots["sb"] = []entity.Snapshot{
		{ID: "/sb/ancient", Name: "sb-ancient", ResourceGroup: "rg-sb", TimeCreated: at(15)},
	}
	f.cloud.locks["rg-p"] = []entity.Lock{lock("prod-lock", "rg-p")}

	deps := SweepDependencies{
		NewCloud: func(backend string) (repository.CloudRepository, error) {
			return f.cloud, nil
		},
		NewAudit: func(path, level string) (repository.AuditRepository, error) {
			return f.audit, nil
		},
	}
	f.uc = NewSweepUseCase(deps, nil, nil, f.console)
	f.uc.now = func() time.Time { return now }

	f.args = &types.CLIArgs{
		StartDate:         "2026-06-01",
		EndDate:           "2026-06-30",
		Backend:           "cli",
		NonProdMinAgeDays: DefaultNonProdMinAgeDays,
		ProdMinAgeDays:    DefaultProdMinAgeDays,
		CallTimeout:       time.Minute,
		Dir:               t.TempDir(),
		Yes:               true,
	}
	return f
}

func TestRunSweep(t *testing.T) {
	t.Run("deletes eligible snapshots per environment", func(t *testing.T) {
		f := newSweepFixture(t)

		require.NoError(t, f.uc.RunSweep(context.Background(), f.args))

		assert.ElementsMatch(t, []string{"/np/old", "/p/old"}, f.cloud.deleted)
		assert.Equal(t, 1, f.cloud.count("create-lock:prod-lock"))
		assert.Less(t, f.cloud.indexOf("delete:/np/old"), f.cloud.indexOf("set:p"))
		assert.True(t, f.audit.closed)
		require.Len(t, f.audit.trees, 1)
		assert.Len(t, f.audit.trees[0].Subscriptions, 3)
		assert.Zero(t, f.console.asked)
	})

	t.Run("dry run deletes nothing", func(t *testing.T) {
		f := newSweepFixture(t)
		f.args.DryRun = true

		require.NoError(t, f.uc.RunSweep(context.Background(), f.args))
		assert.Empty(t, f.cloud.deleted)
		assert.Equal(t, -1, f.cloud.indexOf("list-locks:rg-p"))
	})

	t.Run("declined confirmation deletes nothing", func(t *testing.T) {
		f := newSweepFixture(t)
		f.args.Yes = false
		f.console.confirm = false

		require.NoError(t, f.uc.RunSweep(context.Background(), f.args))
		assert.Empty(t, f.cloud.deleted)
		assert.Equal(t, 2, f.console.asked)
	})

	t.Run("failures make the run incomplete", func(t *testing.T) {
		f := newSweepFixture(t)
		f.cloud.deleteErr["/p/old"] = errors.New("SnapshotInUse")

		err := f.uc.RunSweep(context.Background(), f.args)
		assert.ErrorIs(t, err, types.ErrDeletionIncomplete)
		assert.Equal(t, []string{"/np/old"}, f.cloud.deleted)
	})

	t.Run("backend error stops the run", func(t *testing.T) {
		f := newSweepFixture(t)
		f.uc.deps.NewCloud = func(string) (repository.CloudRepository, error) {
			return nil, types.ErrUnsupportedBackend
		}

		err := f.uc.RunSweep(context.Background(), f.args)
		assert.ErrorIs(t, err, types.ErrUnsupportedBackend)
	})
}
