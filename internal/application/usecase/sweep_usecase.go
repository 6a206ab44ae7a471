package usecase

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
	"github.com/diillson/azure-snapshot-sweeper-go/pkg/console"
)

const dateLayout = "2006-01-02"

// SweepDependencies builds the run-scoped adapters, which depend on CLI arguments.
type SweepDependencies struct {
	NewCloud    func(backend string) (repository.CloudRepository, error)
	NewAudit    func(path, level string) (repository.AuditRepository, error)
	NewUploader func(serviceURL, container string) (repository.UploadRepository, error)
}

// SweepUseCase handles discovery, selection and deletion of old snapshots.
type SweepUseCase struct {
	deps       SweepDependencies
	exportRepo repository.ExportRepository
	configRepo repository.ConfigRepository
	console    types.ConsoleInterface
	now        func() time.Time
}

// NewSweepUseCase creates a new sweep use case.
func NewSweepUseCase(
	deps SweepDependencies,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *SweepUseCase {
	return &SweepUseCase{
		deps:       deps,
		exportRepo: exportRepo,
		configRepo: configRepo,
		console:    console,
		now:        time.Now,
	}
}

// ApplyConfigFile carrega o arquivo de configuração e preenche os campos de args
// que não foram definidos explicitamente na linha de comando.
func (uc *SweepUseCase) ApplyConfigFile(args *types.CLIArgs, explicit func(flag string) bool) error {
	if args.ConfigFile == "" {
		return nil
	}

	cfg, err := uc.configRepo.LoadConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}

	setStrings := func(flag string, dst *[]string, v []string) {
		if !explicit(flag) && len(v) > 0 {
			*dst = v
		}
	}
	setString := func(flag string, dst *string, v string) {
		if !explicit(flag) && v != "" {
			*dst = v
		}
	}
	setInt := func(flag string, dst *int, v int) {
		if !explicit(flag) && v > 0 {
			*dst = v
		}
	}
	setBool := func(flag string, dst *bool, v bool) {
		if !explicit(flag) && v {
			*dst = v
		}
	}

	setStrings("subscriptions", &args.Subscriptions, cfg.Subscriptions)
	setString("start-date", &args.StartDate, cfg.StartDate)
	setString("end-date", &args.EndDate, cfg.EndDate)
	setString("keyword", &args.Keyword, cfg.Keyword)
	setString("backend", &args.Backend, cfg.Backend)
	setInt("nonprod-min-age", &args.NonProdMinAgeDays, cfg.NonProdMinAgeDays)
	setInt("prod-min-age", &args.ProdMinAgeDays, cfg.ProdMinAgeDays)
	setInt("max-parallel", &args.MaxParallel, cfg.MaxParallel)
	setString("report-name", &args.ReportName, cfg.ReportName)
	setStrings("report-type", &args.ReportType, cfg.ReportType)
	setString("upload-url", &args.UploadURL, cfg.UploadURL)
	setString("upload-container", &args.UploadContainer, cfg.UploadContainer)
	setString("audit-log", &args.AuditLog, cfg.AuditLog)
	setString("log-level", &args.LogLevel, cfg.LogLevel)
	setBool("yes", &args.Yes, cfg.Yes)
	setBool("dry-run", &args.DryRun, cfg.DryRun)

	if !explicit("dir") && cfg.Dir != "" {
		absDir, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return err
		}
		args.Dir = absDir
	}

	if !explicit("call-timeout") && cfg.CallTimeout != "" {
		d, err := time.ParseDuration(cfg.CallTimeout)
		if err != nil {
			return fmt.Errorf("invalid call_timeout %q: %w", cfg.CallTimeout, err)
		}
		args.CallTimeout = d
	}

	return nil
}

// ResolveTimeRange parses YYYY-MM-DD dates into an inclusive UTC range. Empty or
// invalid input falls back to the current month; ok is false when a fallback
// was caused by invalid input.
func ResolveTimeRange(start, end string, now time.Time) (entity.TimeRange, bool) {
	def := entity.CurrentMonthRange(now)
	if start == "" && end == "" {
		return def, true
	}

	tr := def
	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, time.UTC)
		if err != nil {
			return def, false
		}
		tr.Start = t
	}
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, time.UTC)
		if err != nil {
			return def, false
		}
		tr.End = t.Add(24*time.Hour - time.Second)
	}
	if tr.End.Before(tr.Start) {
		return def, false
	}
	return tr, true
}

// DefaultAuditLogPath retorna o caminho padrão do log de auditoria:
// azure_snapshot_manager_<YYYYMMDD>_<usuário>.log dentro de dir.
func DefaultAuditLogPath(dir string, now time.Time) string {
	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = filepath.Base(u.Username)
	}
	return filepath.Join(dir, fmt.Sprintf("azure_snapshot_manager_%s_%s.log", now.Format("20060102"), username))
}

// RunSweep executa o fluxo completo: descoberta, seleção e exclusão.
func (uc *SweepUseCase) RunSweep(ctx context.Context, args *types.CLIArgs) error {
	start := uc.now()

	timeRange, ok := ResolveTimeRange(args.StartDate, args.EndDate, start)
	if !ok {
		uc.console.LogWarning("Invalid date format. Using default date range for the current month.")
	}
	uc.console.LogInfo("Date range: %s to %s", timeRange.Start.Format(time.RFC3339), timeRange.End.Format(time.RFC3339))

	cloud, err := uc.deps.NewCloud(args.Backend)
	if err != nil {
		return err
	}

	auditPath := args.AuditLog
	if auditPath == "" {
		auditPath = DefaultAuditLogPath(args.Dir, start)
	}
	audit, err := uc.deps.NewAudit(auditPath, args.LogLevel)
	if err != nil {
		return err
	}
	defer audit.Close()
	uc.console.LogInfo("Logging to file: %s", auditPath)

	subscriptions, err := uc.SelectSubscriptions(ctx, cloud, args.Subscriptions)
	if err != nil {
		return err
	}

	snapshots := uc.Discover(ctx, cloud, subscriptions, timeRange, args.Keyword)
	runtime := uc.now().Sub(start)

	uc.displayInventory(subscriptions, snapshots)
	audit.Inventory(entity.BuildAuditTree(snapshots))
	uc.console.Box("Summary", fmt.Sprintf("%s\n%s",
		console.BrightGreen(fmt.Sprintf("Total snapshots found: %d", len(snapshots))),
		console.BrightYellow(fmt.Sprintf("Runtime: %.2f seconds", runtime.Seconds()))))

	var exported []string
	if args.ReportName != "" {
		exported = append(exported, uc.exportInventory(snapshots, args)...)
	}

	policy := RetentionPolicy{NonProdMinAgeDays: args.NonProdMinAgeDays, ProdMinAgeDays: args.ProdMinAgeDays}
	if policy.NonProdMinAgeDays <= 0 {
		policy.NonProdMinAgeDays = DefaultNonProdMinAgeDays
	}
	if policy.ProdMinAgeDays <= 0 {
		policy.ProdMinAgeDays = DefaultProdMinAgeDays
	}
	nonProd, prod := policy.Select(snapshots, uc.now())

	orchestrator := NewDeletionOrchestrator(cloud,
		WithCallTimeout(args.CallTimeout),
		WithMaxParallel(args.MaxParallel),
		WithAudit(audit),
		WithConsole(uc.console),
	)

	incomplete := false
	groups := []struct {
		env       Environment
		label     string
		minAge    int
		snapshots []entity.Snapshot
	}{
		{EnvironmentNonProd, "Non-prod", policy.NonProdMinAgeDays, nonProd},
		{EnvironmentProd, "Prod", policy.ProdMinAgeDays, prod},
	}
	for _, g := range groups {
		report, files := uc.sweepEnvironment(ctx, orchestrator, g.label, g.minAge, g.snapshots, args)
		exported = append(exported, files...)
		if report != nil && report.HasFailures() {
			incomplete = true
		}
	}

	if args.UploadURL != "" && len(exported) > 0 {
		uc.uploadReports(ctx, args, exported)
	}

	uc.console.LogSuccess("Snapshot search and destroy complete!")

	if incomplete {
		return types.ErrDeletionIncomplete
	}
	return nil
}

// SelectSubscriptions lista as subscriptions e aplica o filtro opcional por id ou nome.
func (uc *SweepUseCase) SelectSubscriptions(ctx context.Context, cloud repository.CloudRepository, wanted []string) ([]entity.Subscription, error) {
	available, err := cloud.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	if len(available) == 0 {
		return nil, types.ErrNoSubscriptionsFound
	}
	if len(wanted) == 0 {
		return available, nil
	}

	selected := []entity.Subscription{}
	for _, w := range wanted {
		found := false
		for _, sub := range available {
			if strings.EqualFold(sub.ID, w) || strings.EqualFold(sub.Name, w) {
				selected = append(selected, sub)
				found = true
				break
			}
		}
		if !found {
			uc.console.LogWarning("Subscription '%s' not found", w)
		}
	}
	if len(selected) == 0 {
		return nil, types.ErrNoValidSubscriptionsFound
	}
	return selected, nil
}

// Discover busca snapshots em todas as subscriptions em paralelo. Subscriptions
// que falham são reportadas e ignoradas. O resultado segue a ordem das subscriptions.
func (uc *SweepUseCase) Discover(
	ctx context.Context,
	cloud repository.CloudRepository,
	subscriptions []entity.Subscription,
	timeRange entity.TimeRange,
	keyword string,
) []entity.Snapshot {
	names := make([]string, len(subscriptions))
	for i, sub := range subscriptions {
		names[i] = sub.Name
	}
	progress := uc.console.Progress(names)
	defer progress.Stop()

	perSub := make([][]entity.Snapshot, len(subscriptions))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, sub := range subscriptions {
		wg.Add(1)
		go func(i int, sub entity.Subscription) {
			defer wg.Done()
			found, err := cloud.ListSnapshots(ctx, sub.ID, timeRange, keyword)

			mu.Lock()
			defer mu.Unlock()
			progress.Increment()
			if err != nil {
				uc.console.LogWarning("No snapshots found in subscription %s. Error: %s", sub.Name, err)
				return
			}
			for j := range found {
				found[j].SubscriptionID = sub.ID
				found[j].SubscriptionName = sub.Name
			}
			perSub[i] = found
		}(i, sub)
	}
	wg.Wait()

	all := []entity.Snapshot{}
	for _, found := range perSub {
		all = append(all, found...)
	}
	return all
}

// sweepEnvironment apresenta os candidatos de um ambiente, pede confirmação e executa a exclusão.
func (uc *SweepUseCase) sweepEnvironment(
	ctx context.Context,
	orchestrator *DeletionOrchestrator,
	label string,
	minAge int,
	candidates []entity.Snapshot,
	args *types.CLIArgs,
) (*entity.DeletionReport, []string) {
	if len(candidates) == 0 {
		uc.console.LogSuccess("No %s snapshots to delete.", strings.ToLower(label))
		return nil, nil
	}

	uc.console.LogWarning("There are %d %s snapshots that are %d days or older.", len(candidates), strings.ToLower(label), minAge)

	table := uc.console.CreateTable()
	table.AddColumn("Name")
	table.AddColumn("Subscription")
	table.AddColumn("Resource Group")
	table.AddColumn("Age (days)")
	for _, s := range candidates {
		table.AddRow(s.Name, s.SubscriptionName, s.ResourceGroup, s.AgeDays)
	}
	uc.console.Println(console.BoldRed(fmt.Sprintf("%s Snapshots to be Deleted", label)))
	uc.console.Print(table.Render())

	if args.DryRun {
		uc.console.LogInfo("Dry run: skipping deletion of %s snapshots.", strings.ToLower(label))
		return nil, nil
	}
	if !args.Yes && !uc.console.Confirm("Do you want to delete these snapshots?") {
		uc.console.LogWarning("Skipping deletion of %s snapshots.", strings.ToLower(label))
		return nil, nil
	}

	report := orchestrator.DeleteAll(ctx, candidates)

	uc.console.Println(console.BrightCyan(fmt.Sprintf("\n%s Snapshot Deletion Results:", label)))
	uc.console.Println(console.BrightGreen(fmt.Sprintf("Deleted snapshots: %d", len(report.Deleted()))))
	uc.console.Println(console.BrightRed(fmt.Sprintf("Failed to delete: %d", len(report.Failed()))))
	for _, ev := range report.RestoreFailures() {
		uc.console.LogError("Lock '%s' on resource group '%s' was NOT restored: %s", ev.LockName, ev.ResourceGroup, ev.Error)
	}

	var files []string
	if args.ReportName != "" {
		name := fmt.Sprintf("%s-%s-deletion", args.ReportName, strings.ToLower(strings.ReplaceAll(label, "-", "")))
		files = uc.exportDeletionReport(report, name, args)
	}
	return report, files
}

func (uc *SweepUseCase) displayInventory(subscriptions []entity.Subscription, snapshots []entity.Snapshot) {
	uc.console.Println(console.BrightCyan("\nDetailed Results:"))
	for _, sub := range subscriptions {
		var subSnapshots []entity.Snapshot
		for _, s := range snapshots {
			if s.SubscriptionID == sub.ID {
				subSnapshots = append(subSnapshots, s)
			}
		}
		if len(subSnapshots) == 0 {
			uc.console.LogWarning("No snapshots found in subscription: %s", sub.Name)
			continue
		}

		table := uc.console.CreateTable()
		table.AddColumn("Name")
		table.AddColumn("Resource Group")
		table.AddColumn("Time Created")
		table.AddColumn("Age (days)")
		table.AddColumn("Created By")
		table.AddColumn("Status")
		now := uc.now()
		for _, s := range subSnapshots {
			s = s.WithAge(now)
			table.AddRow(s.Name, s.ResourceGroup, s.TimeCreated.Format(time.RFC3339),
				console.AgeColor(s.AgeDays), orNA(s.CreatedBy), orNA(s.DiskState))
		}
		uc.console.Println(console.BrightMagenta(fmt.Sprintf("Snapshots in %s", sub.Name)))
		uc.console.Print(table.Render())
	}
}

func (uc *SweepUseCase) exportInventory(snapshots []entity.Snapshot, args *types.CLIArgs) []string {
	var files []string
	for _, reportType := range args.ReportType {
		var (
			path string
			err  error
		)
		switch reportType {
		case "csv":
			path, err = uc.exportRepo.ExportInventoryToCSV(snapshots, args.ReportName, args.Dir)
		case "json":
			path, err = uc.exportRepo.ExportInventoryToJSON(snapshots, args.ReportName, args.Dir)
		case "pdf":
			path, err = uc.exportRepo.ExportInventoryToPDF(snapshots, args.ReportName, args.Dir)
		default:
			uc.console.LogWarning("Unsupported report type: %s", reportType)
			continue
		}
		if err != nil {
			uc.console.LogError("Failed to export inventory to %s: %s", strings.ToUpper(reportType), err)
			continue
		}
		uc.console.LogSuccess("Results exported to %s", path)
		files = append(files, path)
	}
	return files
}

func (uc *SweepUseCase) exportDeletionReport(report *entity.DeletionReport, name string, args *types.CLIArgs) []string {
	var files []string
	for _, reportType := range args.ReportType {
		var (
			path string
			err  error
		)
		switch reportType {
		case "csv":
			path, err = uc.exportRepo.ExportDeletionReportToCSV(report, name, args.Dir)
		case "json":
			path, err = uc.exportRepo.ExportDeletionReportToJSON(report, name, args.Dir)
		case "pdf":
			path, err = uc.exportRepo.ExportDeletionReportToPDF(report, name, args.Dir)
		default:
			continue
		}
		if err != nil {
			uc.console.LogError("Failed to export deletion report to %s: %s", strings.ToUpper(reportType), err)
			continue
		}
		uc.console.LogSuccess("Deletion report exported to %s", path)
		files = append(files, path)
	}
	return files
}

func (uc *SweepUseCase) uploadReports(ctx context.Context, args *types.CLIArgs, files []string) {
	uploader, err := uc.deps.NewUploader(args.UploadURL, args.UploadContainer)
	if err != nil {
		uc.console.LogError("Failed to configure report upload: %s", err)
		return
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		url, err := uploader.Upload(ctx, f)
		if err != nil {
			uc.console.LogError("Failed to upload %s: %s", filepath.Base(f), err)
			continue
		}
		uc.console.LogSuccess("Uploaded %s", url)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
