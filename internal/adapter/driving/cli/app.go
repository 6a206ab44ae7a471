package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/diillson/azure-snapshot-sweeper-go/pkg/version"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/application/usecase"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
	"github.com/spf13/cobra"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd      *cobra.Command
	sweepUseCase *usecase.SweepUseCase
	version      string
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "snapshot-sweeper",
		Short:         "Azure Snapshot Search & Destroy",
		Long:          "Finds Azure disk snapshots across subscriptions and deletes the ones older than the retention policy, clearing and restoring resource group delete locks around the deletion.",
		Version:       formattedVersion,
		RunE:          app.runCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{printf "Azure Snapshot Sweeper version: %s\n" .Version}}`)

	// Adiciona flags de linha de comando
	flags := rootCmd.PersistentFlags()
	flags.StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.StringSliceP("subscriptions", "s", nil, "Subscription ids or names to search (comma-separated, default: all)")
	flags.String("start-date", "", "Start date (YYYY-MM-DD, default: first day of the current month)")
	flags.String("end-date", "", "End date (YYYY-MM-DD, default: last day of the current month)")
	flags.StringP("keyword", "k", "", "Only consider snapshots whose name contains this keyword")
	flags.StringP("backend", "b", "cli", "Control plane backend: cli (az command) or sdk (Azure SDK)")
	flags.Int("nonprod-min-age", usecase.DefaultNonProdMinAgeDays, "Minimum age in days for non-prod snapshots to be deleted")
	flags.Int("prod-min-age", usecase.DefaultProdMinAgeDays, "Minimum age in days for prod snapshots to be deleted")
	flags.Duration("call-timeout", usecase.DefaultCallTimeout, "Timeout for each control plane call (0 disables)")
	flags.Int("max-parallel", 0, "Maximum concurrent deletions per subscription (0: unbounded)")
	flags.StringP("report-name", "n", "", "Base name for exported report files (without extension)")
	flags.StringSliceP("report-type", "y", []string{"csv"}, "Report types: csv, json, pdf")
	flags.StringP("dir", "d", "", "Directory to save report and audit files (default: current directory)")
	flags.String("upload-url", "", "Azure Storage blob service URL to upload reports to")
	flags.String("upload-container", "", "Blob container for uploaded reports (default: snapshot-reports)")
	flags.String("audit-log", "", "Audit log file (default: azure_snapshot_manager_<date>_<user>.log in --dir)")
	flags.String("log-level", "info", "Audit log level: debug, info, warn, error")
	flags.Bool("yes", false, "Delete without asking for confirmation")
	flags.Bool("dry-run", false, "Only list the snapshots that would be deleted")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs() (*types.CLIArgs, error) {
	flags := app.rootCmd.Flags()
	configFile, _ := flags.GetString("config-file")
	subscriptions, _ := flags.GetStringSlice("subscriptions")
	startDate, _ := flags.GetString("start-date")
	endDate, _ := flags.GetString("end-date")
	keyword, _ := flags.GetString("keyword")
	backend, _ := flags.GetString("backend")
	nonProdMinAge, _ := flags.GetInt("nonprod-min-age")
	prodMinAge, _ := flags.GetInt("prod-min-age")
	callTimeout, _ := flags.GetDuration("call-timeout")
	maxParallel, _ := flags.GetInt("max-parallel")
	reportName, _ := flags.GetString("report-name")
	reportType, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")
	uploadURL, _ := flags.GetString("upload-url")
	uploadContainer, _ := flags.GetString("upload-container")
	auditLog, _ := flags.GetString("audit-log")
	logLevel, _ := flags.GetString("log-level")
	yes, _ := flags.GetBool("yes")
	dryRun, _ := flags.GetBool("dry-run")

	// Set default directory to current working directory if not specified
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		// Convert to absolute path
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile:        configFile,
		Subscriptions:     subscriptions,
		StartDate:         startDate,
		EndDate:           endDate,
		Keyword:           keyword,
		Backend:           backend,
		NonProdMinAgeDays: nonProdMinAge,
		ProdMinAgeDays:    prodMinAge,
		CallTimeout:       callTimeout,
		MaxParallel:       maxParallel,
		ReportName:        reportName,
		ReportType:        reportType,
		Dir:               dir,
		UploadURL:         uploadURL,
		UploadContainer:   uploadContainer,
		AuditLog:          auditLog,
		LogLevel:          logLevel,
		Yes:               yes,
		DryRun:            dryRun,
	}

	return args, nil
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, args []string) error {
	// Exibe o banner de boas-vindas
	displayWelcomeBanner(app.version)

	// Verifica a versão mais recente disponível
	go version.CheckLatestVersion(app.version)

	// Analisa os argumentos da linha de comando
	cliArgs, err := app.parseArgs()
	if err != nil {
		return err
	}

	// Flags passadas explicitamente têm prioridade sobre o arquivo de configuração
	if err := app.sweepUseCase.ApplyConfigFile(cliArgs, cmd.Flags().Changed); err != nil {
		return err
	}

	// Ctrl+C interrompe novas operações; locks removidos ainda são restaurados
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.sweepUseCase.RunSweep(ctx, cliArgs)
}

// SetSweepUseCase sets the sweep use case for the CLI app.
func (app *CLIApp) SetSweepUseCase(useCase *usecase.SweepUseCase) {
	app.sweepUseCase = useCase
}
