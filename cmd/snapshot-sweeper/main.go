package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/adapter/driven/audit"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/adapter/driven/azure"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/adapter/driven/config"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/adapter/driven/export"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/adapter/driven/upload"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/adapter/driving/cli"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/application/usecase"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
	"github.com/diillson/azure-snapshot-sweeper-go/pkg/console"
	"github.com/diillson/azure-snapshot-sweeper-go/pkg/version"
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios; os que dependem dos argumentos são criados por fábricas
	deps := usecase.SweepDependencies{
		NewCloud:    azure.NewCloudRepository,
		NewAudit:    audit.NewFileAuditRepository,
		NewUploader: upload.NewBlobRepository,
	}
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	// Inicializa o caso de uso
	sweepUseCase := usecase.NewSweepUseCase(
		deps,
		exportRepo,
		configRepo,
		consoleImpl,
	)

	app.SetSweepUseCase(sweepUseCase)

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, types.ErrDeletionIncomplete) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
