package repository

import (
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
)

type ExportRepository interface {
	// Inventory
	ExportInventoryToCSV(snapshots []entity.Snapshot, filename, outputDir string) (string, error)
	ExportInventoryToJSON(snapshots []entity.Snapshot, filename, outputDir string) (string, error)
	ExportInventoryToPDF(snapshots []entity.Snapshot, filename, outputDir string) (string, error)

	// Deletion report
	ExportDeletionReportToCSV(report *entity.DeletionReport, filename, outputDir string) (string, error)
	ExportDeletionReportToJSON(report *entity.DeletionReport, filename, outputDir string) (string, error)
	ExportDeletionReportToPDF(report *entity.DeletionReport, filename, outputDir string) (string, error)
}
