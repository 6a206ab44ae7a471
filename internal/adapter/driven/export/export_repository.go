package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/entity"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct {
	now func() time.Time
}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{now: time.Now}
}

// deletionReportDocument é a forma serializada de um DeletionReport.
type deletionReportDocument struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Deleted     []string                 `json:"deleted"`
	Failed      []string                 `json:"failed"`
	Outcomes    []entity.SnapshotOutcome `json:"outcomes"`
	LockEvents  []entity.LockEvent       `json:"lock_events"`
	AuditTree   entity.AuditTree         `json:"deleted_tree"`
}

// --- Inventário de snapshots ---

var inventoryHeaders = []string{"name", "resourceGroup", "timeCreated", "createdBy", "subscription_name", "diskState", "id"}

func (r *ExportRepositoryImpl) ExportInventoryToCSV(snapshots []entity.Snapshot, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(inventoryHeaders); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, s := range snapshots {
		record := []string{
			s.Name,
			s.ResourceGroup,
			s.TimeCreated.Format(time.RFC3339),
			orNA(s.CreatedBy),
			s.SubscriptionName,
			orNA(s.DiskState),
			s.ID,
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV file: %w", err)
	}
	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportInventoryToJSON(snapshots []entity.Snapshot, filename, outputDir string) (string, error) {
	return r.writeJSON(snapshots, filename, outputDir)
}

func (r *ExportRepositoryImpl) ExportInventoryToPDF(snapshots []entity.Snapshot, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := newReportPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	tree := entity.BuildAuditTree(snapshots)
	byID := make(map[string]entity.Snapshot, len(snapshots))
	for _, s := range snapshots {
		byID[s.ID] = s
	}

	pdf.AddPage()
	drawTitle(pdf, tr, "Snapshot Inventory", fmt.Sprintf("Total snapshots: %d", len(snapshots)))

	for _, sub := range tree.Subscriptions {
		for _, rg := range sub.ResourceGroups {
			var lines []string
			for _, id := range rg.SnapshotIDs {
				s := byID[id]
				lines = append(lines, fmt.Sprintf("%s  |  %s  |  %s", s.Name, s.TimeCreated.Format("2006-01-02"), orNA(s.DiskState)))
			}
			drawSection(pdf, tr, fmt.Sprintf("%s / %s", sub.Name, rg.Name), strings.Join(lines, "\n"))
		}
	}

	r.drawFooter(pdf, tr)
	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}
	return filepath.Abs(outputFilename)
}

// --- Relatório de exclusão ---

func (r *ExportRepositoryImpl) ExportDeletionReportToCSV(report *entity.DeletionReport, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	headers := []string{"name", "id", "subscription_name", "resourceGroup", "age_days", "status", "failure_kind", "error"}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, o := range report.Outcomes() {
		record := []string{
			o.Snapshot.Name,
			o.Snapshot.ID,
			o.Snapshot.SubscriptionName,
			o.Snapshot.ResourceGroup,
			strconv.Itoa(o.Snapshot.AgeDays),
			string(o.Status),
			string(o.Kind),
			cleanRichTags(o.Error),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV file: %w", err)
	}
	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportDeletionReportToJSON(report *entity.DeletionReport, filename, outputDir string) (string, error) {
	doc := deletionReportDocument{
		GeneratedAt: r.now().UTC(),
		Deleted:     report.Deleted(),
		Failed:      report.Failed(),
		Outcomes:    report.Outcomes(),
		LockEvents:  report.LockEvents,
		AuditTree:   entity.BuildReportAuditTree(report, entity.OutcomeDeleted),
	}
	return r.writeJSON(doc, filename, outputDir)
}

func (r *ExportRepositoryImpl) ExportDeletionReportToPDF(report *entity.DeletionReport, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := newReportPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	deleted := report.Deleted()
	failed := report.Failed()

	pdf.AddPage()
	drawTitle(pdf, tr, "Snapshot Deletion Report",
		fmt.Sprintf("Deleted: %d  |  Failed: %d  |  Unrestored locks: %d", len(deleted), len(failed), len(report.RestoreFailures())))

	drawSection(pdf, tr, "Deleted Snapshots", strings.Join(deleted, "\n"))

	var failures []string
	for _, o := range report.Outcomes() {
		if o.Status == entity.OutcomeFailed {
			failures = append(failures, fmt.Sprintf("%s (%s): %s", o.Snapshot.Name, o.Kind, cleanRichTags(o.Error)))
		}
	}
	drawSection(pdf, tr, "Failed Snapshots", strings.Join(failures, "\n"))

	var lockLines []string
	for _, ev := range report.LockEvents {
		line := fmt.Sprintf("[%s] %s / %s: %s", ev.At.Format("15:04:05"), ev.ResourceGroup, ev.LockName, ev.Action)
		if ev.Error != "" {
			line += " - " + ev.Error
		}
		lockLines = append(lockLines, line)
	}
	drawSection(pdf, tr, "Lock Activity", strings.Join(lockLines, "\n"))

	r.drawFooter(pdf, tr)
	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}
	return filepath.Abs(outputFilename)
}

// --- Helpers ---

func (r *ExportRepositoryImpl) writeJSON(v interface{}, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := r.now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

func newReportPDF() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	return pdf
}

func drawTitle(pdf *gofpdf.Fpdf, tr func(string) string, title, subtitle string) {
	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  "+title), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(50, 50, 50)
	pdf.CellFormat(0, 8, tr("  "+subtitle), "", 1, "L", true, 0, "")
	pdf.Ln(10)
}

func drawSection(pdf *gofpdf.Fpdf, tr func(string) string, title, content string) {
	if content == "" {
		content = "None"
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(7)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(50, 50, 50)
	pdf.MultiCell(190, 5, tr(content), "", "L", false)
	pdf.Ln(8)
}

func (r *ExportRepositoryImpl) drawFooter(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	footerText := fmt.Sprintf("Generated by Azure Snapshot Sweeper | %s", r.now().Format("2006-01-02"))
	pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")
}

// Regex para limpar formatação pterm (rich tags) e sequências ANSI de cor/estilo.
var richTagRegex = regexp.MustCompile(`\[/?([a-zA-Z]+|#[0-9a-fA-F]{6})\]`)
var ansiRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

// cleanRichTags remove tags de formatação do pterm e sequências ANSI.
func cleanRichTags(text string) string {
	text = richTagRegex.ReplaceAllString(text, "")
	text = ansiRegex.ReplaceAllString(text, "")
	return text
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
