package types

import "time"

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile        string
	Subscriptions     []string
	StartDate         string
	EndDate           string
	Keyword           string
	Backend           string
	NonProdMinAgeDays int
	ProdMinAgeDays    int
	CallTimeout       time.Duration
	MaxParallel       int
	ReportName        string
	ReportType        []string
	Dir               string
	UploadURL         string
	UploadContainer   string
	AuditLog          string
	LogLevel          string
	Yes               bool
	DryRun            bool
}
