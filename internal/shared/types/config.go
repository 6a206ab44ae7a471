package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	Subscriptions     []string `json:"subscriptions" yaml:"subscriptions" toml:"subscriptions"`
	StartDate         string   `json:"start_date" yaml:"start_date" toml:"start_date"`
	EndDate           string   `json:"end_date" yaml:"end_date" toml:"end_date"`
	Keyword           string   `json:"keyword" yaml:"keyword" toml:"keyword"`
	Backend           string   `json:"backend" yaml:"backend" toml:"backend"`
	NonProdMinAgeDays int      `json:"nonprod_min_age_days" yaml:"nonprod_min_age_days" toml:"nonprod_min_age_days"`
	ProdMinAgeDays    int      `json:"prod_min_age_days" yaml:"prod_min_age_days" toml:"prod_min_age_days"`
	CallTimeout       string   `json:"call_timeout" yaml:"call_timeout" toml:"call_timeout"`
	MaxParallel       int      `json:"max_parallel" yaml:"max_parallel" toml:"max_parallel"`
	ReportName        string   `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType        []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	Dir               string   `json:"dir" yaml:"dir" toml:"dir"`
	UploadURL         string   `json:"upload_url" yaml:"upload_url" toml:"upload_url"`
	UploadContainer   string   `json:"upload_container" yaml:"upload_container" toml:"upload_container"`
	AuditLog          string   `json:"audit_log" yaml:"audit_log" toml:"audit_log"`
	LogLevel          string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	Yes               bool     `json:"yes" yaml:"yes" toml:"yes"`
	DryRun            bool     `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
}
