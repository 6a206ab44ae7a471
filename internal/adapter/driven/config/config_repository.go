package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diillson/azure-snapshot-sweeper-go/internal/domain/repository"
	"github.com/diillson/azure-snapshot-sweeper-go/internal/shared/types"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

var (
	validBackends    = []string{"cli", "sdk"}
	validReportTypes = []string{"csv", "json", "pdf"}
	validLogLevels   = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON e valida seus valores.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := decode(strings.ToLower(filepath.Ext(filePath)), fileData)
	if err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}
	return config, nil
}

func decode(ext string, data []byte) (*types.Config, error) {
	var config types.Config

	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return &config, nil
}

// validate rejeita valores que só falhariam mais tarde, no meio da execução.
func validate(c *types.Config) error {
	var errs []error

	if c.Backend != "" && !oneOf(c.Backend, validBackends) {
		errs = append(errs, fmt.Errorf("backend %q must be one of %s", c.Backend, strings.Join(validBackends, ", ")))
	}
	for _, rt := range c.ReportType {
		if !oneOf(rt, validReportTypes) {
			errs = append(errs, fmt.Errorf("report_type %q must be one of %s", rt, strings.Join(validReportTypes, ", ")))
		}
	}
	if c.LogLevel != "" && !oneOf(c.LogLevel, validLogLevels) {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}
	if c.NonProdMinAgeDays < 0 {
		errs = append(errs, errors.New("nonprod_min_age_days must not be negative"))
	}
	if c.ProdMinAgeDays < 0 {
		errs = append(errs, errors.New("prod_min_age_days must not be negative"))
	}
	if c.MaxParallel < 0 {
		errs = append(errs, errors.New("max_parallel must not be negative"))
	}
	if c.CallTimeout != "" {
		if _, err := time.ParseDuration(c.CallTimeout); err != nil {
			errs = append(errs, fmt.Errorf("call_timeout %q: %w", c.CallTimeout, err))
		}
	}

	return errors.Join(errs...)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
