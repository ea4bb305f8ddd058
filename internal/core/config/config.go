// Package config loads the audit configuration from TOML. Everything has a
// usable default so a bare `crmaudit audit` over the current directory works
// with no config file at all.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version    int        `toml:"version"`
	Project    Project    `toml:"project"`
	Scan       Scan       `toml:"scan"`
	Knowledge  Knowledge  `toml:"knowledge"`
	Validation Validation `toml:"validation"`
	Cache      Cache      `toml:"cache"`
	History    History    `toml:"history"`
	Watch      Watch      `toml:"watch"`
	Report     Report     `toml:"report"`
	Metrics    Metrics    `toml:"metrics"`
}

type Project struct {
	Key string `toml:"key"`
}

type Scan struct {
	Root         string   `toml:"root"`
	Extensions   []string `toml:"extensions"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	Workers      int      `toml:"workers"`
}

type Knowledge struct {
	SchemaCSV     string `toml:"schema_csv"`
	Settings      string `toml:"settings"`
	CentralConfig string `toml:"central_config"`
}

type Validation struct {
	SimilarityThreshold float64             `toml:"similarity_threshold"`
	ContextLines        int                 `toml:"context_lines"`
	BannedStatus        string              `toml:"banned_status"`
	OutreachMarker      string              `toml:"outreach_marker"`
	CentralConfigFile   string              `toml:"central_config_file"`
	RequiredColumns     map[string][]string `toml:"required_columns"`
	ServiceNamespaces   []string            `toml:"service_namespaces"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// RatePerMinute caps how often watch events may trigger a full re-audit.
	RatePerMinute float64 `toml:"rate_per_minute"`
	Burst         int     `toml:"burst"`
}

type Report struct {
	JSON  string `toml:"json"`
	HTML  string `toml:"html"`
	SARIF string `toml:"sarif"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// Load reads and validates a config file. A missing file is not an error;
// defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validateValidation(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Project.Key) == "" {
		cfg.Project.Key = "default"
	}

	if strings.TrimSpace(cfg.Scan.Root) == "" {
		cfg.Scan.Root = "."
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".js", ".gs", ".html"}
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = []string{".git", "node_modules", ".clasp"}
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 4
	}

	if strings.TrimSpace(cfg.Knowledge.SchemaCSV) == "" {
		cfg.Knowledge.SchemaCSV = "System_Schema.csv"
	}
	if strings.TrimSpace(cfg.Knowledge.Settings) == "" {
		cfg.Knowledge.Settings = "Settings.tsv"
	}
	if strings.TrimSpace(cfg.Knowledge.CentralConfig) == "" {
		cfg.Knowledge.CentralConfig = "Config.js"
	}

	if cfg.Validation.SimilarityThreshold == 0 {
		cfg.Validation.SimilarityThreshold = 0.85
	}
	if cfg.Validation.ContextLines == 0 {
		cfg.Validation.ContextLines = 3
	}
	if strings.TrimSpace(cfg.Validation.BannedStatus) == "" {
		cfg.Validation.BannedStatus = "Not Contacted"
	}
	if strings.TrimSpace(cfg.Validation.OutreachMarker) == "" {
		cfg.Validation.OutreachMarker = "outreach"
	}
	if strings.TrimSpace(cfg.Validation.CentralConfigFile) == "" {
		cfg.Validation.CentralConfigFile = "Config.js"
	}
	if cfg.Validation.RequiredColumns == nil {
		cfg.Validation.RequiredColumns = map[string][]string{
			"Prospects": {"Company ID", "Company Name", "Contact Status"},
			"Outreach":  {"Outreach ID", "Company ID", "Outcome"},
			"Accounts":  {"Company Name", "Contact Name"},
		}
	}

	if strings.TrimSpace(cfg.Cache.Path) == "" {
		cfg.Cache.Path = ".crmaudit/cache.db"
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".crmaudit/history.db"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RatePerMinute == 0 {
		cfg.Watch.RatePerMinute = 12
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 2
	}

	if strings.TrimSpace(cfg.Metrics.Address) == "" {
		cfg.Metrics.Address = "127.0.0.1:9190"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	for _, ext := range cfg.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("scan extension %q must start with a dot", ext)
		}
	}
	return nil
}

func validateValidation(cfg *Config) error {
	t := cfg.Validation.SimilarityThreshold
	if t <= 0 || t >= 1 {
		return fmt.Errorf("similarity_threshold %v must be strictly between 0 and 1", t)
	}
	if cfg.Validation.ContextLines < 1 {
		return fmt.Errorf("context_lines %d must be at least 1", cfg.Validation.ContextLines)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}
	if cfg.Watch.RatePerMinute < 0 || cfg.Watch.Burst < 0 {
		return fmt.Errorf("watch rate limits must not be negative")
	}
	return nil
}
