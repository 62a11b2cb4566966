// Package config loads and validates the YAML configuration driving a
// mining run: target platform, selector overrides, mining policy,
// persistence, export sinks, dashboard, and monitoring.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leadscape/leadminer/internal/dashboard"
	"github.com/leadscape/leadminer/internal/filter"
	"github.com/leadscape/leadminer/internal/miner"
	"github.com/leadscape/leadminer/internal/page"
	"github.com/leadscape/leadminer/internal/store"
)

// Config is the top-level run configuration.
type Config struct {
	// SessionID names the session for snapshots and imports. Empty IDs
	// get generated at load time.
	SessionID string `yaml:"session_id,omitempty"`

	// Platform selects the built-in selector table.
	Platform string `yaml:"platform"`

	// URL is the listing page the live browser navigates to.
	URL string `yaml:"url,omitempty"`

	// Selectors optionally overrides the platform defaults.
	Selectors *page.SelectorSet `yaml:"selectors,omitempty"`

	// Browser configures the chromedp session.
	Browser *page.BrowserConfig `yaml:"browser,omitempty"`

	// Mining is the engine policy.
	Mining miner.Config `yaml:"mining"`

	// Audience is an inline filter. When AudienceID is set instead, the
	// spec is fetched from the dashboard at startup.
	Audience   *filter.Spec `yaml:"audience,omitempty"`
	AudienceID string       `yaml:"audience_id,omitempty"`

	// SnapshotPath is the SQLite session database. Empty disables
	// persistence and resume.
	SnapshotPath string `yaml:"snapshot_path,omitempty"`

	// Dashboard enables audience fetch and lead import.
	Dashboard *dashboard.Config `yaml:"dashboard,omitempty"`

	// Outputs configures the export sinks.
	Outputs OutputConfig `yaml:"outputs,omitempty"`

	// Monitoring exposes /metrics, /health, and /status when set.
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level,omitempty"`
}

// OutputConfig lists the configured export destinations.
type OutputConfig struct {
	JSONPath   string                  `yaml:"json_path,omitempty"`
	JSONIndent bool                    `yaml:"json_indent,omitempty"`
	CSVPath    string                  `yaml:"csv_path,omitempty"`
	ExcelPath  string                  `yaml:"excel_path,omitempty"`
	ExcelSheet string                  `yaml:"excel_sheet,omitempty"`
	SQL        *store.SQLSinkOptions   `yaml:"sql,omitempty"`
	Mongo      *store.MongoSinkOptions `yaml:"mongo,omitempty"`
}

// MonitoringConfig controls the monitoring HTTP server.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Address string `yaml:"address,omitempty"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}
	return LoadFromBytes(data)
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML configuration with environment variable
// substitution, applies defaults, and validates.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.SessionID == "" {
		c.SessionID = fmt.Sprintf("session-%d", time.Now().Unix())
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Monitoring.Enabled && c.Monitoring.Address == "" {
		c.Monitoring.Address = ":9090"
	}
	if c.Outputs.ExcelPath != "" && c.Outputs.ExcelSheet == "" {
		c.Outputs.ExcelSheet = "Leads"
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Platform) == "" {
		return fmt.Errorf("platform is required")
	}
	if c.Selectors == nil {
		if _, err := page.DefaultSelectors(c.Platform); err != nil {
			return err
		}
	} else if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("selectors: %w", err)
	}

	if err := c.Mining.Validate(); err != nil {
		return fmt.Errorf("mining: %w", err)
	}
	if c.Audience != nil {
		if err := c.Audience.Validate(); err != nil {
			return fmt.Errorf("audience: %w", err)
		}
	}
	if c.Audience != nil && c.AudienceID != "" {
		return fmt.Errorf("audience and audience_id are mutually exclusive")
	}
	if c.AudienceID != "" && c.Dashboard == nil {
		return fmt.Errorf("audience_id requires a dashboard configuration")
	}
	if c.Dashboard != nil {
		if err := c.Dashboard.Validate(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level: %s", c.LogLevel)
	}
	return nil
}

// SelectorSet resolves the effective selector table for the run.
func (c *Config) SelectorSet() (page.SelectorSet, error) {
	if c.Selectors != nil {
		sel := *c.Selectors
		if sel.Platform == "" {
			sel.Platform = c.Platform
		}
		return sel, nil
	}
	return page.DefaultSelectors(c.Platform)
}

// Sinks builds the configured export sinks. Callers own closing them.
func (c *Config) Sinks() ([]store.Sink, error) {
	var sinks []store.Sink

	if c.Outputs.JSONPath != "" {
		sink, err := store.NewJSONSink(c.Outputs.JSONPath, c.Outputs.JSONIndent)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if c.Outputs.CSVPath != "" {
		sink, err := store.NewCSVSink(c.Outputs.CSVPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if c.Outputs.ExcelPath != "" {
		sink, err := store.NewExcelSink(c.Outputs.ExcelPath, c.Outputs.ExcelSheet)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if c.Outputs.SQL != nil {
		sink, err := store.NewSQLSink(*c.Outputs.SQL)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if c.Outputs.Mongo != nil {
		sink, err := store.NewMongoSink(*c.Outputs.Mongo)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}
