package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// Config represents the top-level hiveledger.yaml configuration. All values
// are resolved at process start and immutable for the run.
type Config struct {
	Account       string      `yaml:"account"`
	Year          int         `yaml:"year,omitempty"`
	From          string      `yaml:"from,omitempty"` // YYYY-MM-DD, overrides year
	To            string      `yaml:"to,omitempty"`   // YYYY-MM-DD, exclusive
	Token         string      `yaml:"token"`
	DustThreshold string      `yaml:"dust_threshold"` // in HIVE
	Nodes         NodesConfig `yaml:"nodes"`
	Fetch         FetchConfig `yaml:"fetch"`
	OutDir        string      `yaml:"out_dir"`
	Log           LogConfig   `yaml:"log"`
}

// NodesConfig holds the API endpoints.
type NodesConfig struct {
	Hive   string `yaml:"hive"`
	Engine string `yaml:"engine"`
}

// FetchConfig controls pagination and retry behavior.
type FetchConfig struct {
	PageSize       int `yaml:"page_size"`
	RequestDelayMs int `yaml:"request_delay_ms"`
	MaxAttempts    int `yaml:"max_attempts"`
	BaseDelayMs    int `yaml:"base_delay_ms"`
	TimeoutSec     int `yaml:"timeout_sec"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level       string `yaml:"level"`
	FileEnabled bool   `yaml:"file_enabled"`
	FilePath    string `yaml:"file_path"`
}

// Error is a fatal configuration problem, reported before any transport call.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Load reads a hiveledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new export.
func Default() *Config {
	return &Config{
		Year:          time.Now().UTC().Year() - 1,
		DustThreshold: "0.01",
		Nodes: NodesConfig{
			Hive:   "https://api.deathwing.me",
			Engine: "https://api.hive-engine.com/rpc/blockchain",
		},
		Fetch: FetchConfig{
			PageSize:       1000,
			RequestDelayMs: 500,
			MaxAttempts:    3,
			BaseDelayMs:    1000,
			TimeoutSec:     30,
		},
		OutDir: ".",
		Log: LogConfig{
			Level:    "info",
			FilePath: "logs/hiveledger.log",
		},
	}
}

// ApplyEnv overrides node and log settings from the environment.
func (c *Config) ApplyEnv() {
	if v := EnvHiveNodeURL(); v != "" {
		c.Nodes.Hive = v
	}
	if v := EnvEngineNodeURL(); v != "" {
		c.Nodes.Engine = v
	}
	if v := EnvLogLevel(); v != "" {
		c.Log.Level = v
	}
	if EnvLogFileEnabled() {
		c.Log.FileEnabled = true
	}
	if v := EnvLogFilePath(); v != "" {
		c.Log.FilePath = v
	}
}

// Validate checks the configuration. Returns a *Error on the first problem.
func (c *Config) Validate() error {
	if c.Account == "" {
		return &Error{Field: "account", Reason: "must not be empty"}
	}
	if c.Token == "" {
		return &Error{Field: "token", Reason: "must not be empty"}
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	dust, err := c.Dust()
	if err != nil {
		return err
	}
	if dust.IsNegative() {
		return &Error{Field: "dust_threshold", Reason: "must not be negative"}
	}
	if c.Fetch.PageSize < 2 || c.Fetch.PageSize > 10000 {
		return &Error{Field: "fetch.page_size", Reason: "must be between 2 and 10000"}
	}
	if c.Nodes.Hive == "" {
		return &Error{Field: "nodes.hive", Reason: "must not be empty"}
	}
	if c.Nodes.Engine == "" {
		return &Error{Field: "nodes.engine", Reason: "must not be empty"}
	}
	return nil
}

const dateFormat = "2006-01-02"

// Window resolves the target date range. Explicit from/to bounds take
// precedence over the year.
func (c *Config) Window() (model.Window, error) {
	if c.From != "" || c.To != "" {
		start, err := time.Parse(dateFormat, c.From)
		if err != nil {
			return model.Window{}, &Error{Field: "from", Reason: fmt.Sprintf("invalid date %q", c.From)}
		}
		end, err := time.Parse(dateFormat, c.To)
		if err != nil {
			return model.Window{}, &Error{Field: "to", Reason: fmt.Sprintf("invalid date %q", c.To)}
		}
		if !start.Before(end) {
			return model.Window{}, &Error{Field: "from", Reason: "must be before to"}
		}
		return model.Window{Start: start.UTC(), End: end.UTC()}, nil
	}
	if c.Year < 2016 {
		return model.Window{}, &Error{Field: "year", Reason: "must be 2016 or later"}
	}
	start := time.Date(c.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Window{Start: start, End: start.AddDate(1, 0, 0)}, nil
}

// Dust parses the dust threshold into a decimal HIVE amount.
func (c *Config) Dust() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.DustThreshold)
	if err != nil {
		return decimal.Zero, &Error{Field: "dust_threshold", Reason: fmt.Sprintf("invalid amount %q", c.DustThreshold)}
	}
	return d, nil
}

// RequestDelay returns the inter-request delay for side-chain lookups.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Fetch.RequestDelayMs) * time.Millisecond
}

// Timeout returns the per-request transport timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}
