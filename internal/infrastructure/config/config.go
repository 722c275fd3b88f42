package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Every field has a usable
// default so the service runs from environment variables alone.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Monday   MondayConfig   `yaml:"monday"`
	LLM      LLMConfig      `yaml:"llm"`
	Boards   BoardsConfig   `yaml:"boards"`
	KPIs     []KPIConfig    `yaml:"kpis"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type MondayConfig struct {
	APIURL     string `yaml:"api_url"`
	APIVersion string `yaml:"api_version"`
	Token      string `yaml:"token"`

	CacheTTL    time.Duration `yaml:"-"`
	CacheTTLRaw string        `yaml:"cache_ttl"`
	// RefreshSpec is a cron spec for background cache refresh. Empty
	// disables the scheduler.
	RefreshSpec string `yaml:"refresh_schedule"`
}

type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
}

// BoardsConfig identifies the two boards and allows overriding the column
// titles the dataset mapper looks for.
type BoardsConfig struct {
	WorkOrdersID int64             `yaml:"work_orders_id"`
	DealsID      int64             `yaml:"deals_id"`
	WorkColumns  map[string]string `yaml:"work_columns"`
	DealColumns  map[string]string `yaml:"deal_columns"`
}

// KPIConfig is a user-defined metric computed from the base metric
// environment with an expression.
type KPIConfig struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

const (
	defaultAPIURL     = "https://api.monday.com/v2"
	defaultAPIVersion = "2024-01"
	defaultCacheTTL   = 5 * time.Minute
)

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "data/insights.db"},
		Monday: MondayConfig{
			APIURL:      defaultAPIURL,
			APIVersion:  defaultAPIVersion,
			CacheTTL:    defaultCacheTTL,
			RefreshSpec: "@every 5m",
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Temperature: 0.0,
		},
	}
}

// Load reads a YAML config file, expands ${ENV_VAR} references and applies
// defaults. A missing file is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	expanded := expandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Monday.APIURL == "" {
		c.Monday.APIURL = defaultAPIURL
	}
	if c.Monday.APIVersion == "" {
		c.Monday.APIVersion = defaultAPIVersion
	}
	if c.Monday.CacheTTLRaw != "" {
		ttl, err := time.ParseDuration(c.Monday.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", c.Monday.CacheTTLRaw, err)
		}
		c.Monday.CacheTTL = ttl
	}
	if c.Monday.CacheTTL <= 0 {
		c.Monday.CacheTTL = defaultCacheTTL
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the value of the environment variable.
// Unset variables expand to the empty string.
func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
