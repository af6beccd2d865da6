package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server   Server   `yaml:"server"`
	Output   Output   `yaml:"output"`
	Logging  Logging  `yaml:"logging"`
	Analysis Analysis `yaml:"analysis"`
	Enrich   Enrich   `yaml:"enrich"`
	Brands   []Brand  `yaml:"brands"`
}

type Server struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Analysis sizes the month window and the ranked lists.
type Analysis struct {
	LookbackMonths int     `yaml:"lookback_months"`
	TrendBand      float64 `yaml:"trend_band"`
	TopDomains     int     `yaml:"top_domains"`
	TopSources     int     `yaml:"top_sources"`
	TopPrompts     int     `yaml:"top_prompts"`
	SourceExamples int     `yaml:"source_examples"`
}

// Enrich controls source metadata fetching. An empty Schedule disables the
// background job; `aiseo enrich` still works.
type Enrich struct {
	Schedule       string `yaml:"schedule"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
	BatchSize      int    `yaml:"batch_size"`
}

// Brand is an entry of the default brand table, stored on first run.
type Brand struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Color      string   `yaml:"color"`
	Variations []string `yaml:"variations"`
}

// Environment overrides, applied after the file is parsed.
const (
	EnvPort     = "AISEO_PORT"
	EnvDataDir  = "AISEO_DATA_DIR"
	EnvLogLevel = "AISEO_LOG_LEVEL"
)

// ConfigDir returns the XDG config directory for aiseo.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "aiseo")
}

// DataDir returns the XDG data directory for aiseo.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "aiseo")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/aiseo/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'aiseo init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Host:           "127.0.0.1",
			Port:           8000,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Logging: Logging{Level: "INFO"},
		Analysis: Analysis{
			LookbackMonths: 5,
			TrendBand:      2,
			TopDomains:     20,
			TopSources:     50,
			TopPrompts:     10,
			SourceExamples: 5,
		},
		Enrich: Enrich{
			TimeoutSeconds: 10,
			UserAgent:      "aiseo/1.0 (+https://github.com/TobiSchelling/aiseo)",
			BatchSize:      50,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Brands) == 0 {
		brands, err := defaultBrands()
		if err != nil {
			return nil, err
		}
		cfg.Brands = brands
	}

	return cfg, nil
}

// defaultBrands returns the brand table of the embedded default config.
func defaultBrands() ([]Brand, error) {
	var def struct {
		Brands []Brand `yaml:"brands"`
	}
	if err := yaml.Unmarshal(DefaultConfigYAML, &def); err != nil {
		return nil, fmt.Errorf("parsing default brands: %w", err)
	}
	return def.Brands, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		c.Output.DataDir = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the brand table and analysis settings.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Analysis.LookbackMonths < 2 {
		return fmt.Errorf("analysis.lookback_months must be at least 2, got %d", c.Analysis.LookbackMonths)
	}

	seen := make(map[string]bool, len(c.Brands))
	primaries := 0
	for i, b := range c.Brands {
		if b.ID == "" || b.Name == "" {
			return fmt.Errorf("brands[%d]: id and name are required", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("brands[%d]: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = true
		switch b.Type {
		case "primary":
			primaries++
		case "competitor":
		default:
			return fmt.Errorf("brands[%d]: type must be primary or competitor, got %q", i, b.Type)
		}
	}
	if primaries != 1 {
		return fmt.Errorf("exactly one primary brand is required, found %d", primaries)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
