package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/vizboard/internal/cache"
	"github.com/TobiSchelling/vizboard/internal/chart"
	"github.com/TobiSchelling/vizboard/internal/source"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Source  Source            `yaml:"source"`
	Output  Output            `yaml:"output"`
	Server  Server            `yaml:"server"`
	Logging Logging           `yaml:"logging"`
	View    View              `yaml:"view"`
	Cache   Cache             `yaml:"cache"`
	Notes   map[string]string `yaml:"notes"`
}

type Source struct {
	URL       string        `yaml:"url"`
	File      string        `yaml:"file"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type View struct {
	Theme     string         `yaml:"theme"`
	PageSize  int            `yaml:"page_size"`
	PageSizes map[string]int `yaml:"page_sizes"`
}

type Cache struct {
	Backend    string        `yaml:"backend"`
	RedisURL   string        `yaml:"redis_url"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// Themes accepted by view.theme.
var Themes = []string{"light", "dark"}

// ConfigDir returns the XDG config directory for vizboard.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "vizboard")
}

// DataDir returns the XDG data directory for vizboard.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "vizboard")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/vizboard/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'vizboard init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Source: Source{
			Timeout:   30 * time.Second,
			UserAgent: "vizboard/1.0",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
		View: View{
			Theme:    "light",
			PageSize: chart.DefaultPageSize,
		},
		Cache: Cache{
			Backend:    "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 512,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !ValidTheme(c.View.Theme) {
		return fmt.Errorf("invalid view.theme %q: want one of %s", c.View.Theme, strings.Join(Themes, ", "))
	}
	if c.View.PageSize <= 0 {
		return fmt.Errorf("view.page_size must be positive, got %d", c.View.PageSize)
	}
	for name, n := range c.View.PageSizes {
		if _, err := chart.Lookup(chart.DefaultViews, name); err != nil {
			return fmt.Errorf("view.page_sizes: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("view.page_sizes.%s must be positive, got %d", name, n)
		}
	}
	return nil
}

// ValidTheme reports whether theme is a supported view theme.
func ValidTheme(theme string) bool {
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// SourceOptions returns the record source settings.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		URL:       c.Source.URL,
		File:      c.Source.File,
		Timeout:   c.Source.Timeout,
		UserAgent: c.Source.UserAgent,
	}
}

// CacheOptions returns the chart cache settings.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:    c.Cache.Backend,
		RedisURL:   c.Cache.RedisURL,
		TTL:        c.Cache.TTL,
		MaxEntries: c.Cache.MaxEntries,
		Prefix:     "vizboard",
	}
}

// Views returns the dashboard chart views with configured page sizes.
func (c *Config) Views() []chart.View {
	return chart.ConfigureViews(chart.DefaultViews, c.View.PageSize, c.View.PageSizes)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
