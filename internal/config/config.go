package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Suite is a named directory of test files, each suite gets its own tree
type Suite struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath   string
	Suites        []Suite
	TestExtension string

	// Target application
	Host      string
	Port      int
	IndexPath string

	// Browser settings
	ExecutablePath string
	Pages          int

	// Timeouts
	RunTimeout     time.Duration
	CatalogTimeout time.Duration

	// Output settings
	ReportFile string
	ReportDir  string

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Suite        string
	NameFilter   string
	Debug        bool
	Wait         bool
	Timeout      time.Duration
	ReportPath   string
	OpenFailures bool
	RunOnChange  bool
	MetricsAddr  string
	Verbose      bool
}

// fileConfig mirrors the optional qte.yaml file
type fileConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	IndexPath      string   `yaml:"indexPath"`
	ExecutablePath string   `yaml:"executablePath"`
	Timeout        string   `yaml:"timeout"`
	Pages          int      `yaml:"pages"`
	Suites         []Suite  `yaml:"suites"`
	Ignore         []string `yaml:"ignore"`
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		TestExtension:  DefaultTestExtension,
		Host:           DefaultHost,
		Port:           DefaultPort,
		IndexPath:      DefaultIndexPath,
		Pages:          DefaultPages,
		RunTimeout:     DefaultRunTimeout,
		CatalogTimeout: DefaultCatalogTimeout,
		ReportFile:     DefaultReportFile,
		ReportDir:      DefaultReportDir,
	}
	cfg.Suites = make([]Suite, len(DefaultSuites))
	copy(cfg.Suites, DefaultSuites)
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config for the project, layering qte.yaml, .env and the
// process environment over the defaults. Process variables win over .env.
func Load(projectPath string) (*Config, error) {
	cfg := New()
	cfg.ProjectPath = projectPath

	if err := cfg.loadFile(filepath.Join(projectPath, DefaultConfigFile)); err != nil {
		return nil, err
	}

	// .env is optional, a missing file just means the process environment is used
	dotenv, err := godotenv.Read(filepath.Join(projectPath, ".env"))
	if err != nil {
		dotenv = map[string]string{}
	}
	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Host != "" {
		c.Host = fc.Host
	}
	if fc.Port > 0 {
		c.Port = fc.Port
	}
	if fc.IndexPath != "" {
		c.IndexPath = fc.IndexPath
	}
	if fc.ExecutablePath != "" {
		c.ExecutablePath = fc.ExecutablePath
	}
	if fc.Pages > 0 {
		c.Pages = fc.Pages
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", fc.Timeout, err)
		}
		c.RunTimeout = d
	}
	if len(fc.Suites) > 0 {
		c.Suites = fc.Suites
	}
	if len(fc.Ignore) > 0 {
		c.PathsToIgnore = fc.Ignore
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "HOST"); ok && v != "" {
		c.Host = v
	}
	if v, ok := lookup(EnvPrefix + "PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		c.Port = port
	}
	if v, ok := lookup(EnvPrefix + "INDEX_PATH"); ok && v != "" {
		c.IndexPath = v
	}
	if v, ok := lookup(EnvPrefix + "BROWSER_PATH"); ok && v != "" {
		c.ExecutablePath = v
	}
	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT %q: %w", EnvPrefix, v, err)
		}
		c.RunTimeout = d
	}
	return nil
}

// ApplyFlags stores the flags and applies overrides
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Timeout > 0 {
		c.RunTimeout = flags.Timeout
	}
}

// IndexURL returns the URL of the application's test runner page
func (c *Config) IndexURL() string {
	if c.Port <= 0 {
		return c.Host + c.IndexPath
	}
	return fmt.Sprintf("%s:%d%s", c.Host, c.Port, c.IndexPath)
}

// SelectedSuites returns the suites to work on, narrowed by the --suite flag
func (c *Config) SelectedSuites() ([]Suite, error) {
	if c.Flags.Suite == "" {
		return c.Suites, nil
	}
	for _, s := range c.Suites {
		if s.Name == c.Flags.Suite {
			return []Suite{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown suite %q", c.Flags.Suite)
}

// SuiteDir returns the absolute-or-project-relative directory of a suite
func (c *Config) SuiteDir(s Suite) string {
	if filepath.IsAbs(s.Dir) {
		return s.Dir
	}
	return filepath.Join(c.ProjectPath, s.Dir)
}

// GetReportPath returns the full path to the run report.
// Resolves to an absolute path when possible.
func (c *Config) GetReportPath() string {
	p := c.Flags.ReportPath
	if p == "" {
		p = filepath.Join(c.ProjectPath, c.ReportDir, c.ReportFile)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
