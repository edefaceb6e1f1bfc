package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_IndexURL(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "defaults",
			config:   New(),
			expected: "http://localhost:4200/tests/index.html",
		},
		{
			name: "custom host and port",
			config: &Config{
				Host:      "https://127.0.0.1",
				Port:      7357,
				IndexPath: "/tests/index.html",
			},
			expected: "https://127.0.0.1:7357/tests/index.html",
		},
		{
			name: "no port",
			config: &Config{
				Host:      "https://app.example.com",
				IndexPath: "/tests/",
			},
			expected: "https://app.example.com/tests/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.IndexURL()
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestConfig_SelectedSuites(t *testing.T) {
	cfg := New()

	t.Run("all suites by default", func(t *testing.T) {
		suites, err := cfg.SelectedSuites()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(suites) != len(DefaultSuites) {
			t.Errorf("expected %d suites, got %d", len(DefaultSuites), len(suites))
		}
	})

	t.Run("narrowed by flag", func(t *testing.T) {
		cfg.ApplyFlags(Flags{Suite: "integration"})
		suites, err := cfg.SelectedSuites()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(suites) != 1 || suites[0].Dir != "tests/integration" {
			t.Errorf("unexpected suites: %v", suites)
		}
	})

	t.Run("unknown suite", func(t *testing.T) {
		cfg.ApplyFlags(Flags{Suite: "smoke"})
		if _, err := cfg.SelectedSuites(); err == nil {
			t.Error("expected error for unknown suite")
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	yamlContent := `host: http://0.0.0.0
port: 7357
timeout: 45s
suites:
  - name: unit
    dir: app/tests/unit
`
	if err := os.WriteFile(filepath.Join(tmpDir, DefaultConfigFile), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	envContent := "QTE_PORT=9000\nQTE_BROWSER_PATH=/opt/chrome/chrome\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(envContent), 0644); err != nil {
		t.Fatalf("failed to write .env file: %v", err)
	}
	t.Setenv("QTE_BROWSER_PATH", "/usr/bin/chromium")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "http://0.0.0.0" {
		t.Errorf("expected host from yaml, got %s", cfg.Host)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected .env port to override yaml, got %d", cfg.Port)
	}
	if cfg.ExecutablePath != "/usr/bin/chromium" {
		t.Errorf("expected process env to win over .env, got %s", cfg.ExecutablePath)
	}
	if cfg.RunTimeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %s", cfg.RunTimeout)
	}
	if len(cfg.Suites) != 1 || cfg.Suites[0].Dir != "app/tests/unit" {
		t.Errorf("unexpected suites: %v", cfg.Suites)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		os.WriteFile(filepath.Join(tmpDir, DefaultConfigFile), []byte("port: [1"), 0644)
		if _, err := Load(tmpDir); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("QTE_PORT", "http")
		if _, err := Load(tmpDir); err == nil {
			t.Error("expected error for invalid port")
		}
	})
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.ProjectPath != DefaultProjectPath {
		t.Errorf("expected ProjectPath %s, got %s", DefaultProjectPath, cfg.ProjectPath)
	}

	if cfg.RunTimeout != DefaultRunTimeout {
		t.Errorf("expected RunTimeout %s, got %s", DefaultRunTimeout, cfg.RunTimeout)
	}

	if len(cfg.PathsToIgnore) != len(DefaultPathsToIgnore) {
		t.Errorf("expected %d paths to ignore, got %d", len(DefaultPathsToIgnore), len(cfg.PathsToIgnore))
	}

	cfg.Suites[0].Dir = "changed"
	if DefaultSuites[0].Dir == "changed" {
		t.Error("New must copy the default suites")
	}
}

func TestConfig_GetReportPath(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = "/project"
	if got := cfg.GetReportPath(); got != "/project/tmp/qte-report.json" {
		t.Errorf("unexpected report path %s", got)
	}

	cfg.ApplyFlags(Flags{ReportPath: "/out/report.json"})
	if got := cfg.GetReportPath(); got != "/out/report.json" {
		t.Errorf("expected flag path, got %s", got)
	}
}
