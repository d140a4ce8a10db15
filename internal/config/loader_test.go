package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// newTestLoader returns a loader with its own viper instance.
func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

// TestLoadWithValidYAMLFile tests loading from a config file in the working directory.
func TestLoadWithValidYAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlContent := `
log_level: debug
decimal:
  precision: 50
calibration:
  file: /var/lib/pixspace/calibrations.yaml
output:
  format: json
server:
  port: 9090
`
	if err := os.WriteFile(filepath.Join(dir, "pixspace.yaml"), []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	loader := newTestLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.Decimal.Precision != 50 {
		t.Errorf("Expected precision 50, got %d", cfg.Decimal.Precision)
	}
	if cfg.Calibration.File != "/var/lib/pixspace/calibrations.yaml" {
		t.Errorf("Unexpected calibration file %s", cfg.Calibration.File)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected json output, got %s", cfg.Output.Format)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected default host to survive, got %s", cfg.Server.Host)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), "pixspace.yaml") {
		t.Errorf("Unexpected config file used: %s", loader.GetConfigFileUsed())
	}
}

// TestLoadWithFile tests the explicit file variants.
func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("log_level: loud\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := newTestLoader().LoadWithFile(invalid); err == nil {
		t.Error("Expected validation error")
	}

	cfg, err := newTestLoader().LoadWithFileWithoutValidation(invalid)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.LogLevel != "loud" {
		t.Errorf("Expected unvalidated log level, got %s", cfg.LogLevel)
	}

	if _, err := newTestLoader().LoadWithFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}

	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("server: [port"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := newTestLoader().LoadWithFile(broken); err == nil {
		t.Error("Expected parse error")
	}
}

// TestEnvironmentVariableOverride tests PIXSPACE_ environment variables.
func TestEnvironmentVariableOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIXSPACE_LOG_LEVEL", "warn")
	t.Setenv("PIXSPACE_SERVER_PORT", "7070")
	t.Setenv("PIXSPACE_DECIMAL_PRECISION", "40")

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected warn from env, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070 from env, got %d", cfg.Server.Port)
	}
	if cfg.Decimal.Precision != 40 {
		t.Errorf("Expected precision 40 from env, got %d", cfg.Decimal.Precision)
	}
}

// TestGetSetConfigValues tests value accessors.
func TestGetSetConfigValues(t *testing.T) {
	loader := newTestLoader()
	loader.Set("output.format", "yaml")
	if loader.GetString("output.format") != "yaml" {
		t.Errorf("Expected yaml, got %s", loader.GetString("output.format"))
	}
	if loader.Get("output.format") != "yaml" {
		t.Errorf("Expected yaml from Get, got %v", loader.Get("output.format"))
	}
}

// TestGenerateDefaultConfigFile tests writing a default configuration.
func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("Generated config should load: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Generated config differs from defaults: %+v", cfg)
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()

	if paths[0] != "." {
		t.Errorf("Expected current directory first, got %s", paths[0])
	}
	want := map[string]bool{filepath.Join("/xdg", "pixspace"): false, "/etc/pixspace": false}
	for _, p := range paths {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("Expected search path %s in %v", p, paths)
		}
	}
}

// TestPrintConfigInfo tests the debug output.
func TestPrintConfigInfo(t *testing.T) {
	var buf bytes.Buffer
	newTestLoader().PrintConfigInfo(&buf)
	if !strings.Contains(buf.String(), "Environment prefix: PIXSPACE") {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}
