package config

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// TestDefaultConfig verifies that DefaultConfig returns expected values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log_level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}
	if cfg.Decimal.Precision != uncertainty.DefaultPrecision {
		t.Errorf("Expected decimal precision %d, got %d", uncertainty.DefaultPrecision, cfg.Decimal.Precision)
	}
	if cfg.Calibration.File != "" {
		t.Errorf("Expected no calibration file, got %s", cfg.Calibration.File)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Expected output format 'text', got %s", cfg.Output.Format)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyKB != 256 {
		t.Errorf("Expected max body 256 KB, got %d", cfg.Server.MaxBodyKB)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

// TestValidate tests the validation rules one field at a time.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid debug level", func(c *Config) { c.LogLevel = debugLevel }, ""},
		{"invalid log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"yaml output", func(c *Config) { c.Output.Format = "yaml" }, ""},
		{"empty output format", func(c *Config) { c.Output.Format = "" }, ""},
		{"invalid output format", func(c *Config) { c.Output.Format = "csv" }, "invalid output format"},
		{"precision too small", func(c *Config) { c.Decimal.Precision = 8 }, "invalid decimal precision"},
		{"precision too large", func(c *Config) { c.Decimal.Precision = MaxDecimalPrecision + 1 }, "invalid decimal precision"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"timeout zero", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
		{"negative shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -1 }, "invalid shutdown timeout"},
		{"max body zero", func(c *Config) { c.Server.MaxBodyKB = 0 }, "invalid max body size"},
		{"rate limit set", func(c *Config) { c.Server.RateLimit.RequestsPerMinute = 60 }, ""},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit.RequestsPerHour = -1 }, "invalid rate limit"},
		{"batch workers set", func(c *Config) { c.Batch.Workers = 8 }, ""},
		{"negative batch workers", func(c *Config) { c.Batch.Workers = -1 }, "invalid batch workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestConfigMarshaling checks the JSON and YAML field names.
func TestConfigMarshaling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calibration.File = "/tmp/calibrations.yaml"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal() error: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	calibration, ok := result["calibration"].(map[string]interface{})
	if !ok || calibration["file"] != "/tmp/calibrations.yaml" {
		t.Errorf("Expected calibration.file in JSON, got %v", result["calibration"])
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error: %v", err)
	}
	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error: %v", err)
	}
	if back != cfg {
		t.Errorf("YAML round trip mismatch: got %+v, want %+v", back, cfg)
	}
}

// TestContains tests the contains helper.
func TestContains(t *testing.T) {
	if !contains(OutputFormats, "json") {
		t.Error("Expected json to be an output format")
	}
	if contains(OutputFormats, "JSON") {
		t.Error("contains should be case sensitive")
	}
	if contains(nil, "x") {
		t.Error("Expected nil slice to contain nothing")
	}
}
