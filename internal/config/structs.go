package config

// Config represents the complete configuration for pixspace.
// It is loaded from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Decimal arithmetic
	Decimal DecimalConfig `mapstructure:"decimal" yaml:"decimal" json:"decimal"`

	// Manual calibrations
	Calibration CalibrationConfig `mapstructure:"calibration" yaml:"calibration" json:"calibration"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing (for batch command)
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// DecimalConfig contains settings for the exact decimal computations.
type DecimalConfig struct {
	Precision uint32 `mapstructure:"precision" yaml:"precision" json:"precision"`
}

// CalibrationConfig contains settings for persisted manual calibrations.
type CalibrationConfig struct {
	// File is the YAML snapshot the CLI reads and writes. Empty disables persistence.
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// BatchConfig contains settings for processing many files at once.
type BatchConfig struct {
	// Workers is the number of files processed concurrently; 0 uses one per CPU.
	Workers   int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxBodyKB       int    `mapstructure:"max_body_kb" yaml:"max_body_kb" json:"max_body_kb"`

	// Rate limiting per client address; zero disables a limit.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	RequestsPerDay    int `mapstructure:"requests_per_day" yaml:"requests_per_day" json:"requests_per_day"`
}

// Enabled reports whether any limit is set.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerMinute > 0 || r.RequestsPerHour > 0 || r.RequestsPerDay > 0
}
