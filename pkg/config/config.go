package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigSource defines an interface for loading configuration from various sources.
type ConfigSource interface {
	Get(key string) (string, bool)
	GetWithDefault(key, defaultValue string) string
}

// EnvConfigSource loads configuration from environment variables.
type EnvConfigSource struct{}

// Get retrieves an environment variable.
func (e *EnvConfigSource) Get(key string) (string, bool) {
	val := os.Getenv(key)
	return val, val != ""
}

// GetWithDefault retrieves an environment variable or returns a default value.
func (e *EnvConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := e.Get(key); ok {
		return val
	}
	return defaultValue
}

// FileConfigSource loads configuration from a JSON or YAML file.
type FileConfigSource struct {
	data map[string]interface{}
}

// NewFileConfigSource creates a new file-based config source.
// Supports both JSON and YAML files based on file extension.
func NewFileConfigSource(filePath string) (*FileConfigSource, error) {
	data := make(map[string]interface{})

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.HasSuffix(filePath, ".yaml") || strings.HasSuffix(filePath, ".yml") {
		if err := yaml.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	} else if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		return nil, fmt.Errorf("unsupported config file format, use .json, .yaml, or .yml")
	}

	return &FileConfigSource{data: data}, nil
}

// Get retrieves a value from the config file using dot notation (e.g., "server.port").
func (f *FileConfigSource) Get(key string) (string, bool) {
	keys := strings.Split(key, ".")
	var current interface{} = f.data

	for _, k := range keys {
		if m, ok := current.(map[string]interface{}); ok {
			if val, exists := m[k]; exists {
				current = val
			} else {
				return "", false
			}
		} else {
			return "", false
		}
	}

	if str, ok := current.(string); ok {
		return str, true
	}
	return fmt.Sprintf("%v", current), true
}

// GetWithDefault retrieves a value from the config file or returns a default.
func (f *FileConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := f.Get(key); ok {
		return val
	}
	return defaultValue
}

// Config holds application configuration.
type Config struct {
	// HTTP Server configuration
	HTTPHost         string // loopback unless explicitly overridden
	HTTPPort         int
	HTTPReadTimeout  int // seconds
	HTTPWriteTimeout int // seconds; must exceed the conversion timeout
	HTTPIdleTimeout  int // seconds

	// Upload configuration
	MaxUploadMB int

	// Conversion configuration
	ConvertTimeoutSeconds int
	SofficePath           string // explicit LibreOffice binary, probed from PATH when empty
	ChromePath            string // explicit Chromium binary, probed from PATH when empty

	// Temp workspace configuration
	TempDir              string // defaults to the OS temp dir when empty
	OutputTTLSeconds     int    // how long a finished PDF stays downloadable
	SweepIntervalSeconds int

	// History configuration
	HistoryLimit int

	// Rate limiting configuration
	RateLimitRPS   int
	RateLimitBurst int

	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Application configuration
	AppName     string
	AppVersion  string
	Environment string // dev, staging, prod
	OpenBrowser bool   // open a browser tab once the server is healthy

	// Retry configuration (startup health polling)
	RetryMaxAttempts  int
	RetryInitialDelay int // milliseconds
	RetryMaxDelay     int // milliseconds
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// ConvertTimeout returns the per-conversion deadline.
func (c *Config) ConvertTimeout() time.Duration {
	return time.Duration(c.ConvertTimeoutSeconds) * time.Second
}

// OutputTTL returns how long finished PDFs are retained.
func (c *Config) OutputTTL() time.Duration {
	return time.Duration(c.OutputTTLSeconds) * time.Second
}

// SweepInterval returns the janitor tick interval.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// LoadConfig loads configuration from the provided source.
// Environment variables take precedence over file config.
func LoadConfig(source ConfigSource) (*Config, error) {
	cfg := &Config{}

	// Helper to get int from config
	getInt := func(key string, defaultValue int) int {
		str := source.GetWithDefault(key, fmt.Sprintf("%d", defaultValue))
		val, err := strconv.Atoi(str)
		if err != nil {
			return defaultValue
		}
		return val
	}

	// Helper to get bool from config
	getBool := func(key string, defaultValue bool) bool {
		str := source.GetWithDefault(key, fmt.Sprintf("%t", defaultValue))
		val, err := strconv.ParseBool(str)
		if err != nil {
			return defaultValue
		}
		return val
	}

	cfg.HTTPHost = source.GetWithDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTPPort = getInt("HTTP_PORT", 8501)
	cfg.HTTPReadTimeout = getInt("HTTP_READ_TIMEOUT", 60)
	cfg.HTTPWriteTimeout = getInt("HTTP_WRITE_TIMEOUT", 180)
	cfg.HTTPIdleTimeout = getInt("HTTP_IDLE_TIMEOUT", 120)

	cfg.MaxUploadMB = getInt("MAX_UPLOAD_MB", 50)

	cfg.ConvertTimeoutSeconds = getInt("CONVERT_TIMEOUT", 120)
	cfg.SofficePath = source.GetWithDefault("SOFFICE_PATH", "")
	cfg.ChromePath = source.GetWithDefault("CHROME_PATH", "")

	cfg.TempDir = source.GetWithDefault("TEMP_DIR", "")
	cfg.OutputTTLSeconds = getInt("OUTPUT_TTL", 300)
	cfg.SweepIntervalSeconds = getInt("SWEEP_INTERVAL", 60)

	cfg.HistoryLimit = getInt("HISTORY_LIMIT", 50)

	cfg.RateLimitRPS = getInt("RATE_LIMIT_RPS", 5)
	cfg.RateLimitBurst = getInt("RATE_LIMIT_BURST", 10)

	cfg.LogLevel = source.GetWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = source.GetWithDefault("LOG_FORMAT", "json")

	cfg.AppName = source.GetWithDefault("APP_NAME", "docpress")
	cfg.AppVersion = source.GetWithDefault("APP_VERSION", "1.0.0")
	cfg.Environment = source.GetWithDefault("ENVIRONMENT", "dev")
	cfg.OpenBrowser = getBool("OPEN_BROWSER", true)

	cfg.RetryMaxAttempts = getInt("RETRY_MAX_ATTEMPTS", 20)
	cfg.RetryInitialDelay = getInt("RETRY_INITIAL_DELAY", 100)
	cfg.RetryMaxDelay = getInt("RETRY_MAX_DELAY", 2000)

	return cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
func LoadConfigFromEnv() (*Config, error) {
	return LoadConfig(&EnvConfigSource{})
}

// LoadConfigFromFile loads configuration from a JSON or YAML file.
// Environment variables will override file values if both are set.
func LoadConfigFromFile(filePath string) (*Config, error) {
	fileSource, err := NewFileConfigSource(filePath)
	if err != nil {
		return nil, err
	}

	// Create a composite source that checks env first, then file
	composite := &CompositeConfigSource{
		sources: []ConfigSource{&EnvConfigSource{}, fileSource},
	}

	return LoadConfig(composite)
}

// CompositeConfigSource checks multiple config sources in order.
type CompositeConfigSource struct {
	sources []ConfigSource
}

// Get retrieves a value from the first source that has it.
func (c *CompositeConfigSource) Get(key string) (string, bool) {
	for _, source := range c.sources {
		if val, ok := source.Get(key); ok {
			return val, true
		}
	}
	return "", false
}

// GetWithDefault retrieves a value from sources or returns default.
func (c *CompositeConfigSource) GetWithDefault(key, defaultValue string) string {
	for _, source := range c.sources {
		if val, ok := source.Get(key); ok {
			return val
		}
	}
	return defaultValue
}
