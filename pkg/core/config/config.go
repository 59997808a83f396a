package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/mbasic/foundation/core/error"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "MBASIC_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	GRPC     GRPCConfig     `toml:"grpc" yaml:"grpc"`
	Frontend FrontendConfig `toml:"frontend" yaml:"frontend"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
	REPL     REPLConfig     `toml:"repl" yaml:"repl"`

	// path of the file the configuration was loaded from, empty for defaults
	source string
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFormat   string `toml:"log_format" yaml:"log_format"`
}

// ServerConfig holds the web front-end configuration
type ServerConfig struct {
	Host           string   `toml:"host" yaml:"host"`
	Port           int      `toml:"port" yaml:"port"`
	ReadTimeout    Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout" yaml:"write_timeout"`
	MaxRequestSize string   `toml:"max_request_size" yaml:"max_request_size"`
	// RateLimit is in requests per second. 0 disables limiting.
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `toml:"rate_burst" yaml:"rate_burst"`
	// TestFile is the program run by /execute_file
	TestFile string `toml:"test_file" yaml:"test_file"`
}

// GRPCConfig holds the gRPC front-end configuration
type GRPCConfig struct {
	Enabled          bool   `toml:"enabled" yaml:"enabled"`
	Host             string `toml:"host" yaml:"host"`
	Port             int    `toml:"port" yaml:"port"`
	EnableReflection bool   `toml:"enable_reflection" yaml:"enable_reflection"`
}

// FrontendConfig holds lexer and parser limits
type FrontendConfig struct {
	Filename        string `toml:"filename" yaml:"filename"`
	MaxInputLength  int    `toml:"max_input_length" yaml:"max_input_length"`
	MaxNestingDepth int    `toml:"max_nesting_depth" yaml:"max_nesting_depth"`
}

// HistoryConfig holds run history settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
	// Retention is the number of runs kept. 0 keeps all.
	Retention int `toml:"retention" yaml:"retention"`
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	Prompt string `toml:"prompt" yaml:"prompt"`
	Plain  bool   `toml:"plain" yaml:"plain"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg
}

// Load loads configuration from a TOML or YAML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, mdwerror.Newf("config file not found: %s", path).
			WithCode(mdwerror.CodeMissingConfig).
			WithOperation("config.Load")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to read config").
			WithCode(mdwerror.CodeIOError).
			WithDetail("path", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		_, err = toml.Decode(string(data), &cfg)
	}
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config").
			WithCode(mdwerror.CodeConfigError).
			WithDetail("path", path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	cfg.source = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from the MBASIC_CONFIG environment
// variable or the first default location that exists. Without any file
// the defaults are returned.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}

	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	return Default(), nil
}

// DefaultPaths lists the locations searched by LoadFromEnv
func DefaultPaths() []string {
	paths := []string{
		"./configs/mbasic.toml",
		"./mbasic.toml",
		"./mbasic.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config/mbasic/config.toml"))
	}
	return paths
}

// Source returns the file the configuration was loaded from
func (c *Config) Source() string {
	return c.source
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "mBASIC"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.MaxRequestSize == "" {
		c.Server.MaxRequestSize = "1MB"
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 20
	}
	if c.Server.TestFile == "" {
		c.Server.TestFile = "test.txt"
	}

	// gRPC
	if c.GRPC.Host == "" {
		c.GRPC.Host = "0.0.0.0"
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9400
	}

	// Frontend
	if c.Frontend.Filename == "" {
		c.Frontend.Filename = "<stdin>"
	}
	if c.Frontend.MaxInputLength == 0 {
		c.Frontend.MaxInputLength = 64 * 1024
	}
	if c.Frontend.MaxNestingDepth == 0 {
		c.Frontend.MaxNestingDepth = 256
	}

	// History
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "history.db")
	}
	if c.History.Retention == 0 {
		c.History.Retention = 1000
	}

	// REPL
	if c.REPL.Prompt == "" {
		c.REPL.Prompt = "basic > "
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.History.Path = os.ExpandEnv(c.History.Path)
	c.Server.TestFile = os.ExpandEnv(c.Server.TestFile)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	invalid := func(field string, value interface{}) error {
		return mdwerror.Newf("invalid configuration value for %s", field).
			WithCode(mdwerror.CodeInvalidConfig).
			WithDetail("field", field).
			WithDetail("value", value)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", c.Server.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return invalid("grpc.port", c.GRPC.Port)
	}
	if c.Server.RateLimit < 0 {
		return invalid("server.rate_limit", c.Server.RateLimit)
	}
	if _, err := ParseSize(c.Server.MaxRequestSize); err != nil {
		return invalid("server.max_request_size", c.Server.MaxRequestSize)
	}
	if c.Frontend.MaxInputLength < 0 {
		return invalid("frontend.max_input_length", c.Frontend.MaxInputLength)
	}
	if c.Frontend.MaxNestingDepth < 0 {
		return invalid("frontend.max_nesting_depth", c.Frontend.MaxNestingDepth)
	}
	if c.History.Retention < 0 {
		return invalid("history.retention", c.History.Retention)
	}
	return nil
}

// ServerAddress returns host:port of the web front-end
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GRPCAddress returns host:port of the gRPC front-end
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.GRPC.Host, c.GRPC.Port)
}

// ParseSize parses sizes such as "512", "64KB" or "1MB" into bytes
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)

	for _, unit := range []struct {
		suffix string
		factor int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			multiplier = unit.factor
			break
		}
	}

	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	return n * multiplier, nil
}
