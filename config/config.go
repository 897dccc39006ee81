// Package config provides configuration management for the taskgate server.
// Settings come from built-in defaults, an optional YAML file, an optional
// .env file and the process environment, in increasing order of precedence.
// The resulting Config is read once at startup and treated as immutable.
package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names. Lookups ignore case, so aws_region and
// AWS_REGION are equivalent.
const (
	EnvRegion         = "AWS_REGION"
	EnvBearerToken    = "AWS_BEARER_TOKEN_BEDROCK"
	EnvModelID        = "BEDROCK_MODEL_ID"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvHost           = "HOST"
	EnvPort           = "PORT"
	EnvMetricsEnabled = "METRICS_ENABLED"
	EnvCORSOrigins    = "CORS_ORIGINS"
)

// DefaultModelID is the Bedrock inference profile used when none is configured.
const DefaultModelID = "us.anthropic.claude-sonnet-4-20250514-v1:0"

// Config represents the complete server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Processing ProcessingConfig `yaml:"processing"`
}

// ServerConfig holds settings for the HTTP listener.
type ServerConfig struct {
	// Host is the bind address (default: localhost)
	Host string `yaml:"host"`

	// Port is the bind port (default: 8000)
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds the whole handler, including the provider call,
	// so it is larger than ReadTimeout (default: 60s)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is how long in-flight requests get on shutdown (default: 10s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes caps request header size (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps the /process request body (default: 1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORSOrigins lists allowed origins; "*" allows any (default: ["*"])
	CORSOrigins []string `yaml:"cors_origins"`
}

// BedrockConfig holds the inference provider settings.
type BedrockConfig struct {
	// Region is the AWS region hosting the Bedrock runtime (default: us-east-1)
	Region string `yaml:"region"`

	// BearerToken is the Bedrock API key. It has no default and must not be blank.
	// Use ${AWS_BEARER_TOKEN_BEDROCK} in files rather than a literal value.
	BearerToken string `yaml:"bearer_token"`

	// ModelID is the model or inference profile identifier
	ModelID string `yaml:"model_id"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error.
	// Aliases such as WARNING and CRITICAL are accepted too.
	Level string `yaml:"level"`

	// Format specifies log output format: json or text
	Format string `yaml:"format"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
// The bearer token is intentionally empty, so a DefaultConfig never validates
// on its own.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxBodyBytes:    1 << 20,
			CORSOrigins:     []string{"*"},
		},
		Bedrock: BedrockConfig{
			Region:  "us-east-1",
			ModelID: DefaultModelID,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
		Processing: DefaultProcessingConfig(),
	}
}

type loadOptions struct {
	file    string
	envFile string
	environ func() []string
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithFile reads a YAML configuration file before applying the environment.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.file = path }
}

// WithEnvFile changes the dotenv file location. An empty path disables it.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) LoadOption {
	return func(o *loadOptions) { o.environ = environ }
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{envFile: ".env", environ: os.Environ}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load builds the startup configuration. Any error means the process must not start.
func Load(opts ...LoadOption) (*Config, error) {
	o := newLoadOptions(opts)
	if err := loadEnvFile(o.envFile); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if o.file != "" {
		f, err := os.Open(o.file)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()

		if err := decodeYAML(f, cfg); err != nil {
			return nil, err
		}
	}

	return finish(cfg, o)
}

// LoadReader is like Load but reads the YAML document from r.
func LoadReader(r io.Reader, opts ...LoadOption) (*Config, error) {
	o := newLoadOptions(opts)
	if err := loadEnvFile(o.envFile); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := decodeYAML(r, cfg); err != nil {
		return nil, err
	}
	return finish(cfg, o)
}

func finish(cfg *Config, o *loadOptions) (*Config, error) {
	if err := applyEnv(cfg, newEnvLookup(o.environ())); err != nil {
		return nil, err
	}
	cfg.Bedrock.BearerToken = strings.TrimSpace(cfg.Bedrock.BearerToken)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads a dotenv file without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(strings.NewReader(expandEnvVars(string(data))))
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// envRef matches ${NAME} and ${NAME:-default}. A bare $ is left alone so
// templates and tokens may contain dollar signs.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandEnvVars resolves ${VAR} and ${VAR:-default} references.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if val := os.Getenv(m[1]); val != "" {
			return val
		}
		return m[2]
	})
}

// envLookup resolves variable names case-insensitively. An exact
// upper-case match wins over other spellings.
type envLookup map[string]string

func newEnvLookup(environ []string) envLookup {
	env := make(envLookup, len(environ))
	exact := make(map[string]bool, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		upper := strings.ToUpper(k)
		if exact[upper] {
			continue
		}
		env[upper] = v
		exact[upper] = k == upper
	}
	return env
}

func (e envLookup) get(name string) (string, bool) {
	v, ok := e[strings.ToUpper(name)]
	return v, ok
}

func applyEnv(cfg *Config, env envLookup) error {
	if v, ok := env.get(EnvRegion); ok && v != "" {
		cfg.Bedrock.Region = v
	}
	if v, ok := env.get(EnvBearerToken); ok {
		cfg.Bedrock.BearerToken = v
	}
	if v, ok := env.get(EnvModelID); ok && v != "" {
		cfg.Bedrock.ModelID = v
	}
	if v, ok := env.get(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := env.get(EnvLogFormat); ok && v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := env.get(EnvHost); ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := env.get(EnvPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: must be an integer", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := env.get(EnvMetricsEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: must be a boolean", EnvMetricsEnabled, v)
		}
		cfg.Metrics.Enabled = enabled
	}
	if v, ok := env.get(EnvCORSOrigins); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bedrock.BearerToken) == "" {
		return fmt.Errorf("%s is required and cannot be empty", EnvBearerToken)
	}
	if c.Bedrock.Region == "" {
		return fmt.Errorf("empty bedrock region")
	}
	if c.Bedrock.ModelID == "" {
		return fmt.Errorf("empty bedrock model id")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}
	if c.Server.MaxHeaderBytes < 0 {
		return fmt.Errorf("negative max header bytes: %d", c.Server.MaxHeaderBytes)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive: %d", c.Server.MaxBodyBytes)
	}

	if _, err := NormalizeLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
	}

	return c.Processing.Validate()
}

// NormalizeLevel maps a configured level onto debug, info, warn or error.
func NormalizeLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return "debug", nil
	case "info", "":
		return "info", nil
	case "warn", "warning":
		return "warn", nil
	case "error", "critical", "fatal":
		return "error", nil
	default:
		return "", fmt.Errorf("invalid log level: %s", level)
	}
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
