// Package config provides configuration management for the ArxivChat service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/arxivchat/internal/observability"
)

// EnvPrefix is the prefix for all ArxivChat environment variables.
const EnvPrefix = "ARXIVCHAT"

// Config holds all configuration for the ArxivChat service.
type Config struct {
	// App contains identity and mode settings.
	App AppConfig `mapstructure:"app"`
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LLM contains language model backend settings.
	LLM LLMConfig `mapstructure:"llm"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
}

// AppConfig holds application identity settings.
type AppConfig struct {
	// Name is reported by the stats endpoint.
	Name string `mapstructure:"name"`
	// Version is reported by the health and stats endpoints.
	Version string `mapstructure:"version"`
	// Debug relaxes CORS to allow any origin. Also read from DEBUG.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0). Also read from HOST.
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080). Also read from PORT.
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response. It must cover
	// an arXiv lookup plus an LLM call.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum keep-alive idle time.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins lists CORS origins accepted outside debug mode.
	// A leading "*." matches any subdomain.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// AllowedHosts lists Host header values accepted outside debug mode.
	// A leading "*." matches any subdomain.
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// LLMConfig holds language model backend configuration.
type LLMConfig struct {
	// Timeout bounds a single completion call.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the sampling temperature for both backends.
	Temperature float64 `mapstructure:"temperature"`
	// Groq contains Groq-specific settings.
	Groq GroqConfig `mapstructure:"groq"`
	// Gemini contains Google Gemini API settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GroqConfig holds Groq settings.
type GroqConfig struct {
	// APIKey is loaded from GROQ_API_KEY or ARXIVCHAT_LLM_GROQ_API_KEY.
	APIKey string `mapstructure:"-"`
	// Model is the Groq model name.
	Model string `mapstructure:"model"`
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string `mapstructure:"base_url"`
	// MaxTokens caps the completion length.
	MaxTokens int `mapstructure:"max_tokens"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	// APIKey is loaded from GOOGLE_API_KEY or ARXIVCHAT_LLM_GEMINI_API_KEY.
	APIKey string `mapstructure:"-"`
	// Model is the Gemini model name.
	Model string `mapstructure:"model"`
	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL string `mapstructure:"base_url"`
}

// PaperSourcesConfig holds configuration for paper source APIs.
type PaperSourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv PaperSourceConfig `mapstructure:"arxiv"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the rate limiter burst.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries is the number of retries on transient upstream failures.
	MaxRetries int `mapstructure:"max_retries"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// LoggerConfig converts the logging section to the logger's option struct.
func (c LoggingConfig) LoggerConfig() observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		AddSource:  c.AddSource,
		TimeFormat: c.TimeFormat,
	}
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given config file instead of searching
// the default locations. An empty path searches the defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindPlatformEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/arxivchat")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindPlatformEnv accepts the bare PORT, HOST and DEBUG variables set by
// hosting platforms. The prefixed names take precedence.
func bindPlatformEnv(v *viper.Viper) {
	_ = v.BindEnv("server.http_port", EnvPrefix+"_SERVER_HTTP_PORT", "PORT")
	_ = v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")
	_ = v.BindEnv("app.debug", EnvPrefix+"_APP_DEBUG", "DEBUG")
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.LLM.Groq.APIKey = firstEnv(EnvPrefix+"_LLM_GROQ_API_KEY", "GROQ_API_KEY")
	cfg.LLM.Gemini.APIKey = firstEnv(EnvPrefix+"_LLM_GEMINI_API_KEY", "GOOGLE_API_KEY")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "ArxivChat")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"https://*.railway.app"})
	v.SetDefault("server.allowed_hosts", []string{"*.railway.app", "localhost", "127.0.0.1"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "arxivchat")

	// LLM defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.groq.model", "gemma2-9b-it")
	v.SetDefault("llm.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.groq.max_tokens", 2048)
	v.SetDefault("llm.gemini.model", "gemma-3n-e4b-it")
	v.SetDefault("llm.gemini.base_url", "")

	// Paper sources defaults - arXiv
	v.SetDefault("paper_sources.arxiv.enabled", true)
	v.SetDefault("paper_sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("paper_sources.arxiv.timeout", "30s")
	v.SetDefault("paper_sources.arxiv.rate_limit", 3.0) // arXiv asks for at most 3 req/sec
	v.SetDefault("paper_sources.arxiv.burst_size", 3)
	v.SetDefault("paper_sources.arxiv.max_retries", 0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Metrics.Enabled {
		if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
		}
		if c.Server.MetricsPort == c.Server.HTTPPort {
			return fmt.Errorf("metrics port must differ from HTTP port (%d)", c.Server.HTTPPort)
		}
	}

	if !observability.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature must be between 0 and 2")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	if c.LLM.Groq.MaxTokens <= 0 {
		return fmt.Errorf("groq max_tokens must be positive")
	}

	arxiv := c.PaperSources.ArXiv
	if arxiv.Enabled {
		if arxiv.BaseURL == "" {
			return fmt.Errorf("arxiv base_url is required when arxiv is enabled")
		}
		if arxiv.RateLimit <= 0 {
			return fmt.Errorf("arxiv rate_limit must be positive")
		}
	}
	if arxiv.MaxRetries < 0 {
		return fmt.Errorf("arxiv max_retries must not be negative")
	}

	return nil
}
