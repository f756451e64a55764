// Package config handles loading and validating the castervoice configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for the castervoice daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig configures the HTTP transport serving POST /tts.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// GeneratorConfig selects and configures the speech model backend.
type GeneratorConfig struct {
	Backend string       `mapstructure:"backend"` // "bark", "piper" or "openai"
	Bark    BarkConfig   `mapstructure:"bark"`
	Piper   PiperConfig  `mapstructure:"piper"`
	OpenAI  OpenAIConfig `mapstructure:"openai"`
}

// BarkConfig points at a bark inference server.
type BarkConfig struct {
	Endpoint string `mapstructure:"endpoint"` // base URL, e.g. http://localhost:8500
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
	Voice    string `mapstructure:"voice"`    // Piper voice model name
}

// OpenAIConfig holds OpenAI speech API settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Voice   string `mapstructure:"voice"`
}

// AudioConfig controls response encoding.
type AudioConfig struct {
	Subtype string `mapstructure:"subtype"` // "pcm16" or "float32"
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./castervoice.yaml, ./configs/castervoice.yaml, /etc/castervoice/castervoice.yaml.
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the environment.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8000)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("generator.backend", "bark")
	v.SetDefault("generator.bark.endpoint", "http://localhost:8500")
	v.SetDefault("generator.piper.endpoint", "localhost:10200")
	v.SetDefault("generator.piper.voice", "en_US-lessac-medium")
	v.SetDefault("generator.openai.api_key", "")
	v.SetDefault("generator.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("generator.openai.model", "gpt-4o-mini-tts")
	v.SetDefault("generator.openai.voice", "alloy")
	v.SetDefault("audio.subtype", "pcm16")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("castervoice")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/castervoice")
	}

	// Environment variables: CASTERVOICE_GENERATOR_BACKEND, CASTERVOICE_TRANSPORTS_HTTP_PORT, etc.
	v.SetEnvPrefix("CASTERVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional: env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.Generator.OpenAI.APIKey = resolveEnvRef(cfg.Generator.OpenAI.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail only at first request.
func (c *Config) Validate() error {
	switch c.Generator.Backend {
	case "bark", "piper", "openai":
	default:
		return fmt.Errorf("unknown generator backend %q", c.Generator.Backend)
	}
	switch c.Audio.Subtype {
	case "pcm16", "float32":
	default:
		return fmt.Errorf("unknown audio subtype %q", c.Audio.Subtype)
	}
	if !c.Transports.HTTP.Enabled && !c.Transports.GRPC.Enabled {
		return fmt.Errorf("no transports enabled: enable at least one of http, grpc")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(slog.New(NewHandler(cfg, os.Stdout)))
}

// NewHandler builds the slog handler described by cfg, writing to w.
func NewHandler(cfg LoggingConfig, w io.Writer) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
