package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all smartclass configuration.
type Config struct {
	LogLevel string `toml:"log_level"`

	Server   ServerConfig   `toml:"server"`
	Mongo    MongoConfig    `toml:"mongo"`
	Redis    RedisConfig    `toml:"redis"`
	Auth     AuthConfig     `toml:"auth"`
	AI       AIConfig       `toml:"ai"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

type ServerConfig struct {
	Port               string `toml:"port"`
	CORSAllowedOrigins string `toml:"cors_allowed_origins"`
	ShutdownTimeoutSec int    `toml:"shutdown_timeout_sec"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type RedisConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	JWTSecret string `toml:"-"` // env only
}

type CatalogConfig struct {
	// Path to a YAML diagram catalog replacing the built-in seed list
	Path string `toml:"path"`
}

// PipelineConfig tunes the fusion and suggestion pipeline.
type PipelineConfig struct {
	ConfidenceThreshold        float64 `toml:"confidence_threshold"`
	MaxSuggestions             int     `toml:"max_suggestions"`
	SuggestionTimeoutMS        int64   `toml:"suggestion_timeout_ms"`
	SpeechBufferMS             int64   `toml:"speech_buffer_ms"`
	BoardEventBufferMS         int64   `toml:"board_event_buffer_ms"`
	RetentionMS                int64   `toml:"retention_ms"`
	EnableProactiveSuggestions bool    `toml:"enable_proactive_suggestions"`
	EnableShapeCorrection      bool    `toml:"enable_shape_correction"`
}

// SpeechWindow is the sub-window used for intent detection
func (p PipelineConfig) SpeechWindow() time.Duration {
	return time.Duration(p.SpeechBufferMS) * time.Millisecond
}

// BoardWindow is the sub-window used for current shapes
func (p PipelineConfig) BoardWindow() time.Duration {
	return time.Duration(p.BoardEventBufferMS) * time.Millisecond
}

// Retention is how long the rolling buffers keep entries
func (p PipelineConfig) Retention() time.Duration {
	return time.Duration(p.RetentionMS) * time.Millisecond
}

// SuggestionTimeout is how long an active suggestion stays visible
func (p PipelineConfig) SuggestionTimeout() time.Duration {
	return time.Duration(p.SuggestionTimeoutMS) * time.Millisecond
}

// DefaultPipelineConfig mirrors the classroom assistant defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ConfidenceThreshold:        0.7,
		MaxSuggestions:             3,
		SuggestionTimeoutMS:        15000,
		SpeechBufferMS:             30000,
		BoardEventBufferMS:         10000,
		RetentionMS:                60000,
		EnableProactiveSuggestions: true,
		EnableShapeCorrection:      true,
	}
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:               "8080",
			CORSAllowedOrigins: "*",
			ShutdownTimeoutSec: 30,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "smartclass",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Auth: AuthConfig{
			Username:  "admin",
			Password:  "password123",
			JWTSecret: "super-secret-key-change-in-production",
		},
		AI:       *DefaultAIConfig(),
		Pipeline: DefaultPipelineConfig(),
	}
}

// Load reads config from path (or $SMARTCLASS_CONFIG, or ./smartclass.toml),
// falling back to defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getEnv("SMARTCLASS_CONFIG", "smartclass.toml")
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.CORSAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.Server.CORSAllowedOrigins)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)

	// Remove redis:// prefix if present
	c.Redis.Addr = strings.TrimPrefix(getEnv("REDIS_URI", c.Redis.Addr), "redis://")

	c.Auth.Username = getEnv("HOST_USERNAME", c.Auth.Username)
	c.Auth.Password = getEnv("HOST_PASSWORD", c.Auth.Password)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)

	c.AI.APIKey = getEnv("GEMINI_API_KEY", c.AI.APIKey)
	c.AI.Models.SpeechAnalysis = getEnv("GEMINI_MODEL_SPEECH", c.AI.Models.SpeechAnalysis)
	c.AI.Models.DrawingAnalysis = getEnv("GEMINI_MODEL_DRAWING", c.AI.Models.DrawingAnalysis)
	c.AI.Models.VisualSuggestion = getEnv("GEMINI_MODEL_VISUAL", c.AI.Models.VisualSuggestion)
	c.AI.Models.Summary = getEnv("GEMINI_MODEL_SUMMARY", c.AI.Models.Summary)

	c.Catalog.Path = getEnv("DIAGRAM_CATALOG", c.Catalog.Path)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
