package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// WebSocket limits.
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	EventBuffer       int           `mapstructure:"event_buffer" yaml:"event_buffer"`
	MessagesPerMinute int           `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
	PingInterval      time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Identity tokens.
	JWTSecret    string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer    string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience  string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	RequireToken bool   `mapstructure:"require_token" yaml:"require_token"`

	// Participation ledger.
	DatabasePath  string        `mapstructure:"database_path" yaml:"database_path"`
	RecordTimeout time.Duration `mapstructure:"record_timeout" yaml:"record_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxMessageBytes:   64 << 10,
		EventBuffer:       64,
		MessagesPerMinute: 600,
		PingInterval:      30 * time.Second,
		AllowedOrigins:    []string{"*"},
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "wiremeet",
		JWTAudience:       "wiremeet",
		DatabasePath:      "wiremeet.db",
		RecordTimeout:     5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.EventBuffer != 0 {
		c.EventBuffer = other.EventBuffer
	}
	if other.MessagesPerMinute != 0 {
		c.MessagesPerMinute = other.MessagesPerMinute
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.RequireToken {
		c.RequireToken = true
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.RecordTimeout != 0 {
		c.RecordTimeout = other.RecordTimeout
	}
}
