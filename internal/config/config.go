package config

import "time"

// Config holds client configuration values.
type Config struct {
	// ServerURL is the base URL of the chat HTTP API.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	// SocketURL is the WebSocket endpoint for live events.
	SocketURL string `mapstructure:"socket_url" yaml:"socket_url"`
	// DatabasePath is where the local session database lives.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// TypingExpiry bounds how long a peer's typing indicator stays set
	// without a refresh. Zero disables the auto-clear.
	TypingExpiry time.Duration `mapstructure:"typing_expiry" yaml:"typing_expiry"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:      "http://localhost:3001",
		SocketURL:      "ws://localhost:3001/socket",
		DatabasePath:   "wirechat-client.db",
		LogLevel:       "info",
		RequestTimeout: 10 * time.Second,
		TypingExpiry:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.SocketURL != "" {
		c.SocketURL = other.SocketURL
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.TypingExpiry != 0 {
		c.TypingExpiry = other.TypingExpiry
	}
}
