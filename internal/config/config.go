package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.whychat/config.toml.
type Config struct {
	ServerURL             string `toml:"server_url"`
	DefaultSender         string `toml:"default_sender"`
	DefaultConversation   string `toml:"default_conversation"`
	ReconnectDelaySeconds int    `toml:"reconnect_delay_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:             "http://localhost:8080",
		DefaultConversation:   "chat1",
		ReconnectDelaySeconds: 3,
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ReconnectDelay returns the configured reconnect delay.
func (c *Config) ReconnectDelay() time.Duration {
	if c.ReconnectDelaySeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

// WebSocketURL derives the live-channel base URL from the server URL by
// swapping the scheme (http -> ws, https -> wss).
func (c *Config) WebSocketURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
