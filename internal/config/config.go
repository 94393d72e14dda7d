// Package config loads client configuration from the environment and an
// optional YAML file.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transport selects how the chat stream is carried.
type Transport string

const (
	TransportSSE       Transport = "sse"
	TransportWebSocket Transport = "ws"
)

// Config holds all configuration values.
type Config struct {
	// Portal connection
	PortalURL string
	Token     string

	// Chat defaults
	Model      string
	ProviderID string
	Transport  Transport

	// Local history archive (SurrealDB)
	HistoryURL       string
	HistoryNamespace string
	HistoryDatabase  string
	HistoryUser      string
	HistoryPass      string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the YAML config file shape. Environment variables take
// precedence over file values, which take precedence over defaults.
type fileConfig struct {
	PortalURL  string `yaml:"portal_url"`
	Token      string `yaml:"token"`
	Model      string `yaml:"model"`
	ProviderID string `yaml:"provider_id"`
	Transport  string `yaml:"transport"`
	History    struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
		Database  string `yaml:"database"`
		User      string `yaml:"user"`
		Pass      string `yaml:"pass"`
	} `yaml:"history"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from the environment, merged over the config
// file named by AGENTCHAT_CONFIG (default ~/.config/agentchat/config.yaml
// when present).
func Load() Config {
	file := loadFile(configFilePath())

	return Config{
		PortalURL: pick("AGENTCHAT_PORTAL_URL", file.PortalURL, "http://localhost:8080"),
		Token:     pick("AGENTCHAT_TOKEN", file.Token, ""),

		Model:      pick("AGENTCHAT_MODEL", file.Model, "agent-default"),
		ProviderID: pick("AGENTCHAT_PROVIDER_ID", file.ProviderID, ""),
		Transport:  parseTransport(pick("AGENTCHAT_TRANSPORT", file.Transport, string(TransportSSE))),

		HistoryURL:       pick("AGENTCHAT_HISTORY_URL", file.History.URL, "ws://localhost:8000/rpc"),
		HistoryNamespace: pick("AGENTCHAT_HISTORY_NAMESPACE", file.History.Namespace, "agentchat"),
		HistoryDatabase:  pick("AGENTCHAT_HISTORY_DATABASE", file.History.Database, "history"),
		HistoryUser:      pick("AGENTCHAT_HISTORY_USER", file.History.User, "root"),
		HistoryPass:      pick("AGENTCHAT_HISTORY_PASS", file.History.Pass, "root"),

		LogFile:  pick("AGENTCHAT_LOG_FILE", file.LogFile, "/tmp/agentchat.log"),
		LogLevel: parseLogLevel(pick("AGENTCHAT_LOG_LEVEL", file.LogLevel, "INFO")),
	}
}

func configFilePath() string {
	if p := os.Getenv("AGENTCHAT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agentchat", "config.yaml")
}

// loadFile parses the YAML config file; a missing or unreadable file is
// the same as an empty one.
func loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return fileConfig{}
	}
	return fc
}

func pick(envKey, fileVal, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if fileVal != "" {
		return fileVal
	}
	return defaultVal
}

func parseTransport(s string) Transport {
	switch strings.ToLower(s) {
	case "ws", "websocket":
		return TransportWebSocket
	default:
		return TransportSSE
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
