package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTransport(t *testing.T) {
	if parseTransport("ws") != TransportWebSocket {
		t.Error("ws should select the websocket transport")
	}
	if parseTransport("websocket") != TransportWebSocket {
		t.Error("websocket should select the websocket transport")
	}
	if parseTransport("sse") != TransportSSE || parseTransport("") != TransportSSE {
		t.Error("sse should be the default transport")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("portal_url: https://portal.example.com\nmodel: file-model\nlog_level: DEBUG\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENTCHAT_CONFIG", path)
	t.Setenv("AGENTCHAT_MODEL", "env-model")
	t.Setenv("AGENTCHAT_PORTAL_URL", "")
	t.Setenv("AGENTCHAT_LOG_LEVEL", "")

	cfg := Load()

	// env > file > default
	if cfg.Model != "env-model" {
		t.Errorf("Model = %q, want env-model", cfg.Model)
	}
	if cfg.PortalURL != "https://portal.example.com" {
		t.Errorf("PortalURL = %q, want file value", cfg.PortalURL)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug from file", cfg.LogLevel)
	}
	if cfg.HistoryNamespace != "agentchat" {
		t.Errorf("HistoryNamespace = %q, want default", cfg.HistoryNamespace)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("AGENTCHAT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("AGENTCHAT_PORTAL_URL", "")

	cfg := Load()
	if cfg.PortalURL != "http://localhost:8080" {
		t.Errorf("PortalURL = %q, want default", cfg.PortalURL)
	}
}
