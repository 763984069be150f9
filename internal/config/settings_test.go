package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.HookPort() != 7878 {
		t.Fatalf("expected default port 7878, got %d", cfg.HookPort())
	}
	if cfg.InputTimeout() != 5*time.Second {
		t.Fatalf("expected 5s input timeout, got %s", cfg.InputTimeout())
	}
	if cfg.RetryBase() != time.Second || cfg.RetryMultiplier() != 2.0 || cfg.RetryMaxAttempts() != 4 {
		t.Fatalf("unexpected retry defaults: %s %f %d", cfg.RetryBase(), cfg.RetryMultiplier(), cfg.RetryMaxAttempts())
	}
	if cfg.InboxTTL() != 5*time.Minute {
		t.Fatalf("expected 5m inbox ttl, got %s", cfg.InboxTTL())
	}
	if cfg.SweepInterval() != 60*time.Second {
		t.Fatalf("expected 60s sweep interval, got %s", cfg.SweepInterval())
	}
	if cfg.EvictionGrace() != 30*time.Second {
		t.Fatalf("expected 30s eviction grace, got %s", cfg.EvictionGrace())
	}
	if !cfg.NotificationsEnabled() {
		t.Fatalf("expected notifications enabled by default")
	}
	if !cfg.ChannelEnabled("desktop") {
		t.Fatalf("expected desktop channel on by default")
	}
	if cfg.ChannelEnabled("telegram") {
		t.Fatalf("expected telegram channel off by default")
	}
	if cfg.LogLevel() != "info" {
		t.Fatalf("expected info log level, got %s", cfg.LogLevel())
	}
}

func TestLoadFromPathMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HookPort() != 7878 {
		t.Fatalf("expected defaults for missing file, got port %d", cfg.HookPort())
	}
}

func TestLoadFromPathOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[hooks]
port = 9100

[delivery]
input_timeout_seconds = 2
retry_max_attempts = 2

[notifications]
enabled = false

[notifications.channels]
telegram = true

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HookPort() != 9100 {
		t.Fatalf("expected port 9100, got %d", cfg.HookPort())
	}
	if cfg.InputTimeout() != 2*time.Second {
		t.Fatalf("expected 2s timeout, got %s", cfg.InputTimeout())
	}
	if cfg.RetryMaxAttempts() != 2 {
		t.Fatalf("expected 2 retry attempts, got %d", cfg.RetryMaxAttempts())
	}
	if cfg.NotificationsEnabled() {
		t.Fatalf("expected notifications disabled")
	}
	if !cfg.ChannelEnabled("telegram") {
		t.Fatalf("expected telegram enabled")
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel())
	}
}

func TestNotificationScripts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[notifications.scripts]
voice = "say-it"
pager = "  page-me  "
blank = "   "

[notifications.channels]
voice = false
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	scripts := cfg.NotificationScripts()
	if scripts["voice"] != "say-it" {
		t.Fatalf("unexpected voice script: %q", scripts["voice"])
	}
	if scripts["pager"] != "page-me" {
		t.Fatalf("expected trimmed script, got %q", scripts["pager"])
	}
	if _, ok := scripts["blank"]; ok {
		t.Fatalf("blank script should be dropped")
	}

	// A script implies the channel is on unless its toggle says otherwise.
	if !cfg.ChannelEnabled("pager") {
		t.Fatalf("expected scripted channel enabled")
	}
	if cfg.ChannelEnabled("voice") {
		t.Fatalf("explicit toggle should beat the script fallback")
	}
}

func TestSaveRoundTripsMigratedPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultSettings()
	cfg.Hooks.Port = 7881
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.HookPort() != 7881 {
		t.Fatalf("expected persisted port 7881, got %d", loaded.HookPort())
	}
}
