package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultHookPort           = 7878
	defaultDeliveryTimeout    = 5 * time.Second
	defaultRetryBase          = 1 * time.Second
	defaultRetryMultiplier    = 2.0
	defaultRetryMaxAttempts   = 4
	defaultInboxTTL           = 5 * time.Minute
	defaultSweepInterval      = 60 * time.Second
	defaultNotifyPerMinute    = 6
	defaultEvictionGraceSecs  = 30
	defaultNotificationsState = true
)

type Settings struct {
	Hooks         HooksSettings         `toml:"hooks"`
	Sessions      SessionsSettings      `toml:"sessions"`
	Delivery      DeliverySettings      `toml:"delivery"`
	Notifications NotificationsSettings `toml:"notifications"`
	Logging       LoggingSettings       `toml:"logging"`
}

type HooksSettings struct {
	Port int `toml:"port"`
}

type SessionsSettings struct {
	EvictionGraceSeconds int    `toml:"eviction_grace_seconds"`
	MetadataRoot         string `toml:"metadata_root"`
}

type DeliverySettings struct {
	InputTimeoutSeconds  int     `toml:"input_timeout_seconds"`
	RetryBaseMillis      int     `toml:"retry_base_ms"`
	RetryMultiplier      float64 `toml:"retry_multiplier"`
	RetryMaxAttempts     int     `toml:"retry_max_attempts"`
	InboxTTLSeconds      int     `toml:"inbox_ttl_seconds"`
	SweepIntervalSeconds int     `toml:"sweep_interval_seconds"`
}

type NotificationsSettings struct {
	Enabled          *bool             `toml:"enabled"`
	PerChannelPerMin int               `toml:"per_channel_per_minute"`
	Channels         ChannelToggles    `toml:"channels"`
	Scripts          map[string]string `toml:"scripts"`
}

type ChannelToggles struct {
	Desktop  *bool `toml:"desktop"`
	Voice    *bool `toml:"voice"`
	SMS      *bool `toml:"sms"`
	Telegram *bool `toml:"telegram"`
	Discord  *bool `toml:"discord"`
}

type LoggingSettings struct {
	Level string `toml:"level"`
}

func DefaultSettings() Settings {
	return Settings{
		Hooks: HooksSettings{Port: defaultHookPort},
	}
}

// Load reads the settings file from the default location. A missing or
// empty file yields defaults.
func Load() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Settings{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Settings, error) {
	cfg := DefaultSettings()
	if err := readTOML(path, &cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Save writes the settings back to path. This is the write sink used when
// the hook listener migrates to a new port; hook scripts re-read the file
// to rediscover the listener.
func (s Settings) Save(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s Settings) HookPort() int {
	if s.Hooks.Port <= 0 {
		return defaultHookPort
	}
	return s.Hooks.Port
}

func (s Settings) EvictionGrace() time.Duration {
	secs := s.Sessions.EvictionGraceSeconds
	if secs <= 0 {
		secs = defaultEvictionGraceSecs
	}
	return time.Duration(secs) * time.Second
}

// SessionMetadataRoot resolves the slug-scan directory, defaulting to the
// external assistant's own metadata location under the home directory.
func (s Settings) SessionMetadataRoot() (string, error) {
	root := strings.TrimSpace(s.Sessions.MetadataRoot)
	if root == "" {
		return DefaultSessionMetadataRoot()
	}
	if strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, root[2:]), nil
	}
	return root, nil
}

func (s Settings) InputTimeout() time.Duration {
	if s.Delivery.InputTimeoutSeconds <= 0 {
		return defaultDeliveryTimeout
	}
	return time.Duration(s.Delivery.InputTimeoutSeconds) * time.Second
}

func (s Settings) RetryBase() time.Duration {
	if s.Delivery.RetryBaseMillis <= 0 {
		return defaultRetryBase
	}
	return time.Duration(s.Delivery.RetryBaseMillis) * time.Millisecond
}

func (s Settings) RetryMultiplier() float64 {
	if s.Delivery.RetryMultiplier <= 0 {
		return defaultRetryMultiplier
	}
	return s.Delivery.RetryMultiplier
}

func (s Settings) RetryMaxAttempts() int {
	if s.Delivery.RetryMaxAttempts <= 0 {
		return defaultRetryMaxAttempts
	}
	return s.Delivery.RetryMaxAttempts
}

func (s Settings) InboxTTL() time.Duration {
	if s.Delivery.InboxTTLSeconds <= 0 {
		return defaultInboxTTL
	}
	return time.Duration(s.Delivery.InboxTTLSeconds) * time.Second
}

func (s Settings) SweepInterval() time.Duration {
	if s.Delivery.SweepIntervalSeconds <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(s.Delivery.SweepIntervalSeconds) * time.Second
}

func (s Settings) NotificationsEnabled() bool {
	if s.Notifications.Enabled == nil {
		return defaultNotificationsState
	}
	return *s.Notifications.Enabled
}

// ChannelEnabled reports whether a fan-out channel is switched on. Desktop
// defaults on; remote channels need explicit opt-in, either through their
// toggle or by configuring a script for them.
func (s Settings) ChannelEnabled(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	scripted := s.HasNotificationScript(name)
	toggle := func(v *bool, fallback bool) bool {
		if v == nil {
			return fallback
		}
		return *v
	}
	switch name {
	case "desktop":
		return toggle(s.Notifications.Channels.Desktop, true)
	case "voice":
		return toggle(s.Notifications.Channels.Voice, scripted)
	case "sms":
		return toggle(s.Notifications.Channels.SMS, scripted)
	case "telegram":
		return toggle(s.Notifications.Channels.Telegram, scripted)
	case "discord":
		return toggle(s.Notifications.Channels.Discord, scripted)
	default:
		return scripted
	}
}

// NotificationScripts returns the configured script commands keyed by
// channel name, with blank entries dropped.
func (s Settings) NotificationScripts() map[string]string {
	out := map[string]string{}
	for name, command := range s.Notifications.Scripts {
		name = strings.ToLower(strings.TrimSpace(name))
		command = strings.TrimSpace(command)
		if name == "" || command == "" {
			continue
		}
		out[name] = command
	}
	return out
}

func (s Settings) HasNotificationScript(name string) bool {
	_, ok := s.NotificationScripts()[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (s Settings) NotificationsPerMinute() int {
	if s.Notifications.PerChannelPerMin <= 0 {
		return defaultNotifyPerMinute
	}
	return s.Notifications.PerChannelPerMin
}

func (s Settings) LogLevel() string {
	level := strings.TrimSpace(s.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
