package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".beacon"

// DataDir returns the base data directory for beacon.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// SettingsPath returns the path to the TOML settings file.
func SettingsPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.toml"), nil
}

// WrapperHandlePath returns the path to the wrapper handle file.
func WrapperHandlePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "wrapper.json"), nil
}

// InboxDir returns the drop-box directory polled for pending session input.
func InboxDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "inbox"), nil
}

// DefaultSessionMetadataRoot returns the directory scanned when resolving
// session slugs from external session metadata.
func DefaultSessionMetadataRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}
