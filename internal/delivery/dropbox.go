package delivery

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"beacon/internal/logging"
	"beacon/internal/metrics"
)

const inputSuffix = ".input"

// Dropbox is the filesystem fallback transport: one file per session in a
// well-known directory, consumed read-then-delete by whoever polls it.
type Dropbox struct {
	dir    string
	ttl    time.Duration
	logger logging.Logger
}

func NewDropbox(dir string, ttl time.Duration, logger logging.Logger) *Dropbox {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dropbox{dir: dir, ttl: ttl, logger: logger}
}

func (d *Dropbox) path(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || strings.ContainsAny(sessionID, "/\\") {
		return "", errors.New("invalid session id")
	}
	return filepath.Join(d.dir, sessionID+inputSuffix), nil
}

// Drop writes text for sessionID, creating the directory if absent. The
// contents are the raw UTF-8 reply with no envelope.
func (d *Dropbox) Drop(sessionID, text string) error {
	path, err := d.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o600)
}

// ReadPending consumes the pending entry for sessionID. The delete makes
// delivery at-most-once per poll; a missing file is "nothing pending".
func (d *Dropbox) ReadPending(sessionID string) (string, bool) {
	path, err := d.path(sessionID)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn("inbox_read_failed", logging.F("session_id", sessionID), logging.Err(err))
		}
		return "", false
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("inbox_consume_failed", logging.F("session_id", sessionID), logging.Err(err))
	}
	return string(data), true
}

// HasPending reports whether an unconsumed entry exists without touching it.
func (d *Dropbox) HasPending(sessionID string) bool {
	path, err := d.path(sessionID)
	if err != nil {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return true
}

// SweepStale removes entries older than the TTL and returns how many were
// removed. All filesystem errors are swallowed; housekeeping never
// propagates failures.
func (d *Dropbox) SweepStale() int {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().Add(-d.ttl)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), inputSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.RecordInboxSweep(removed)
		d.logger.Debug("inbox_sweep", logging.F("removed", removed))
	}
	return removed
}
