package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"beacon/internal/logging"
	"beacon/internal/metrics"
	"beacon/internal/types"
)

// Channel delivers reply text to a live session. The network transport
// through the wrapper process is tried first with retries; the filesystem
// drop-box is the fallback. Send reports delivery as a boolean and never
// returns an error.
type Channel struct {
	handlePath string
	dropbox    *Dropbox
	timeout    time.Duration
	policy     RetryPolicy
	httpClient *http.Client
	logger     logging.Logger

	alive func(int) bool
	sleep func(context.Context, time.Duration) error
}

type ChannelConfig struct {
	HandlePath string
	InboxDir   string
	Timeout    time.Duration
	InboxTTL   time.Duration
	Policy     RetryPolicy
	Logger     logging.Logger
}

func NewChannel(cfg ChannelConfig) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	policy := cfg.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Channel{
		handlePath: cfg.HandlePath,
		dropbox:    NewDropbox(cfg.InboxDir, cfg.InboxTTL, logger),
		timeout:    timeout,
		policy:     policy,
		httpClient: &http.Client{},
		logger:     logger,
		alive:      processAlive,
		sleep:      sleepCtx,
	}
}

// Dropbox exposes the fallback transport's consumer side.
func (c *Channel) Dropbox() *Dropbox {
	return c.dropbox
}

// Send delivers text to sessionID, network first, drop-box second. False
// means both transports were exhausted; the cause is in the logs.
func (c *Channel) Send(ctx context.Context, sessionID, text string) bool {
	if strings.TrimSpace(sessionID) == "" {
		return false
	}
	if c.sendViaWrapper(ctx, sessionID, text) {
		metrics.RecordDelivery("network", "ok")
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	if err := c.dropbox.Drop(sessionID, text); err != nil {
		metrics.RecordDelivery("dropbox", "error")
		c.logger.Error("input_delivery_failed", logging.F("session_id", sessionID), logging.Err(err))
		return false
	}
	metrics.RecordDelivery("dropbox", "ok")
	c.logger.Info("input_queued", logging.F("session_id", sessionID))
	return true
}

// ReadPending consumes pending drop-box input for sessionID.
func (c *Channel) ReadPending(sessionID string) (string, bool) {
	return c.dropbox.ReadPending(sessionID)
}

// HasPending reports whether drop-box input is waiting for sessionID.
func (c *Channel) HasPending(sessionID string) bool {
	return c.dropbox.HasPending(sessionID)
}

// SweepStale removes expired drop-box entries.
func (c *Channel) SweepStale() int {
	return c.dropbox.SweepStale()
}

// RunSweeper sweeps the drop-box on a fixed interval until ctx is done.
func (c *Channel) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepStale()
		}
	}
}

func (c *Channel) sendViaWrapper(ctx context.Context, sessionID, text string) bool {
	handle := c.liveHandle()
	if handle == nil {
		return false
	}
	for attempt := 0; attempt < c.policy.attempts(); attempt++ {
		if delay := c.policy.Delay(attempt); delay > 0 {
			metrics.RecordDeliveryRetry()
			if err := c.sleep(ctx, delay); err != nil {
				return false
			}
			// The wrapper may have exited while we were waiting.
			if handle = c.liveHandle(); handle == nil {
				return false
			}
		}
		err := c.postInput(ctx, handle.Port, text)
		if err == nil {
			c.logger.Debug("wrapper_send_ok",
				logging.F("session_id", sessionID),
				logging.F("port", handle.Port),
				logging.F("attempt", attempt+1),
			)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Warn("wrapper_send_failed",
			logging.F("session_id", sessionID),
			logging.F("attempt", attempt+1),
			logging.Err(err),
		)
	}
	metrics.RecordDelivery("network", "exhausted")
	return false
}

// liveHandle loads the wrapper handle and verifies the process behind it.
// A handle pointing at a dead pid is deleted so later sends skip straight
// to the drop-box.
func (c *Channel) liveHandle() *types.WrapperHandle {
	handle, err := LoadHandle(c.handlePath)
	if err != nil {
		c.logger.Warn("wrapper_handle_unreadable", logging.Err(err))
		return nil
	}
	if handle == nil {
		return nil
	}
	if !c.alive(handle.PID) {
		if err := os.Remove(c.handlePath); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("stale_handle_remove_failed", logging.Err(err))
		} else {
			c.logger.Info("stale_handle_removed", logging.F("pid", handle.PID))
		}
		return nil
	}
	return handle
}

func (c *Channel) postInput(ctx context.Context, port int, text string) error {
	body, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return err
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/input", port)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wrapper returned status %d", resp.StatusCode)
	}
	return nil
}
