package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"beacon/internal/types"
)

// Script bridges a channel to a user-configured shell command. The command
// receives the notification JSON on stdin and a BEACON_* environment, so
// voice, SMS or chat senders can live outside this process.
type Script struct {
	name    string
	command string
	runner  func(ctx context.Context, command string, payload []byte, env []string) error
}

func NewScript(name, command string) *Script {
	return &Script{
		name:    strings.ToLower(strings.TrimSpace(name)),
		command: strings.TrimSpace(command),
		runner:  runShellScript,
	}
}

func (s *Script) Name() string { return s.name }

func (s *Script) Notify(ctx context.Context, n types.Notification) error {
	if s.command == "" {
		return fmt.Errorf("channel %s has no script configured", s.name)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.runner(ctx, s.command, payload, scriptEnv(n))
}

func runShellScript(ctx context.Context, command string, payload []byte, env []string) error {
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, "sh", "-lc", command)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), env...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("script %q failed: %w (%s)", command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func scriptEnv(n types.Notification) []string {
	return []string{
		"BEACON_EVENT=" + string(n.Kind),
		"BEACON_SESSION_ID=" + strings.TrimSpace(n.SessionID),
		"BEACON_SLUG=" + strings.TrimSpace(n.Slug),
		"BEACON_CWD=" + strings.TrimSpace(n.WorkingDirectory),
		"BEACON_TEXT=" + strings.TrimSpace(n.Text),
		"BEACON_QUESTION=" + strings.TrimSpace(n.Question),
		"BEACON_REASON=" + strings.TrimSpace(n.Reason),
		"BEACON_OCCURRED_AT=" + strconv.FormatInt(n.OccurredAt, 10),
	}
}
