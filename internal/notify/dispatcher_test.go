package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"beacon/internal/config"
	"beacon/internal/types"
)

type recordingSender struct {
	name string
	err  error

	mu  sync.Mutex
	got []types.Notification
}

func (s *recordingSender) Name() string { return s.name }

func (s *recordingSender) Notify(ctx context.Context, n types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func (s *recordingSender) last() types.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.got[len(s.got)-1]
}

func waitForCount(t *testing.T, sender *recordingSender, want int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if sender.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sender %s saw %d notifications, want %d", sender.name, sender.count(), want)
}

func testSettings(mutate func(*config.Settings)) config.Settings {
	cfg := config.DefaultSettings()
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func waitingSession(id string) *types.Session {
	return &types.Session{
		ID:               id,
		Slug:             "sprocket",
		WorkingDirectory: "/tmp/sprocket",
		Status:           types.SessionStatusWaiting,
		LastNotification: "Permission needed",
		Question:         "Allow Bash?",
	}
}

func TestDispatcherFansOutToEnabledChannels(t *testing.T) {
	desktop := &recordingSender{name: "desktop"}
	voice := &recordingSender{name: "voice"}
	dispatcher := NewDispatcher(testSettings(nil), nil, desktop, voice)
	defer dispatcher.Stop(context.Background())

	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-1"))

	waitForCount(t, desktop, 1, time.Second)
	got := desktop.last()
	if got.Kind != types.NotificationKindWaiting {
		t.Fatalf("unexpected kind: %s", got.Kind)
	}
	if got.SessionID != "sess-1" || got.Question != "Allow Bash?" {
		t.Fatalf("unexpected notification: %+v", got)
	}
	if voice.count() != 0 {
		t.Fatalf("voice channel is off by default, saw %d", voice.count())
	}
}

func TestDispatcherHonorsChannelToggle(t *testing.T) {
	on := true
	voice := &recordingSender{name: "voice"}
	dispatcher := NewDispatcher(testSettings(func(cfg *config.Settings) {
		cfg.Notifications.Channels.Voice = &on
	}), nil, voice)
	defer dispatcher.Stop(context.Background())

	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-1"))
	waitForCount(t, voice, 1, time.Second)
}

func TestDispatcherDisabledDropsEverything(t *testing.T) {
	off := false
	desktop := &recordingSender{name: "desktop"}
	dispatcher := NewDispatcher(testSettings(func(cfg *config.Settings) {
		cfg.Notifications.Enabled = &off
	}), nil, desktop)
	defer dispatcher.Stop(context.Background())

	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-1"))
	time.Sleep(50 * time.Millisecond)
	if desktop.count() != 0 {
		t.Fatalf("disabled dispatcher delivered %d notifications", desktop.count())
	}
}

func TestDispatcherRateLimitsBursts(t *testing.T) {
	desktop := &recordingSender{name: "desktop"}
	dispatcher := NewDispatcher(testSettings(func(cfg *config.Settings) {
		cfg.Notifications.PerChannelPerMin = 1
	}), nil, desktop)
	defer dispatcher.Stop(context.Background())

	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-1"))
	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-2"))

	waitForCount(t, desktop, 1, time.Second)
	time.Sleep(50 * time.Millisecond)
	if desktop.count() != 1 {
		t.Fatalf("expected burst past the limit to drop, saw %d", desktop.count())
	}
}

func TestDispatcherSwallowsSenderErrors(t *testing.T) {
	desktop := &recordingSender{name: "desktop", err: errors.New("dbus gone")}
	dispatcher := NewDispatcher(testSettings(nil), nil, desktop)
	defer dispatcher.Stop(context.Background())

	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-1"))
	dispatcher.SessionStopped(context.Background(), waitingSession("sess-1"), "done")
	waitForCount(t, desktop, 2, time.Second)
}

func TestDispatcherStoppedIgnoresPublish(t *testing.T) {
	desktop := &recordingSender{name: "desktop"}
	dispatcher := NewDispatcher(testSettings(nil), nil, desktop)
	if err := dispatcher.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := dispatcher.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	dispatcher.SessionWaiting(context.Background(), waitingSession("sess-1"))
	time.Sleep(50 * time.Millisecond)
	if desktop.count() != 0 {
		t.Fatalf("stopped dispatcher delivered %d notifications", desktop.count())
	}
}

func TestScriptNotifierPayloadAndEnv(t *testing.T) {
	var payload []byte
	var env []string
	script := NewScript("voice", "speak-it")
	script.runner = func(ctx context.Context, command string, gotPayload []byte, gotEnv []string) error {
		if command != "speak-it" {
			t.Fatalf("unexpected command: %q", command)
		}
		payload = gotPayload
		env = gotEnv
		return nil
	}

	n := types.Notification{
		Kind:      types.NotificationKindWaiting,
		SessionID: "sess-1",
		Text:      "Permission needed",
	}
	if err := script.Notify(context.Background(), n); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var decoded types.Notification
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.Kind != types.NotificationKindWaiting || decoded.SessionID != "sess-1" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}

	joined := strings.Join(env, "\n")
	if !strings.Contains(joined, "BEACON_SESSION_ID=sess-1") {
		t.Fatalf("missing session id in env: %q", joined)
	}
	if !strings.Contains(joined, "BEACON_EVENT=session.waiting") {
		t.Fatalf("missing event in env: %q", joined)
	}
}

func TestDesktopFallsBackToBell(t *testing.T) {
	bell := &bytes.Buffer{}
	desktop := NewDesktop()
	desktop.lookPath = func(string) (string, error) { return "", errors.New("not installed") }
	desktop.bell = bell

	if err := desktop.Notify(context.Background(), types.Notification{Kind: types.NotificationKindWaiting}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if bell.String() != "\a" {
		t.Fatalf("expected bell, got %q", bell.String())
	}
}

func TestDesktopPrefersInstalledTool(t *testing.T) {
	var ran []string
	desktop := NewDesktop()
	desktop.lookPath = func(file string) (string, error) {
		if file == "notify-send" {
			return "/usr/bin/notify-send", nil
		}
		return "", errors.New("not installed")
	}
	desktop.runCmd = func(ctx context.Context, name string, args ...string) error {
		ran = append(ran, name)
		return nil
	}

	n := types.Notification{Kind: types.NotificationKindWaiting, Slug: "sprocket", Question: "Allow Bash?"}
	if err := desktop.Notify(context.Background(), n); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(ran) != 1 || ran[0] != "notify-send" {
		t.Fatalf("unexpected commands: %v", ran)
	}
}

func TestTitleBody(t *testing.T) {
	title, body := TitleBody(types.Notification{
		Kind:     types.NotificationKindWaiting,
		Slug:     "sprocket",
		Text:     "Permission needed",
		Question: "Allow Bash?",
	})
	if title != "Beacon: sprocket is waiting for input" {
		t.Fatalf("unexpected title: %q", title)
	}
	if body != "Allow Bash?" {
		t.Fatalf("question should win over text, got %q", body)
	}

	title, body = TitleBody(types.Notification{
		Kind:      types.NotificationKindStopped,
		SessionID: "0123456789abcdef",
		Reason:    "task complete",
	})
	if title != "Beacon: 01234567 stopped" {
		t.Fatalf("unexpected title: %q", title)
	}
	if body != "task complete" {
		t.Fatalf("unexpected body: %q", body)
	}

	title, _ = TitleBody(types.Notification{Kind: types.NotificationKindEnded})
	if title != "Beacon: session ended" {
		t.Fatalf("unexpected title: %q", title)
	}

	title, body = TitleBody(types.Notification{
		Kind:     types.NotificationKindWaiting,
		Slug:     "\x1b[31msprocket\x1b[0m",
		Question: "Allow\x00 Bash?",
	})
	if title != "Beacon: sprocket is waiting for input" {
		t.Fatalf("escapes should be stripped from the slug, got %q", title)
	}
	if body != "Allow Bash?" {
		t.Fatalf("control characters should be stripped from the body, got %q", body)
	}
}
