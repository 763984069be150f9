package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"beacon/internal/daemon"
)

type stubInputChannel struct {
	sent      map[string]string
	deliverOK bool
	pending   map[string]string
}

func (c *stubInputChannel) Send(ctx context.Context, sessionID, text string) bool {
	c.sent[sessionID] = text
	return c.deliverOK
}

func (c *stubInputChannel) ReadPending(sessionID string) (string, bool) {
	text, ok := c.pending[sessionID]
	if ok {
		delete(c.pending, sessionID)
	}
	return text, ok
}

func (c *stubInputChannel) HasPending(sessionID string) bool {
	_, ok := c.pending[sessionID]
	return ok
}

type stubReplyHandler struct{}

func (stubReplyHandler) HandleReply(ctx context.Context, text, channel string) string {
	return "Sent to 🟡 abcd1234 sprocket."
}

func newTestServer(t *testing.T) (*Client, *daemon.Registry, *stubInputChannel) {
	t.Helper()
	registry := daemon.NewRegistry()
	channel := &stubInputChannel{
		sent:      map[string]string{},
		deliverOK: true,
		pending:   map[string]string{},
	}
	api := &daemon.API{
		Version:  "test",
		Registry: registry,
		Resolver: daemon.NewResolver(registry),
		Delivery: channel,
		Replies:  stubReplyHandler{},
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewWithBaseURL(server.URL), registry, channel
}

func TestClientHealth(t *testing.T) {
	client, _, _ := newTestServer(t)

	resp, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !resp.OK || resp.Version != "test" {
		t.Fatalf("unexpected health: %+v", resp)
	}
}

func TestClientSessionLifecycle(t *testing.T) {
	client, registry, _ := newTestServer(t)
	registry.Create("abcd1234efgh", "/tmp/one")
	registry.Create("wxyz5678", "/tmp/two")

	sessions, err := client.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	session, err := client.GetSession(context.Background(), "abcd")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.ID != "abcd1234efgh" {
		t.Fatalf("unexpected session: %q", session.ID)
	}

	if err := client.ClearSession(context.Background(), "abcd1234efgh"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := client.GetSession(context.Background(), "abcd1234efgh"); err == nil {
		t.Fatalf("expected not found after clear")
	}
}

func TestClientAPIError(t *testing.T) {
	client, _, _ := newTestServer(t)

	_, err := client.GetSession(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "session not found" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestClientSendInput(t *testing.T) {
	client, registry, channel := newTestServer(t)
	registry.Create("abcd1234", "/tmp/one")

	delivered, err := client.SendInput(context.Background(), "abcd", "looks good")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !delivered {
		t.Fatalf("expected delivered")
	}
	if channel.sent["abcd1234"] != "looks good" {
		t.Fatalf("unexpected sent text: %v", channel.sent)
	}
}

func TestClientConsumeInput(t *testing.T) {
	client, _, channel := newTestServer(t)
	channel.pending["s1"] = "queued"

	text, pending, err := client.ConsumeInput(context.Background(), "s1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !pending || text != "queued" {
		t.Fatalf("unexpected consume: %q %v", text, pending)
	}

	_, pending, err = client.ConsumeInput(context.Background(), "s1")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if pending {
		t.Fatalf("drop-box should be empty after consume")
	}
}

func TestClientTarget(t *testing.T) {
	client, registry, _ := newTestServer(t)

	session, err := client.Target(context.Background())
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if session != nil {
		t.Fatalf("expected no target, got %q", session.ID)
	}

	registry.Create("abcd1234", "/tmp/one")
	session, err = client.Target(context.Background())
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if session == nil || session.ID != "abcd1234" {
		t.Fatalf("unexpected target: %+v", session)
	}
}

func TestClientReply(t *testing.T) {
	client, _, _ := newTestServer(t)

	message, err := client.Reply(context.Background(), "yes", "cli")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if message != "Sent to 🟡 abcd1234 sprocket." {
		t.Fatalf("unexpected message: %q", message)
	}
}
