package daemon

import (
	"context"
	"net/http"
	"strings"

	"beacon/internal/logging"
	"beacon/internal/types"
)

// InputChannel delivers reply text to a live session and exposes the
// consumer side of the drop-box fallback.
type InputChannel interface {
	Send(ctx context.Context, sessionID, text string) bool
	ReadPending(sessionID string) (string, bool)
	HasPending(sessionID string) bool
}

// EventNotifier receives the registry transitions worth surfacing to the
// user. Implementations must not block the event pipeline.
type EventNotifier interface {
	SessionWaiting(ctx context.Context, session *types.Session)
	SessionStopped(ctx context.Context, session *types.Session, reason string)
	SessionEnded(ctx context.Context, session *types.Session)
}

// Refresher is poked after every processed event so a live view can reload
// its registry snapshot.
type Refresher interface {
	OnSessionsChanged()
}

// ReplyHandler routes a user reply from a chat surface back to a session.
// The returned message is shown to the user on the same surface and is
// never empty.
type ReplyHandler interface {
	HandleReply(ctx context.Context, text, channel string) string
}

type API struct {
	Version   string
	Registry  *Registry
	Resolver  *Resolver
	Delivery  InputChannel
	Notifier  EventNotifier
	Refresher Refresher
	Replies   ReplyHandler
	Logger    logging.Logger
}

type SendInputRequest struct {
	Text string `json:"text"`
}

type SendInputResponse struct {
	Delivered bool `json:"delivered"`
}

type ReplyRequest struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

type ReplyResponse struct {
	Message string `json:"message"`
}

type PendingInputResponse struct {
	Input   string `json:"input,omitempty"`
	Pending bool   `json:"pending"`
}

func isPeekRequest(r *http.Request) bool {
	peek := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("peek")))
	return peek == "1" || peek == "true" || peek == "yes"
}
