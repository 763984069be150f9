package notify

import (
	"context"
	"strings"

	"beacon/internal/sanitize"
	"beacon/internal/types"
)

// Notifier delivers one notification over a single channel. The channel
// wire format is the implementation's problem.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n types.Notification) error
}

// TitleBody renders the two-line form shared by the desktop senders.
// Session-supplied text is cleaned of escape sequences before display.
func TitleBody(n types.Notification) (string, string) {
	name := strings.TrimSpace(sanitize.Line(n.Slug))
	if name == "" {
		name = shortSessionID(n.SessionID)
	}
	if name == "" {
		name = "session"
	}
	title := "Beacon notification"
	switch n.Kind {
	case types.NotificationKindWaiting:
		title = "Beacon: " + name + " is waiting for input"
	case types.NotificationKindStopped:
		title = "Beacon: " + name + " stopped"
	case types.NotificationKindEnded:
		title = "Beacon: " + name + " ended"
	}
	body := strings.TrimSpace(sanitize.Text(n.Question))
	if body == "" {
		body = strings.TrimSpace(sanitize.Text(n.Text))
	}
	if body == "" {
		body = strings.TrimSpace(sanitize.Text(n.Reason))
	}
	return title, body
}

func shortSessionID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
