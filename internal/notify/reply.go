package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"beacon/internal/daemon"
	"beacon/internal/logging"
	"beacon/internal/types"
)

// InputSender is the delivery-side surface the router pushes replies into.
type InputSender interface {
	Send(ctx context.Context, sessionID, text string) bool
}

// ReplyRouter turns free-form reply text from a chat surface into an input
// delivery. `@<prefix> <text>` addresses a session by id prefix; anything
// else goes to the current target. Every outcome yields a message for the
// surface the reply came from.
type ReplyRouter struct {
	resolver *daemon.Resolver
	delivery InputSender
	logger   logging.Logger
}

func NewReplyRouter(resolver *daemon.Resolver, delivery InputSender, logger logging.Logger) *ReplyRouter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ReplyRouter{resolver: resolver, delivery: delivery, logger: logger}
}

func (r *ReplyRouter) HandleReply(ctx context.Context, text, channel string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Nothing to send."
	}

	prefix, body := splitAddressed(text)
	if prefix != "" {
		session, err := r.resolver.FindByID(prefix)
		if err != nil {
			var ambiguous *daemon.AmbiguousMatchError
			if errors.As(err, &ambiguous) {
				return daemon.FormatAmbiguous(ambiguous.Prefix, ambiguous.Matches)
			}
			return fmt.Sprintf("No session matches %q.", prefix)
		}
		if body == "" {
			return "Nothing to send."
		}
		return r.deliver(ctx, channel, session, body)
	}

	session, ok := r.resolver.FindTarget()
	if !ok {
		return "No session is waiting or active."
	}
	return r.deliver(ctx, channel, session, text)
}

func (r *ReplyRouter) deliver(ctx context.Context, channel string, session *types.Session, text string) string {
	delivered := r.delivery != nil && r.delivery.Send(ctx, session.ID, text)
	r.logger.Info("reply_routed",
		logging.F("channel", channel),
		logging.F("session_id", session.ID),
		logging.F("delivered", delivered),
	)
	if !delivered {
		return fmt.Sprintf("Could not deliver to %s.", daemon.FormatLine(session))
	}
	return fmt.Sprintf("Sent to %s.", daemon.FormatLine(session))
}

func splitAddressed(text string) (prefix, body string) {
	if !strings.HasPrefix(text, "@") {
		return "", text
	}
	rest := strings.TrimPrefix(text, "@")
	parts := strings.SplitN(rest, " ", 2)
	prefix = strings.TrimSpace(parts[0])
	if prefix == "" {
		return "", text
	}
	if len(parts) > 1 {
		body = strings.TrimSpace(parts[1])
	}
	return prefix, body
}
