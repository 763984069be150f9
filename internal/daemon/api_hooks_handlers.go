package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"

	"beacon/internal/logging"
	"beacon/internal/metrics"
	"beacon/internal/types"
)

// Hooks is the webhook surface: one lifecycle event per POST, the event
// type carried in the final path segment.
func (a *API) Hooks(w http.ResponseWriter, r *http.Request) {
	// The listener is loopback-only, so the open CORS policy exposes
	// nothing beyond the machine.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		metrics.RecordHookRejection("method")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.RecordHookRejection("body_read")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		metrics.RecordHookRejection("bad_json")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	eventType, ok := types.ParseEventType(path.Base(r.URL.Path))
	if !ok {
		metrics.RecordHookRejection("hook_type")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid hook type"})
		return
	}

	payload := types.ParsePayload(raw)
	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = "unknown"
	}
	event := types.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: types.NowMillis(),
		Payload:   payload,
	}

	a.Registry.Ensure(sessionID)
	session, _ := a.Registry.Process(event)
	metrics.RecordHookEvent(string(eventType))
	if a.Logger != nil && a.Logger.Enabled(logging.Debug) {
		a.Logger.Debug("hook_event",
			logging.F("type", string(eventType)),
			logging.F("session_id", sessionID),
			logging.F("event_id", event.ID),
			logging.F("bytes", len(body)),
		)
	}

	a.notifyCollaborators(event, session)

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// notifyCollaborators tells the live view the snapshot changed and fans
// out user-facing notifications for the event kinds that warrant one.
// Runs with a background context; the side effects outlive the hook
// response.
func (a *API) notifyCollaborators(event types.Event, session *types.Session) {
	if a.Refresher != nil {
		a.Refresher.OnSessionsChanged()
	}
	if a.Notifier == nil || session == nil {
		return
	}
	ctx := context.Background()
	switch event.Type {
	case types.EventNotification:
		a.Notifier.SessionWaiting(ctx, session)
	case types.EventStop:
		a.Notifier.SessionStopped(ctx, session, event.Payload.Reason)
	case types.EventSessionEnd:
		a.Notifier.SessionEnded(ctx, session)
	}
}
