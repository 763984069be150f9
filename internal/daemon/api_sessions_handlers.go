package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"beacon/internal/logging"
)

// resolveError maps resolver failures onto service errors so the HTTP
// layer renders them as 404/409.
func resolveError(err error) error {
	var ambiguous *AmbiguousMatchError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return notFoundError("session not found", err)
	case errors.As(err, &ambiguous):
		return conflictError(ambiguous.Error(), err)
	default:
		return err
	}
}

func (a *API) Sessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": a.Registry.List()})
}

func (a *API) SessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			session, err := a.Resolver.FindByID(id)
			if err != nil {
				writeServiceError(w, resolveError(err))
				return
			}
			writeJSON(w, http.StatusOK, session)
		case http.MethodDelete:
			if !a.Registry.Remove(id) {
				writeServiceError(w, notFoundError("session not found", ErrSessionNotFound))
				return
			}
			if a.Refresher != nil {
				a.Refresher.OnSessionsChanged()
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}
		return
	}

	switch parts[1] {
	case "send":
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req SendInputRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeServiceError(w, invalidError("text is required", nil))
			return
		}
		session, err := a.Resolver.FindByID(id)
		if err != nil {
			writeServiceError(w, resolveError(err))
			return
		}
		delivered := a.Delivery.Send(r.Context(), session.ID, req.Text)
		if a.Logger != nil {
			a.Logger.Info("send_input",
				logging.F("session_id", session.ID),
				logging.F("delivered", delivered),
			)
		}
		writeJSON(w, http.StatusOK, SendInputResponse{Delivered: delivered})
	case "input":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if isPeekRequest(r) {
			writeJSON(w, http.StatusOK, PendingInputResponse{Pending: a.Delivery.HasPending(id)})
			return
		}
		text, ok := a.Delivery.ReadPending(id)
		writeJSON(w, http.StatusOK, PendingInputResponse{Input: text, Pending: ok})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (a *API) Target(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	session, ok := a.Resolver.FindTarget()
	if !ok {
		writeServiceError(w, notFoundError("no session is waiting or active", ErrSessionNotFound))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) Reply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.Replies == nil {
		writeServiceError(w, unavailableError("reply routing is not configured", nil))
		return
	}
	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeServiceError(w, invalidError("text is required", nil))
		return
	}
	message := a.Replies.HandleReply(r.Context(), req.Text, req.Channel)
	writeJSON(w, http.StatusOK, ReplyResponse{Message: message})
}
