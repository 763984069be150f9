package types

import (
	"fmt"
	"strconv"
	"strings"
)

type EventType string

const (
	EventSessionStart EventType = "SessionStart"
	EventSessionEnd   EventType = "SessionEnd"
	EventPreToolUse   EventType = "PreToolUse"
	EventPostToolUse  EventType = "PostToolUse"
	EventNotification EventType = "Notification"
	EventStop         EventType = "Stop"
)

// ParseEventType matches raw against the recognized hook kinds.
func ParseEventType(raw string) (EventType, bool) {
	switch EventType(strings.TrimSpace(raw)) {
	case EventSessionStart:
		return EventSessionStart, true
	case EventSessionEnd:
		return EventSessionEnd, true
	case EventPreToolUse:
		return EventPreToolUse, true
	case EventPostToolUse:
		return EventPostToolUse, true
	case EventNotification:
		return EventNotification, true
	case EventStop:
		return EventStop, true
	default:
		return "", false
	}
}

// Event is the canonical representation of one webhook delivery.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	SessionID string       `json:"session_id"`
	Timestamp int64        `json:"timestamp"`
	Payload   EventPayload `json:"payload"`
}

// EventPayload holds the recognized fields of a webhook body. Hooks send
// loose JSON; the ingestion boundary parses it into this struct once and
// nothing downstream touches raw maps. Absent fields stay zero.
type EventPayload struct {
	SessionID        string
	ToolName         string
	ToolOutput       string
	Message          string
	Title            string
	Body             string
	Text             string
	Question         string
	Prompt           string
	WorkingDirectory string
	Reason           string
	Options          []PromptOption
}

const defaultNotificationText = "Waiting for input..."

// NotificationText returns the best available prompt text, preferring
// message over title over body over text.
func (p EventPayload) NotificationText() string {
	for _, candidate := range []string{p.Message, p.Title, p.Body, p.Text} {
		if candidate != "" {
			return candidate
		}
	}
	return defaultNotificationText
}

// QuestionText returns an explicit question or prompt field, falling back
// to the notification text.
func (p EventPayload) QuestionText() string {
	if p.Question != "" {
		return p.Question
	}
	if p.Prompt != "" {
		return p.Prompt
	}
	return p.NotificationText()
}

// ParsePayload extracts the recognized fields from a decoded JSON body.
// Malformed or unexpected shapes degrade to zero values, never an error.
func ParsePayload(raw map[string]any) EventPayload {
	if raw == nil {
		return EventPayload{}
	}
	p := EventPayload{
		SessionID:        stringField(raw, "session_id"),
		ToolName:         stringField(raw, "tool_name"),
		ToolOutput:       stringField(raw, "tool_output"),
		Message:          stringField(raw, "message"),
		Title:            stringField(raw, "title"),
		Body:             stringField(raw, "body"),
		Text:             stringField(raw, "text"),
		Question:         stringField(raw, "question"),
		Prompt:           stringField(raw, "prompt"),
		WorkingDirectory: stringField(raw, "working_directory"),
		Reason:           stringField(raw, "reason"),
	}
	if p.SessionID == "" {
		p.SessionID = stringField(raw, "sessionId")
	}
	p.Options = parseOptions(raw)
	return p
}

// parseOptions reads a selectable-option list from the first of the known
// payload aliases. Entries may be plain strings or objects; the per-field
// alias order below is load-bearing for compatibility with existing hooks.
func parseOptions(raw map[string]any) []PromptOption {
	var entries []any
	for _, key := range []string{"options", "choices", "answers"} {
		if list, ok := raw[key].([]any); ok {
			entries = list
			break
		}
	}
	if len(entries) == 0 {
		return nil
	}
	options := make([]PromptOption, 0, len(entries))
	for i, entry := range entries {
		options = append(options, parseOption(entry, i))
	}
	return options
}

func parseOption(entry any, index int) PromptOption {
	switch v := entry.(type) {
	case string:
		return PromptOption{Label: v, Value: v}
	case map[string]any:
		ordinal := strconv.Itoa(index + 1)
		label := firstStringValue(v, "label", "text", "name")
		if label == "" {
			label = ordinal
		}
		value := firstStringValue(v, "value", "label", "text")
		if value == "" {
			value = ordinal
		}
		return PromptOption{
			Label:       label,
			Value:       value,
			Description: firstStringValue(v, "description"),
		}
	default:
		text := stringify(entry)
		return PromptOption{Label: text, Value: text}
	}
}

func firstStringValue(m map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := m[key]
		if !ok || value == nil {
			continue
		}
		if text := stringify(value); text != "" {
			return text
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
