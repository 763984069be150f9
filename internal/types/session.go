package types

import "time"

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusWaiting SessionStatus = "waiting"
	SessionStatusStopped SessionStatus = "stopped"
)

// Session is one external coding-assistant process being monitored. The
// registry key equals ID; the external process assigns it.
type Session struct {
	ID               string         `json:"id"`
	WorkingDirectory string         `json:"working_directory"`
	Status           SessionStatus  `json:"status"`
	StartTime        int64          `json:"start_time"`
	LastActivity     int64          `json:"last_activity"`
	CurrentTool      string         `json:"current_tool,omitempty"`
	LastNotification string         `json:"last_notification,omitempty"`
	Question         string         `json:"question,omitempty"`
	Options          []PromptOption `json:"options,omitempty"`
	Slug             string         `json:"slug,omitempty"`
}

// PromptOption is one selectable reply offered by the external process.
type PromptOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// UnknownWorkingDirectory is the sentinel used until an event carries the
// real working directory.
const UnknownWorkingDirectory = "Unknown"

// SessionPatch carries optional field updates. Nil fields are left alone.
type SessionPatch struct {
	WorkingDirectory *string
	Status           *SessionStatus
	CurrentTool      *string
	LastNotification *string
	Question         *string
	Options          *[]PromptOption
	Slug             *string
}

func CloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Options != nil {
		out.Options = append([]PromptOption{}, s.Options...)
	}
	return &out
}

func CloneSessions(sessions []*Session) []*Session {
	out := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, CloneSession(s))
	}
	return out
}

// NowMillis is the timestamp representation used on every session field and
// on the event wire format.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
