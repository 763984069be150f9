package types

type NotificationKind string

const (
	NotificationKindWaiting NotificationKind = "session.waiting"
	NotificationKindStopped NotificationKind = "session.stopped"
	NotificationKindEnded   NotificationKind = "session.ended"
)

// Notification is the channel-independent payload handed to every fan-out
// sender. Channel wire formats are the sender's problem.
type Notification struct {
	Kind             NotificationKind `json:"kind"`
	SessionID        string           `json:"session_id"`
	Slug             string           `json:"slug,omitempty"`
	WorkingDirectory string           `json:"working_directory,omitempty"`
	Text             string           `json:"text"`
	Question         string           `json:"question,omitempty"`
	Options          []PromptOption   `json:"options,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	OccurredAt       int64            `json:"occurred_at"`
}
