package daemon

import (
	"fmt"
	"path/filepath"
	"strings"

	"beacon/internal/sanitize"
	"beacon/internal/types"
)

const shortIDLen = 8

// AmbiguousMatchError reports a prefix shared by more than one session id.
// Matches carries the full candidate list so callers can show it to the
// user instead of guessing.
type AmbiguousMatchError struct {
	Prefix  string
	Matches []*types.Session
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("session prefix %q matches %d sessions", e.Prefix, len(e.Matches))
}

// Resolver is the read-side query layer over the registry. All
// reply-routing callers resolve sessions through it.
type Resolver struct {
	registry *Registry
}

func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// FindByID resolves an exact session id, or a prefix of one. A prefix
// matching several ids returns an AmbiguousMatchError rather than a pick.
func (r *Resolver) FindByID(idOrPrefix string) (*types.Session, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, ErrSessionNotFound
	}
	if session, ok := r.registry.Get(idOrPrefix); ok {
		return session, nil
	}
	var matches []*types.Session
	for _, session := range r.registry.List() {
		if strings.HasPrefix(session.ID, idOrPrefix) {
			matches = append(matches, session)
		}
	}
	switch len(matches) {
	case 0:
		return nil, ErrSessionNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousMatchError{Prefix: idOrPrefix, Matches: matches}
	}
}

// FindTarget picks the session an unaddressed reply should go to: the most
// recently active waiting session if any session is waiting, otherwise the
// most recently active session. Replies go to whoever is asking.
func (r *Resolver) FindTarget() (*types.Session, bool) {
	sessions := r.registry.List()
	for _, session := range sessions {
		if session.Status == types.SessionStatusWaiting {
			return session, true
		}
	}
	for _, session := range sessions {
		if session.Status == types.SessionStatusActive {
			return session, true
		}
	}
	return nil, false
}

func statusGlyph(status types.SessionStatus) string {
	switch status {
	case types.SessionStatusActive:
		return "🟢"
	case types.SessionStatusWaiting:
		return "🟡"
	default:
		return "⚪"
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func sessionLabel(session *types.Session) string {
	if session.Slug != "" {
		return session.Slug
	}
	return filepath.Base(session.WorkingDirectory)
}

// FormatLine renders one session for a chat surface. Session-supplied
// fields are cleaned of escape sequences before display.
func FormatLine(session *types.Session) string {
	line := fmt.Sprintf("%s %s %s", statusGlyph(session.Status), shortID(session.ID), sanitize.Line(sessionLabel(session)))
	if tool := sanitize.Line(session.CurrentTool); tool != "" {
		line += " [" + tool + "]"
	}
	return line
}

// FormatList renders sessions one per line, most recently active first when
// the input came from Registry.List.
func FormatList(sessions []*types.Session) string {
	if len(sessions) == 0 {
		return "No sessions."
	}
	lines := make([]string, 0, len(sessions))
	for _, session := range sessions {
		lines = append(lines, FormatLine(session))
	}
	return strings.Join(lines, "\n")
}

// FormatAmbiguous renders the candidates for an ambiguous prefix so the
// user can reply with a longer one.
func FormatAmbiguous(prefix string, matches []*types.Session) string {
	return fmt.Sprintf("Multiple sessions match %q:\n%s", prefix, FormatList(matches))
}
