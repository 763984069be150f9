package daemon

import (
	"errors"
	"sort"
	"sync"
	"time"

	"beacon/internal/logging"
	"beacon/internal/metrics"
	"beacon/internal/types"
)

var ErrSessionNotFound = errors.New("session not found")

const defaultEvictionGrace = 30 * time.Second

// Registry owns all session state. Every mutation is serialized through it;
// readers always get clones, never live records.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionRecord
	grace    time.Duration
	now      func() int64
	slugs    SlugResolver
	logger   logging.Logger
}

// sessionRecord pairs a session with a generation stamp. Delayed eviction
// captures the generation at schedule time and only deletes if it still
// matches, so a session re-created during the grace window survives the
// stale timer.
type sessionRecord struct {
	session    *types.Session
	generation uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*sessionRecord),
		grace:    defaultEvictionGrace,
		now:      types.NowMillis,
		logger:   logging.Nop(),
	}
}

func (r *Registry) SetLogger(logger logging.Logger) {
	if r == nil {
		return
	}
	if logger == nil {
		logger = logging.Nop()
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

func (r *Registry) SetSlugResolver(slugs SlugResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slugs = slugs
}

func (r *Registry) SetEvictionGrace(grace time.Duration) {
	if grace <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grace = grace
}

// SetClock replaces the timestamp source. Tests use it to drive
// lastActivity deterministically.
func (r *Registry) SetClock(now func() int64) {
	if now == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Registry) Get(id string) (*types.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return types.CloneSession(record.session), true
}

// List returns all sessions sorted by lastActivity, most recent first.
func (r *Registry) List() []*types.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Session, 0, len(r.sessions))
	for _, record := range r.sessions {
		out = append(out, types.CloneSession(record.session))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity != out[j].LastActivity {
			return out[i].LastActivity > out[j].LastActivity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Create(id, workingDirectory string) *types.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.createLocked(id, workingDirectory)
	r.resolveSlugLocked(record)
	return types.CloneSession(record.session)
}

// Update applies the non-nil fields of patch and touches lastActivity.
func (r *Registry) Update(id string, patch types.SessionPatch) (*types.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	applyPatch(record.session, patch)
	r.touchLocked(record.session)
	return types.CloneSession(record.session), true
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	metrics.SetSessionsLive(len(r.sessions))
	return true
}

// Ensure returns the session for id, creating it with an unknown working
// directory if absent.
func (r *Registry) Ensure(id string) *types.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.sessions[id]; ok {
		return types.CloneSession(record.session)
	}
	return types.CloneSession(r.createLocked(id, types.UnknownWorkingDirectory).session)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Process applies one event to the registry and returns the resulting
// session snapshot. Events for unknown sessions are no-ops except
// SessionStart, which creates. Data-shape problems never error here; the
// payload was already normalized at the ingestion boundary.
func (r *Registry) Process(event types.Event) (*types.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.sessions[event.SessionID]
	if ok {
		r.backfillLocked(record, event.Payload)
	}

	switch event.Type {
	case types.EventSessionStart:
		record = r.createLocked(event.SessionID, event.Payload.WorkingDirectory)
		r.resolveSlugLocked(record)
	case types.EventSessionEnd:
		if !ok {
			return nil, false
		}
		record.session.Status = types.SessionStatusStopped
		r.touchLocked(record.session)
		r.scheduleEvictionLocked(event.SessionID, record.generation)
	case types.EventPreToolUse:
		if !ok {
			return nil, false
		}
		record.session.Status = types.SessionStatusActive
		record.session.CurrentTool = event.Payload.ToolName
		clearPrompt(record.session)
		r.touchLocked(record.session)
	case types.EventPostToolUse:
		if !ok {
			return nil, false
		}
		record.session.Status = types.SessionStatusActive
		record.session.CurrentTool = ""
		clearPrompt(record.session)
		r.touchLocked(record.session)
	case types.EventNotification:
		if !ok {
			return nil, false
		}
		record.session.Status = types.SessionStatusWaiting
		record.session.LastNotification = event.Payload.NotificationText()
		record.session.Question = event.Payload.QuestionText()
		record.session.Options = event.Payload.Options
		r.touchLocked(record.session)
	case types.EventStop:
		if !ok {
			return nil, false
		}
		record.session.Status = types.SessionStatusStopped
		record.session.CurrentTool = ""
		r.touchLocked(record.session)
		r.scheduleEvictionLocked(event.SessionID, record.generation)
	default:
		if !ok {
			return nil, false
		}
	}
	return types.CloneSession(record.session), true
}

// createLocked installs a fresh active session under id, bumping the
// generation when one already exists. lastActivity stays monotonic across
// re-creation.
func (r *Registry) createLocked(id, workingDirectory string) *sessionRecord {
	if workingDirectory == "" {
		workingDirectory = types.UnknownWorkingDirectory
	}
	now := r.now()
	session := &types.Session{
		ID:               id,
		WorkingDirectory: workingDirectory,
		Status:           types.SessionStatusActive,
		StartTime:        now,
		LastActivity:     now,
	}
	generation := uint64(1)
	if existing, ok := r.sessions[id]; ok {
		generation = existing.generation + 1
		if existing.session.LastActivity > session.LastActivity {
			session.LastActivity = existing.session.LastActivity
		}
	}
	record := &sessionRecord{session: session, generation: generation}
	r.sessions[id] = record
	metrics.SetSessionsLive(len(r.sessions))
	return record
}

// backfillLocked fills fields the session was created without: the working
// directory once an event carries one, and the slug once session metadata
// can name it.
func (r *Registry) backfillLocked(record *sessionRecord, payload types.EventPayload) {
	if record.session.WorkingDirectory == types.UnknownWorkingDirectory && payload.WorkingDirectory != "" {
		record.session.WorkingDirectory = payload.WorkingDirectory
	}
	r.resolveSlugLocked(record)
}

// resolveSlugLocked resolves the slug once; after the first non-empty
// result it is never re-queried.
func (r *Registry) resolveSlugLocked(record *sessionRecord) {
	if record.session.Slug != "" || r.slugs == nil {
		return
	}
	if slug := r.slugs.Slug(record.session.ID, record.session.WorkingDirectory); slug != "" {
		record.session.Slug = slug
	}
}

// touchLocked advances lastActivity, never rewinding it.
func (r *Registry) touchLocked(s *types.Session) {
	if now := r.now(); now > s.LastActivity {
		s.LastActivity = now
	}
}

func (r *Registry) scheduleEvictionLocked(id string, generation uint64) {
	time.AfterFunc(r.grace, func() {
		r.evict(id, generation)
	})
}

// evict removes a stopped session after its grace window. The generation
// must still match and the session must still be stopped; either a restart
// or a later event cancels the eviction implicitly.
func (r *Registry) evict(id string, generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.sessions[id]
	if !ok || record.generation != generation {
		return
	}
	if record.session.Status != types.SessionStatusStopped {
		return
	}
	delete(r.sessions, id)
	metrics.SetSessionsLive(len(r.sessions))
	r.logger.Debug("session_evicted", logging.F("session_id", id))
}

func applyPatch(s *types.Session, patch types.SessionPatch) {
	if patch.WorkingDirectory != nil {
		s.WorkingDirectory = *patch.WorkingDirectory
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.CurrentTool != nil {
		s.CurrentTool = *patch.CurrentTool
	}
	if patch.LastNotification != nil {
		s.LastNotification = *patch.LastNotification
	}
	if patch.Question != nil {
		s.Question = *patch.Question
	}
	if patch.Options != nil {
		s.Options = append([]types.PromptOption{}, (*patch.Options)...)
	}
	if patch.Slug != nil {
		s.Slug = *patch.Slug
	}
}

func clearPrompt(s *types.Session) {
	s.Question = ""
	s.Options = nil
	s.LastNotification = ""
}
