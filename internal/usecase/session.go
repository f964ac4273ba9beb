package usecase

import (
	"errors"
	"sync"
	"time"

	"MarketDash/internal/domain/models"
	"MarketDash/internal/services/shaping"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// ViewState is the per-session dashboard state. Every analyse action takes a
// new sequence number; updates carrying an older number are discarded so a
// late decision for a previously selected symbol never overwrites the current one.
type ViewState struct {
	mu        sync.Mutex
	id        string
	seq       uint64
	symbol    string
	loading   bool
	elapsed   int
	fromCache bool
	slowHint  bool
	err       string
	decision  *models.DecisionSummary
	touched   time.Time
}

// Begin selects symbol, clears the previous decision and returns the sequence
// that later updates must present.
func (s *ViewState) Begin(symbol string, now time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.symbol = symbol
	s.loading = true
	s.elapsed = 0
	s.fromCache = false
	s.slowHint = false
	s.err = ""
	s.decision = nil
	s.touched = now
	return s.seq
}

// Tick records elapsed seconds for an in-flight request.
func (s *ViewState) Tick(seq uint64, elapsed int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || !s.loading {
		return false
	}
	s.elapsed = elapsed
	return true
}

// Complete applies a finished analysis.
func (s *ViewState) Complete(seq uint64, view models.AnalysisView, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	d := view.Decision
	s.decision = &d
	s.loading = false
	s.elapsed = view.Elapsed
	s.fromCache = view.FromCache
	s.slowHint = view.SlowHint
	s.err = ""
	s.touched = now
	return true
}

// Fail records a failed analysis.
func (s *ViewState) Fail(seq uint64, err error, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.loading = false
	s.err = err.Error()
	s.touched = now
	return true
}

// Snapshot returns a copy safe to serialise.
func (s *ViewState) Snapshot() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := models.SessionView{
		ID:        s.id,
		Symbol:    s.symbol,
		Loading:   s.loading,
		Elapsed:   s.elapsed,
		FromCache: s.fromCache,
		SlowHint:  s.slowHint,
		Error:     s.err,
		Decision:  s.decision,
	}
	if s.loading || s.elapsed > 0 {
		v.ElapsedLabel = shaping.FormatElapsed(s.elapsed)
	}
	return v
}

func (s *ViewState) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// SessionStore keeps one ViewState per dashboard session.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*ViewState
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{sessions: make(map[string]*ViewState), ttl: ttl, now: time.Now}
}

// Acquire returns the session for id. Empty or unknown ids get a new session
// under a freshly minted id; client-chosen ids never become keys.
func (st *SessionStore) Acquire(id string) *ViewState {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := &ViewState{id: uuid.NewString(), touched: st.now()}
	st.sessions[s.id] = s
	return s
}

// Get returns an existing session.
func (st *SessionStore) Get(id string) (*ViewState, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Sweep drops sessions idle past the ttl and returns how many remain.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) && !s.Snapshot().Loading {
			delete(st.sessions, id)
		}
	}
	return len(st.sessions)
}

// ID returns the session identifier.
func (s *ViewState) ID() string { return s.id }
