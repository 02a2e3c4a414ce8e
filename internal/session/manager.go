package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/schedule"
	"github.com/google/uuid"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 10

// SessionMaxAge is how long to keep idle sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
)

// Options configure a Manager.
type Options struct {
	// Store persists figures. Required for Create with a file id and Save.
	Store figure.Persistence
	// Images resolves image ids to metadata.
	Images imagemeta.Provider
	// Clock drives session timers and access times. Defaults to the system clock.
	Clock schedule.Clock

	MaxSessions    int
	ImageBaseURL   string
	MaxImagePixels float64
	SelectionDelay time.Duration
	UndoDelay      time.Duration
}

// Manager handles open editing sessions.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	opts     Options
}

// NewManager creates a new session manager.
func NewManager(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = schedule.SystemClock{}
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = MaxSessions
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Store returns the figure persistence the manager saves to.
func (m *Manager) Store() figure.Persistence { return m.opts.Store }

// Images returns the image metadata provider.
func (m *Manager) Images() imagemeta.Provider { return m.opts.Images }

// Create opens a new session. With a non-empty fileID the stored figure is
// loaded into it, otherwise it starts empty.
func (m *Manager) Create(ctx context.Context, fileID string) (*Session, error) {
	if fileID != "" && m.opts.Store == nil {
		return nil, errors.New("no figure store configured")
	}

	s := newSession(uuid.New().String(), m.opts)
	if fileID != "" {
		s.mu.Lock()
		err := s.Open(ctx, m.opts.Store, fileID)
		s.mu.Unlock()
		if err != nil {
			s.close()
			return nil, err
		}
	}

	// The capacity check and the insert share one critical section so
	// concurrent creates cannot overshoot MaxSessions.
	m.mu.Lock()
	err := m.cleanupOldSessionsIfNeeded()
	if err == nil {
		m.sessions[s.ID] = s
	}
	m.mu.Unlock()
	if err != nil {
		s.close()
		return nil, err
	}

	fmt.Printf("[Session %s] Created (file=%q)\n", shortID(s.ID), fileID)
	return s, nil
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

// Do runs fn with exclusive access to the session. Deferred work that has
// fallen due runs first, so fn always sees settled state.
func (m *Manager) Do(id string, fn func(s *Session) error) error {
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAccessed = m.opts.Clock.Now()
	s.runDue()
	return fn(s)
}

// Tick runs the due deferred tasks of every session and returns how many ran.
func (m *Manager) Tick() int {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	ran := 0
	for _, s := range list {
		s.mu.Lock()
		ran += s.runDue()
		s.mu.Unlock()
	}
	return ran
}

// Close ends a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.close()
	fmt.Printf("[Session %s] Closed\n", shortID(id))
	return nil
}

// List returns every session, most recently used first.
func (m *Manager) List() []models.SessionInfo {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	infos := make([]models.SessionInfo, 0, len(list))
	for _, s := range list {
		s.mu.Lock()
		infos = append(infos, s.Info())
		s.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastAccessed.After(infos[j].LastAccessed)
	})
	return infos
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupOldSessionsIfNeeded frees a slot at capacity by closing the least
// recently used session that has no unsaved changes. Callers hold m.mu.
func (m *Manager) cleanupOldSessionsIfNeeded() error {
	if len(m.sessions) < m.opts.MaxSessions {
		return nil
	}

	var oldest *Session
	var oldestAt time.Time
	for _, s := range m.sessions {
		s.mu.Lock()
		unsaved := s.Figure.Settings().Unsaved
		accessed := s.lastAccessed
		s.mu.Unlock()
		if unsaved {
			continue
		}
		if oldest == nil || accessed.Before(oldestAt) {
			oldest, oldestAt = s, accessed
		}
	}
	if oldest == nil {
		return ErrTooManySessions
	}

	delete(m.sessions, oldest.ID)
	oldest.close()
	fmt.Printf("[Manager] Cleaned up old session %s to free memory\n", shortID(oldest.ID))
	return nil
}

// CleanupOldSessions removes sessions not accessed within maxAge,
// but keeps sessions that have been accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Clock.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		accessed := s.lastAccessed
		s.mu.Unlock()

		// Don't clean up sessions that are actively being used
		if accessed.After(keepAliveCutoff) {
			continue
		}
		if accessed.Before(cutoff) {
			delete(m.sessions, id)
			s.close()
			removed++
			fmt.Printf("[Manager] Cleaned up aged session %s (last accessed: %s ago)\n",
				shortID(id), now.Sub(accessed).Round(time.Second))
		}
	}
	return removed
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	list := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range list {
		s.close()
	}
	fmt.Printf("[Manager] Closed %d sessions\n", len(list))
}
