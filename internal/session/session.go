package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/overlay"
	"github.com/figure-editor/backend/internal/schedule"
	"github.com/figure-editor/backend/internal/undo"
)

// Session is one open figure with its undo history and overlay state.
// Everything it owns is single-threaded; Manager.Do serialises access.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	lastAccessed time.Time
	sched        *schedule.Scheduler

	Figure    *figure.Figure
	Undo      *undo.Manager
	Overlay   *overlay.Sync
	Clipboard *figure.Clipboard

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
	closed  bool
	cancels []func()
}

func newSession(id string, opts Options) *Session {
	sched := schedule.New(opts.Clock)
	fig := figure.New(figure.Options{
		Scheduler:      sched,
		SelectionDelay: opts.SelectionDelay,
		DefaultBaseURL: opts.ImageBaseURL,
		MaxImagePixels: opts.MaxImagePixels,
	})
	now := sched.Clock().Now()
	s := &Session{
		ID:           id,
		CreatedAt:    now,
		lastAccessed: now,
		sched:        sched,
		Figure:       fig,
		Undo:         undo.New(fig, opts.UndoDelay),
		Overlay:      overlay.New(fig),
		subs:         make(map[int]chan Event),
	}
	s.wire()
	return s
}

// Scheduler returns the session's deferred-task queue.
func (s *Session) Scheduler() *schedule.Scheduler { return s.sched }

// Panel returns the panel with the given key.
func (s *Session) Panel(key int64) (*figure.Panel, error) {
	p := s.Figure.Panels().ByKey(key)
	if p == nil {
		return nil, fmt.Errorf("panel %d: %w", key, figure.ErrPanelNotFound)
	}
	return p, nil
}

// Open replaces the figure with a stored document. History is cleared
// before the new panels load.
func (s *Session) Open(ctx context.Context, store figure.Persistence, fileID string) error {
	fmt.Printf("[Session %s] Opening figure %s\n", shortID(s.ID), fileID)
	if err := s.Undo.Replace(func() error {
		return s.Figure.Load(ctx, store, fileID)
	}); err != nil {
		fmt.Printf("[Session %s] ERROR opening figure %s: %v\n", shortID(s.ID), fileID, err)
		return err
	}
	fmt.Printf("[Session %s] Opened figure %s: %d panels\n", shortID(s.ID), fileID, s.Figure.Panels().Len())
	return nil
}

// New starts an empty figure.
func (s *Session) New() {
	_ = s.Undo.Replace(func() error {
		s.Figure.Reset()
		return nil
	})
}

// Save stores the figure and returns its file id.
func (s *Session) Save(ctx context.Context, store figure.Persistence) (string, error) {
	s.Undo.Flush()
	id, err := s.Figure.Save(ctx, store)
	if err != nil {
		fmt.Printf("[Session %s] ERROR saving figure: %v\n", shortID(s.ID), err)
		return "", err
	}
	fmt.Printf("[Session %s] Saved figure %s\n", shortID(s.ID), id)
	return id, nil
}

// Paste pastes the session clipboard.
func (s *Session) Paste() (figure.Panels, error) {
	if s.Clipboard == nil {
		return nil, nil
	}
	return s.Figure.Paste(s.Clipboard)
}

// Copy copies the selected panels to the session clipboard.
func (s *Session) Copy() int {
	s.Clipboard = s.Figure.Copy()
	return len(s.Clipboard.Panels)
}

// Info summarises the session.
func (s *Session) Info() models.SessionInfo {
	st := s.Figure.Settings()
	return models.SessionInfo{
		ID:           s.ID,
		FileID:       st.FileID,
		FigureName:   st.FigureName,
		PanelCount:   s.Figure.Panels().Len(),
		Selected:     len(s.Figure.Selected()),
		Unsaved:      st.Unsaved,
		CanUndo:      s.Undo.CanUndo(),
		CanRedo:      s.Undo.CanRedo(),
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.lastAccessed,
	}
}

// View returns the full client state.
func (s *Session) View() FigureView {
	all := s.Figure.Panels().All()
	panels := make([]PanelView, len(all))
	for i, p := range all {
		panels[i] = s.panelView(p)
	}
	return FigureView{
		Session:  s.Info(),
		Settings: s.Figure.Settings(),
		Panels:   panels,
		History:  s.Undo.State(),
		Overlay:  s.Overlay.Snapshot(),
	}
}

// PanelView returns the client view of one panel.
func (s *Session) PanelView(p *figure.Panel) PanelView {
	return s.panelView(p)
}

// runDue runs deferred tasks that are due. Callers hold s.mu.
func (s *Session) runDue() int {
	return s.sched.RunDue()
}

// close detaches every component and ends all subscriptions.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sched.Flush()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.Overlay.Close()
	s.Undo.Close()
	s.closeSubscribers()
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
