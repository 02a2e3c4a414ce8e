package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/figure-editor/backend/internal/geometry"
	"github.com/figure-editor/backend/internal/schedule"
	"github.com/figure-editor/backend/internal/storage"
	"github.com/figure-editor/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	*Manager
	clock *schedule.ManualClock
	store *testutil.MockStorage
}

func newHarness(t *testing.T, maxSessions int) *harness {
	t.Helper()
	clock := schedule.NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store := testutil.NewMockStorage()
	m := NewManager(Options{
		Store:       storage.Documents{Store: store},
		Images:      testutil.NewImages(testutil.Image(1, 512, 512)),
		Clock:       clock,
		MaxSessions: maxSessions,
	})
	t.Cleanup(m.Shutdown)
	return &harness{Manager: m, clock: clock, store: store}
}

func addPanel(t *testing.T, s *Session) {
	t.Helper()
	img := testutil.Image(1, 512, 512)
	_, err := s.Figure.AddImage(&img, geometry.Rect{X: 10, Y: 20, Width: 100, Height: 100})
	require.NoError(t, err)
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func hasEvent(events []Event, typ string) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestCreateAndGet(t *testing.T) {
	h := newHarness(t, 0)

	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, h.Len())

	got, ok := h.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 0, got.Figure.Panels().Len())

	_, ok = h.Get("missing")
	assert.False(t, ok)
}

func TestDoUnknownSession(t *testing.T) {
	h := newHarness(t, 0)
	err := h.Do("missing", func(*Session) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDoPropagatesError(t *testing.T) {
	h := newHarness(t, 0)
	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.Equal(t, boom, h.Do(s.ID, func(*Session) error { return boom }))
}

func TestSaveAndReopen(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	s, err := h.Create(ctx, "")
	require.NoError(t, err)

	var id string
	require.NoError(t, h.Do(s.ID, func(s *Session) error {
		addPanel(t, s)
		s.Figure.SetName("Saved")
		id, err = s.Save(ctx, h.Store())
		return err
	}))
	require.NotEmpty(t, id)
	assert.Equal(t, 1, h.store.GetFigureCount())

	reopened, err := h.Create(ctx, id)
	require.NoError(t, err)
	require.NoError(t, h.Do(reopened.ID, func(s *Session) error {
		assert.Equal(t, 1, s.Figure.Panels().Len())
		assert.Equal(t, "Saved", s.Figure.Settings().FigureName)
		assert.Equal(t, id, s.Figure.Settings().FileID)
		assert.False(t, s.Figure.Settings().Unsaved)
		assert.False(t, s.Undo.CanUndo())
		return nil
	}))
}

func TestCreateMissingFigure(t *testing.T) {
	h := newHarness(t, 0)
	_, err := h.Create(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.Equal(t, 0, h.Len())
}

func TestSaveFailureKeepsUnsaved(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	s, err := h.Create(ctx, "")
	require.NoError(t, err)

	h.store.SaveErr = errors.New("disk full")
	err = h.Do(s.ID, func(s *Session) error {
		addPanel(t, s)
		_, err := s.Save(ctx, h.Store())
		return err
	})
	require.Error(t, err)
	require.NoError(t, h.Do(s.ID, func(s *Session) error {
		assert.True(t, s.Figure.Settings().Unsaved)
		return nil
	}))
}

func TestNewClearsHistory(t *testing.T) {
	h := newHarness(t, 0)
	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, h.Do(s.ID, func(s *Session) error {
		addPanel(t, s)
		require.True(t, s.Undo.CanUndo())
		s.New()
		assert.Equal(t, 0, s.Figure.Panels().Len())
		assert.False(t, s.Undo.CanUndo())
		assert.False(t, s.Undo.CanRedo())
		return nil
	}))
}

func TestCopyPasteUsesSessionClipboard(t *testing.T) {
	h := newHarness(t, 0)
	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, h.Do(s.ID, func(s *Session) error {
		pasted, err := s.Paste()
		require.NoError(t, err)
		assert.Empty(t, pasted)

		addPanel(t, s)
		assert.Equal(t, 1, s.Copy())
		pasted, err = s.Paste()
		require.NoError(t, err)
		assert.Len(t, pasted, 1)
		assert.Equal(t, 2, s.Figure.Panels().Len())
		return nil
	}))
}

func TestTickDeliversDeferredSelection(t *testing.T) {
	h := newHarness(t, 0)
	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)

	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, h.Do(s.ID, func(s *Session) error {
		addPanel(t, s)
		return nil
	}))
	before := drain(events)
	assert.True(t, hasEvent(before, EventPanelAdded))
	assert.False(t, hasEvent(before, EventSelection))

	h.clock.Advance(time.Second)
	assert.Greater(t, h.Tick(), 0)
	assert.True(t, hasEvent(drain(events), EventSelection))
	assert.Equal(t, 0, h.Tick())
}

func TestCloseEndsSubscriptions(t *testing.T) {
	h := newHarness(t, 0)
	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)

	events, _ := s.Subscribe()
	require.NoError(t, h.Close(s.ID))

	got := drain(events)
	require.NotEmpty(t, got)
	assert.Equal(t, EventClosed, got[len(got)-1].Type)
	_, ok := <-events
	assert.False(t, ok)

	assert.True(t, errors.Is(h.Close(s.ID), ErrNotFound))

	late, _ := s.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestEvictsOldestSavedSessionAtCapacity(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	first, err := h.Create(ctx, "")
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	second, err := h.Create(ctx, "")
	require.NoError(t, err)
	h.clock.Advance(time.Minute)

	// first is older but has unsaved changes
	require.NoError(t, h.Do(first.ID, func(s *Session) error {
		addPanel(t, s)
		return nil
	}))

	third, err := h.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	_, ok := h.Get(second.ID)
	assert.False(t, ok)
	_, ok = h.Get(first.ID)
	assert.True(t, ok)

	require.NoError(t, h.Do(third.ID, func(s *Session) error {
		addPanel(t, s)
		return nil
	}))
	_, err = h.Create(ctx, "")
	assert.True(t, errors.Is(err, ErrTooManySessions))
}

func TestCleanupOldSessions(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	idle, err := h.Create(ctx, "")
	require.NoError(t, err)
	h.clock.Advance(SessionMaxAge + time.Minute)
	active, err := h.Create(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, 1, h.CleanupOldSessions(SessionMaxAge))
	_, ok := h.Get(idle.ID)
	assert.False(t, ok)
	_, ok = h.Get(active.ID)
	assert.True(t, ok)

	// a short maxAge never removes sessions inside the keep-alive window
	h.clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, h.CleanupOldSessions(time.Minute))
}

func TestListMostRecentFirst(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	a, err := h.Create(ctx, "")
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	b, err := h.Create(ctx, "")
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	require.NoError(t, h.Do(a.ID, func(s *Session) error {
		addPanel(t, s)
		return nil
	}))

	list := h.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, 1, list[0].PanelCount)
	assert.True(t, list[0].Unsaved)
	assert.True(t, list[0].CanUndo)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestView(t *testing.T) {
	h := newHarness(t, 0)
	s, err := h.Create(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, h.Do(s.ID, func(s *Session) error {
		addPanel(t, s)
		v := s.View()
		require.Len(t, v.Panels, 1)
		assert.True(t, v.Panels[0].Selected)
		assert.NotEmpty(t, v.Panels[0].ImageURL)
		assert.Equal(t, s.ID, v.Session.ID)
		assert.True(t, v.History.CanUndo)
		require.Len(t, v.Overlay.Proxies, 1)
		return nil
	}))
}

func TestConcurrentCreateRespectsCapacity(t *testing.T) {
	h := newHarness(t, 3)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Create(context.Background(), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, h.Len())
}
