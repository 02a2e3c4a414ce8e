package session

import (
	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/models"
	"github.com/figure-editor/backend/internal/overlay"
	"github.com/figure-editor/backend/internal/undo"
)

// Event types pushed to session subscribers.
const (
	EventPanelChanged   = "panel.changed"
	EventPanelAdded     = "panel.added"
	EventPanelRemoved   = "panel.removed"
	EventSelection      = "selection"
	EventSettings       = "settings"
	EventDragMoved      = "drag"
	EventHistory        = "history"
	EventOverlayProxy   = "overlay.proxy"
	EventOverlayMulti   = "overlay.multi"
	EventOverlayRemoved = "overlay.removed"
	EventClosed         = "closed"
)

// eventBuffer is the capacity of a subscriber channel. Events that do not
// fit are dropped for that subscriber.
const eventBuffer = 256

// Event is one notification of a session.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// PanelView is the client view of a panel.
type PanelView struct {
	Key      int64             `json:"key"`
	Selected bool              `json:"selected"`
	ImageURL string            `json:"imageUrl,omitempty"`
	Attrs    models.PanelAttrs `json:"attrs"`
}

// PanelChange reports changed fields of a panel.
type PanelChange struct {
	PanelView
	Fields []figure.Field `json:"fields"`
}

// PanelMembership reports a panel entering or leaving the figure.
type PanelMembership struct {
	Key   int64      `json:"key"`
	Index int        `json:"index"`
	Panel *PanelView `json:"panel,omitempty"`
}

// FigureView is the complete client state of a session.
type FigureView struct {
	Session  models.SessionInfo `json:"session"`
	Settings figure.Settings    `json:"settings"`
	Panels   []PanelView        `json:"panels"`
	History  undo.State         `json:"history"`
	Overlay  overlay.Snapshot   `json:"overlay"`
}

func (s *Session) panelView(p *figure.Panel) PanelView {
	return PanelView{
		Key:      p.Key(),
		Selected: p.Selected(),
		ImageURL: s.Figure.ImageURL(p),
		Attrs:    p.Attrs(),
	}
}

// wire forwards the signals of the session's components as events.
func (s *Session) wire() {
	panels := s.Figure.Panels()
	s.cancels = append(s.cancels,
		panels.Changed.Subscribe(func(c figure.Change) {
			s.publish(EventPanelChanged, PanelChange{PanelView: s.panelView(c.Panel), Fields: c.Fields})
		}),
		panels.Added.Subscribe(func(m figure.Membership) {
			v := s.panelView(m.Panel)
			s.publish(EventPanelAdded, PanelMembership{Key: m.Panel.Key(), Index: m.Index, Panel: &v})
		}),
		panels.Removed.Subscribe(func(m figure.Membership) {
			s.publish(EventPanelRemoved, PanelMembership{Key: m.Panel.Key(), Index: m.Index})
		}),
		s.Figure.SelectionChanged.Subscribe(func(sel figure.Panels) {
			s.publish(EventSelection, sel.Keys())
		}),
		s.Figure.SettingsChanged.Subscribe(func(c figure.SettingsChange) {
			s.publish(EventSettings, c.Next)
		}),
		s.Figure.DragMoved.Subscribe(func(e figure.DragEvent) {
			s.publish(EventDragMoved, e)
		}),
		s.Undo.Changed.Subscribe(func(st undo.State) {
			s.publish(EventHistory, st)
		}),
		s.Overlay.Updated.Subscribe(func(p overlay.Proxy) {
			s.publish(EventOverlayProxy, p)
		}),
		s.Overlay.MultiUpdated.Subscribe(func(m overlay.MultiProxy) {
			s.publish(EventOverlayMulti, m)
		}),
		s.Overlay.Removed.Subscribe(func(key int64) {
			s.publish(EventOverlayRemoved, key)
		}),
	)
}

// Subscribe returns a channel receiving the session's events and a function
// that ends the subscription. The channel is closed when either the
// subscription or the session ends.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Event, eventBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) publish(typ string, payload any) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ev := Event{Type: typ, Payload: payload}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// closeSubscribers ends every subscription with a final closed event.
func (s *Session) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.closed = true
	for id, ch := range s.subs {
		select {
		case ch <- Event{Type: EventClosed}:
		default:
		}
		close(ch)
		delete(s.subs, id)
	}
}
