// Package undo keeps a linear undo/redo history of figure edits.
//
// The Manager observes a figure: attribute changes of its panels and paper
// settings are buffered and sealed into one entry after a short idle period,
// additions and removals of panels become entries immediately. While an entry
// is being applied the Manager ignores the changes it causes itself.
package undo

import (
	"fmt"
	"slices"
	"time"

	"github.com/figure-editor/backend/internal/figure"
	"github.com/figure-editor/backend/internal/schedule"
	"github.com/figure-editor/backend/internal/signal"
)

// DefaultDelay is the idle period that seals a burst of changes.
const DefaultDelay = 10 * time.Millisecond

// Entry is one step of history.
type Entry struct {
	Label string
	Undo  func() error
	Redo  func() error
}

// State describes the position in the history.
type State struct {
	Pointer int  `json:"pointer"`
	Length  int  `json:"length"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// Manager records and replays the edit history of one figure. Like the
// figure it observes, it is not safe for concurrent use.
type Manager struct {
	fig     *figure.Figure
	log     []Entry
	pointer int

	applying bool
	undoFns  []func() error
	redoFns  []func() error
	seal     *schedule.Debouncer
	cancels  []func()

	Changed signal.Signal[State]
}

// New attaches a Manager to fig. Bursts are sealed on the figure's
// scheduler after delay; 0 means DefaultDelay.
func New(fig *figure.Figure, delay time.Duration) *Manager {
	if delay <= 0 {
		delay = DefaultDelay
	}
	m := &Manager{fig: fig, pointer: -1}
	m.seal = schedule.NewDebouncer(fig.Options().Scheduler, delay, m.sealBurst)

	panels := fig.Panels()
	m.cancels = []func(){
		panels.Changed.Subscribe(m.handleChange),
		panels.Added.Subscribe(m.handleAdd),
		panels.Removed.Subscribe(m.handleRemove),
		fig.SettingsChanged.Subscribe(m.handleSettings),
	}
	return m
}

// Close detaches the Manager from its figure and drops any unsealed burst.
func (m *Manager) Close() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	m.seal.Cancel()
	m.undoFns, m.redoFns = nil, nil
}

// State returns the current history position.
func (m *Manager) State() State {
	return State{
		Pointer: m.pointer,
		Length:  len(m.log),
		CanUndo: m.CanUndo(),
		CanRedo: m.CanRedo(),
	}
}

// CanUndo reports whether there is an entry to undo.
func (m *Manager) CanUndo() bool { return m.pointer >= 0 }

// CanRedo reports whether there is an entry to redo.
func (m *Manager) CanRedo() bool { return m.pointer+1 < len(m.log) }

// Applying reports whether an entry is being applied.
func (m *Manager) Applying() bool { return m.applying }

// Record appends e after the current position, discarding any entries that
// could have been redone.
func (m *Manager) Record(e Entry) {
	if len(m.log) > m.pointer+1 {
		m.log = m.log[:m.pointer+1]
	}
	m.log = append(m.log, e)
	m.pointer = len(m.log) - 1
	m.Changed.Emit(m.State())
}

// Undo reverts the entry at the current position. An unsealed burst is
// sealed first. With nothing to undo it does nothing.
func (m *Manager) Undo() error {
	m.Flush()
	if m.pointer < 0 {
		return nil
	}
	e := m.log[m.pointer]
	if err := m.apply(e.Undo); err != nil {
		return fmt.Errorf("undo %s: %w", e.Label, err)
	}
	m.pointer--
	m.Changed.Emit(m.State())
	return nil
}

// Redo re-applies the entry after the current position. With nothing to
// redo it does nothing.
func (m *Manager) Redo() error {
	m.Flush()
	if m.pointer+1 >= len(m.log) {
		return nil
	}
	e := m.log[m.pointer+1]
	if err := m.apply(e.Redo); err != nil {
		return fmt.Errorf("redo %s: %w", e.Label, err)
	}
	m.pointer++
	m.Changed.Emit(m.State())
	return nil
}

// Reset clears the history, including any unsealed burst.
func (m *Manager) Reset() {
	m.seal.Cancel()
	m.undoFns, m.redoFns = nil, nil
	m.log = nil
	m.pointer = -1
	m.Changed.Emit(m.State())
}

// Replace clears the history and runs fn without recording what it changes.
// It is used to switch the figure to another document.
func (m *Manager) Replace(fn func() error) error {
	m.Reset()
	return m.apply(fn)
}

// Flush seals a pending burst immediately. It reports whether there was one.
func (m *Manager) Flush() bool {
	return m.seal.Fire()
}

func (m *Manager) apply(fn func() error) error {
	prev := m.applying
	m.applying = true
	defer func() { m.applying = prev }()
	return fn()
}

func (m *Manager) handleChange(c figure.Change) {
	if m.applying {
		return
	}
	fields := slices.DeleteFunc(slices.Clone(c.Fields), func(f figure.Field) bool {
		return f == figure.FieldSelected || f == figure.FieldID
	})
	if len(fields) == 0 {
		return
	}
	p, prev, next := c.Panel, c.Prev.Clone(), c.Next.Clone()
	m.buffer(
		func() error { return p.RestoreFields(prev, fields) },
		func() error { return p.RestoreFields(next, fields) },
	)
}

func (m *Manager) handleSettings(c figure.SettingsChange) {
	if m.applying || !c.Has(figure.PaperFields...) {
		return
	}
	prev, next := c.Prev, c.Next
	m.buffer(
		func() error { m.fig.RestorePaper(prev); return nil },
		func() error { m.fig.RestorePaper(next); return nil },
	)
}

func (m *Manager) buffer(undo, redo func() error) {
	m.undoFns = append(m.undoFns, undo)
	m.redoFns = append(m.redoFns, redo)
	m.seal.Trigger()
}

// sealBurst turns the buffered changes into one entry. The selection at
// this moment is restored whenever the entry is applied.
func (m *Manager) sealBurst() {
	if len(m.undoFns) == 0 {
		return
	}
	undos, redos := m.undoFns, m.redoFns
	m.undoFns, m.redoFns = nil, nil
	selected := m.fig.Selected()

	m.Record(Entry{
		Label: "edit",
		Undo: func() error {
			for i := len(undos) - 1; i >= 0; i-- {
				if err := undos[i](); err != nil {
					return err
				}
			}
			m.fig.SetSelection(selected)
			return nil
		},
		Redo: func() error {
			for _, fn := range redos {
				if err := fn(); err != nil {
					return err
				}
			}
			m.fig.SetSelection(selected)
			return nil
		},
	})
}

func (m *Manager) handleAdd(ms figure.Membership) {
	if m.applying {
		return
	}
	m.Flush()
	m.Record(Entry{
		Label: "add panel",
		Undo:  m.removeFn(ms.Panel),
		Redo:  m.insertFn(ms.Panel, ms.Index),
	})
}

func (m *Manager) handleRemove(ms figure.Membership) {
	if m.applying {
		return
	}
	m.Flush()
	m.Record(Entry{
		Label: "remove panel",
		Undo:  m.insertFn(ms.Panel, ms.Index),
		Redo:  m.removeFn(ms.Panel),
	})
}

func (m *Manager) insertFn(p *figure.Panel, index int) func() error {
	return func() error {
		m.fig.Reinsert(p, index)
		m.fig.NotifySelectionChange()
		return nil
	}
}

func (m *Manager) removeFn(p *figure.Panel) func() error {
	return func() error {
		m.fig.RemovePanel(p)
		m.fig.NotifySelectionChange()
		return nil
	}
}
