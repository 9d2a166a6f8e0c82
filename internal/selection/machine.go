// Package selection holds the click state machine: the first click selects a
// cell, the second submits a move from the selected cell and clears the
// selection without waiting for the outcome.
package selection

import (
	"context"

	"chessfront/internal/board"
	"chessfront/internal/logging"
)

// Submitter starts a move attempt. Submit must not block on the outcome.
type Submitter interface {
	Submit(start, end board.Position)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(start, end board.Position)

// Submit calls f(start, end).
func (f SubmitterFunc) Submit(start, end board.Position) { f(start, end) }

// State is either empty or holds one selected position.
type State struct {
	selected bool
	pos      board.Position
}

// Empty reports whether nothing is selected.
func (s State) Empty() bool { return !s.selected }

// Selected returns the pending position, if any.
func (s State) Selected() (board.Position, bool) { return s.pos, s.selected }

func (s State) String() string {
	if !s.selected {
		return "Empty"
	}
	return "Selected" + s.pos.String()
}

// Machine owns the single selection state of a session. It is driven from
// one goroutine and has no locking of its own.
type Machine struct {
	state     State
	submitter Submitter
	moves     MoveSource
	highlight func(from board.Position, to []board.Position)
	busy      func() bool
	post      func(func())
	seq       uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithMoveSource replaces the default empty move source.
func WithMoveSource(src MoveSource) Option {
	return func(m *Machine) {
		if src != nil {
			m.moves = src
		}
	}
}

// WithHighlighter receives the destinations computed for a fresh selection.
// It is only called when the set is non-empty.
func WithHighlighter(fn func(from board.Position, to []board.Position)) Option {
	return func(m *Machine) { m.highlight = fn }
}

// WithInputGuard drops clicks while busy reports true, e.g. while a move
// request is still in flight. Off by default.
func WithInputGuard(busy func() bool) Option {
	return func(m *Machine) { m.busy = busy }
}

// WithAsyncMoves runs move lookups on their own goroutine and hands the result
// back through post, which must run it on the goroutine driving the machine.
// A result that arrives after the selection changed is dropped.
func WithAsyncMoves(post func(func())) Option {
	return func(m *Machine) { m.post = post }
}

// New returns a machine in the Empty state.
func New(sub Submitter, opts ...Option) *Machine {
	m := &Machine{submitter: sub, moves: NoMoves{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state }

// Click handles one cell activation.
func (m *Machine) Click(ctx context.Context, pos board.Position) {
	if m.busy != nil && m.busy() {
		logging.Debugf("click %s ignored: move in flight", pos)
		return
	}
	if !m.state.selected {
		m.state = State{selected: true, pos: pos}
		m.seq++
		logging.Debugf("selected %s", pos)
		m.lookup(ctx, pos)
		return
	}
	start := m.state.pos
	m.submitter.Submit(start, pos)
	m.state = State{}
	m.seq++
	logging.Debugf("submitted %s -> %s", start, pos)
}

func (m *Machine) lookup(ctx context.Context, pos board.Position) {
	if m.post == nil {
		m.showMoves(m.seq, pos, m.moves.ValidMoves(ctx, pos))
		return
	}
	if m.highlight == nil {
		return
	}
	seq, src := m.seq, m.moves
	go func() {
		to := src.ValidMoves(ctx, pos)
		m.post(func() { m.showMoves(seq, pos, to) })
	}()
}

func (m *Machine) showMoves(seq uint64, pos board.Position, to []board.Position) {
	if seq != m.seq || len(to) == 0 || m.highlight == nil {
		return
	}
	m.highlight(pos, to)
}
