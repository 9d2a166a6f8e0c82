// Package dispatch binds board cells to the click pipeline and runs the
// event loop that everything on the client side executes on.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/net/html"

	"chessfront/internal/board"
	"chessfront/internal/logging"
)

// ErrAlreadyBound is returned when Bind is called a second time.
var ErrAlreadyBound = errors.New("cells already bound")

// Locator maps a cell to its position.
type Locator interface {
	CellToPosition(cell *html.Node) (board.Position, error)
}

// Clicker receives cell activations.
type Clicker interface {
	Click(ctx context.Context, pos board.Position)
}

// Dispatcher routes activations of bound cells to a Clicker on the loop.
type Dispatcher struct {
	loc    Locator
	target Clicker
	loop   *Loop

	mu       sync.RWMutex
	bound    bool
	handlers map[*html.Node]func(context.Context)
}

// New creates an unbound dispatcher.
func New(loc Locator, target Clicker, loop *Loop) *Dispatcher {
	return &Dispatcher{loc: loc, target: target, loop: loop}
}

// Bind registers a handler for each cell. It may be called once; cells that
// appear afterwards are never bound.
func (d *Dispatcher) Bind(cells []*html.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound {
		return ErrAlreadyBound
	}
	d.bound = true
	d.handlers = make(map[*html.Node]func(context.Context), len(cells))
	for _, c := range cells {
		cell := c
		d.handlers[cell] = func(ctx context.Context) {
			pos, err := d.loc.CellToPosition(cell)
			if err != nil {
				logging.Errorf("click: %v", err)
				return
			}
			d.target.Click(ctx, pos)
		}
	}
	logging.Debugf("bound %d cells", len(cells))
	return nil
}

// Activate queues the handler bound to cell. It reports false for cells that
// were never bound.
func (d *Dispatcher) Activate(ctx context.Context, cell *html.Node) bool {
	d.mu.RLock()
	h, ok := d.handlers[cell]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	d.loop.Post(func() { h(ctx) })
	return true
}
