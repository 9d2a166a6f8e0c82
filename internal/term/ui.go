// Package term draws the board view on a terminal and turns mouse clicks and
// cursor keys into cell activations.
package term

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/net/html"

	"chessfront/internal/board"
	"chessfront/internal/selection"
	"chessfront/internal/view"
)

const (
	cellWidth = 3
	originX   = 3
	originY   = 1
)

// Activator queues the handler bound to a cell.
type Activator interface {
	Activate(ctx context.Context, cell *html.Node) bool
}

// StateSource exposes the selection state for drawing.
type StateSource interface {
	State() selection.State
}

// UI owns the screen. Draw must run on the event loop since it reads the
// board view; everything else may be called from the input goroutine.
type UI struct {
	screen  tcell.Screen
	clicks  Activator
	machine StateSource
	post    func(func())

	cells      map[board.Position]*html.Node
	rows, cols int

	mu         sync.Mutex
	cursor     board.Position
	status     string
	highlights map[board.Position]bool
}

// New snapshots the cells currently in b. post schedules a job on the event
// loop and is used to request redraws.
func New(s tcell.Screen, b *view.Board, clicks Activator, m StateSource, post func(func())) *UI {
	u := &UI{
		screen:  s,
		clicks:  clicks,
		machine: m,
		post:    post,
		cells:   make(map[board.Position]*html.Node),
	}
	for _, c := range b.Cells() {
		pos, err := b.CellToPosition(c)
		if err != nil {
			continue
		}
		u.cells[pos] = c
		u.rows = max(u.rows, pos.Row+1)
		u.cols = max(u.cols, pos.Col+1)
	}
	return u
}

// NotifyFailure shows a rejected move on the status line.
func (u *UI) NotifyFailure(message string) {
	u.mu.Lock()
	u.status = "rejected: " + message
	u.mu.Unlock()
}

// Highlight marks the destinations reachable from the selected cell.
func (u *UI) Highlight(from board.Position, to []board.Position) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.highlights = make(map[board.Position]bool, len(to))
	for _, p := range to {
		u.highlights[p] = true
	}
}

// CellAt maps screen coordinates to the position drawn there.
func (u *UI) CellAt(x, y int) (board.Position, bool) {
	if x < originX || y < originY {
		return board.Position{}, false
	}
	p := board.Position{Row: y - originY, Col: (x - originX) / cellWidth}
	if p.Row >= u.rows || p.Col >= u.cols {
		return board.Position{}, false
	}
	return p, true
}

// Draw renders the board, the cursor and the status line.
func (u *UI) Draw() {
	st := u.machine.State()
	sel, selected := st.Selected()

	u.mu.Lock()
	defer u.mu.Unlock()
	if !selected {
		u.highlights = nil
	}

	u.screen.Clear()
	for r := 0; r < u.rows; r++ {
		drawText(u.screen, 0, originY+r, tcell.StyleDefault, fmt.Sprintf("%2d", u.rows-r))
		for c := 0; c < u.cols; c++ {
			p := board.Position{Row: r, Col: c}
			style := squareStyle(p)
			switch {
			case selected && p == sel:
				style = style.Background(tcell.ColorOlive)
			case u.highlights[p]:
				style = style.Background(tcell.ColorDarkCyan)
			}
			if p == u.cursor {
				style = style.Reverse(true)
			}
			glyph := ' '
			if cell, ok := u.cells[p]; ok {
				for _, ch := range view.Text(cell) {
					glyph = ch
					break
				}
			}
			x := originX + c*cellWidth
			u.screen.SetContent(x, originY+r, ' ', nil, style)
			u.screen.SetContent(x+1, originY+r, glyph, nil, style)
			u.screen.SetContent(x+2, originY+r, ' ', nil, style)
		}
	}
	for c := 0; c < u.cols; c++ {
		u.screen.SetContent(originX+c*cellWidth+1, originY+u.rows, rune('a'+c), nil, tcell.StyleDefault)
	}

	line := "click a piece, then its destination. q quits"
	if selected {
		line = "selected " + sel.String()
	}
	drawText(u.screen, 0, originY+u.rows+2, tcell.StyleDefault, line)
	drawText(u.screen, 0, originY+u.rows+3, tcell.StyleDefault.Foreground(tcell.ColorRed), u.status)
	u.screen.Show()
}

// Run reads terminal events until ctx is done or the user quits, then calls
// cancel.
func (u *UI) Run(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	events := make(chan tcell.Event)
	quit := make(chan struct{})
	go u.screen.ChannelEvents(events, quit)
	defer close(quit)

	u.post(func() {})
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev == nil {
				return
			}
			if !u.handle(ctx, ev) {
				return
			}
		}
	}
}

// handle processes one event and reports whether to keep running.
func (u *UI) handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyEnter, ev.Rune() == ' ':
			u.mu.Lock()
			p := u.cursor
			u.mu.Unlock()
			u.activate(ctx, p)
		default:
			u.moveCursor(ev.Key())
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return true
		}
		x, y := ev.Position()
		if p, ok := u.CellAt(x, y); ok {
			u.mu.Lock()
			u.cursor = p
			u.mu.Unlock()
			u.activate(ctx, p)
		}
	case *tcell.EventResize:
		u.screen.Sync()
		u.post(func() {})
	}
	return true
}

func (u *UI) activate(ctx context.Context, p board.Position) {
	cell, ok := u.cells[p]
	if !ok || !u.clicks.Activate(ctx, cell) {
		u.post(func() {})
	}
}

func (u *UI) moveCursor(k tcell.Key) {
	u.mu.Lock()
	c := u.cursor
	switch k {
	case tcell.KeyUp:
		c.Row--
	case tcell.KeyDown:
		c.Row++
	case tcell.KeyLeft:
		c.Col--
	case tcell.KeyRight:
		c.Col++
	default:
		u.mu.Unlock()
		return
	}
	if c.Row >= 0 && c.Row < u.rows && c.Col >= 0 && c.Col < u.cols {
		u.cursor = c
	}
	u.mu.Unlock()
	u.post(func() {})
}

func squareStyle(p board.Position) tcell.Style {
	if (p.Row+p.Col)%2 == 0 {
		return tcell.StyleDefault.Background(tcell.ColorTan).Foreground(tcell.ColorBlack)
	}
	return tcell.StyleDefault.Background(tcell.ColorSaddleBrown).Foreground(tcell.ColorBlack)
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
