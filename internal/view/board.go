// Package view adapts the rendered board markup: it maps clicked cells to
// positions and writes confirmed moves back into the cells.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"chessfront/internal/board"
)

// CellClass marks an interactive cell element.
const CellClass = "chess-cell"

var (
	// ErrNoCell is returned when no cell carries the requested coordinates.
	ErrNoCell = errors.New("no cell at position")
	// ErrNotInRow is returned when a node has no row container.
	ErrNotInRow = errors.New("cell is not inside a row")
)

// Board wraps a parsed board document. It is not safe for concurrent use;
// callers mutate it from a single goroutine.
type Board struct {
	root *html.Node
}

// Parse reads board markup into a Board.
func Parse(r io.Reader) (*Board, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	return &Board{root: root}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Board, error) {
	return Parse(strings.NewReader(s))
}

// Cells returns every interactive cell in document order.
func (b *Board) Cells() []*html.Node {
	var out []*html.Node
	walk(b.root, func(n *html.Node) {
		if isCell(n) {
			out = append(out, n)
		}
	})
	return out
}

// CellToPosition derives a cell's coordinates from where it sits in the tree:
// the row is the index of its parent among the sibling row elements, the
// column its index among sibling elements in that row.
func CellToPosition(cell *html.Node) (board.Position, error) {
	if cell == nil || cell.Type != html.ElementNode {
		return board.Position{}, ErrNotInRow
	}
	row := cell.Parent
	if row == nil || row.Type != html.ElementNode {
		return board.Position{}, ErrNotInRow
	}
	col := 0
	for s := cell.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			col++
		}
	}
	r := 0
	for s := row.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == row.Data {
			r++
		}
	}
	return board.Position{Row: r, Col: col}, nil
}

// CellToPosition is the method form of the package function.
func (b *Board) CellToPosition(cell *html.Node) (board.Position, error) {
	return CellToPosition(cell)
}

// Cell finds the cell whose data-row and data-col attributes match pos.
func (b *Board) Cell(pos board.Position) (*html.Node, error) {
	row, col := strconv.Itoa(pos.Row), strconv.Itoa(pos.Col)
	var found *html.Node
	walk(b.root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if attr(n, "data-row") == row && attr(n, "data-col") == col {
			found = n
		}
	})
	if found == nil {
		return nil, fmt.Errorf("%w %s", ErrNoCell, pos)
	}
	return found, nil
}

// ApplyMove moves the rendered content of start into end and empties start.
// It performs no legality check.
func (b *Board) ApplyMove(start, end board.Position) error {
	src, err := b.Cell(start)
	if err != nil {
		return err
	}
	dst, err := b.Cell(end)
	if err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	emptyNode(dst)
	for c := src.FirstChild; c != nil; c = src.FirstChild {
		src.RemoveChild(c)
		dst.AppendChild(c)
	}
	return nil
}

// Content returns the inner markup of the cell at pos.
func (b *Board) Content(pos board.Position) (string, error) {
	n, err := b.Cell(pos)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Text returns the trimmed text content of a cell.
func Text(cell *html.Node) string {
	var sb strings.Builder
	walk(cell, func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
	})
	return strings.TrimSpace(sb.String())
}

// Render writes the whole document.
func (b *Board) Render(w io.Writer) error {
	return html.Render(w, b.root)
}

func isCell(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == CellClass {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func emptyNode(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
