// Package grid lays a stream of tokens into rows of fixed width.
package grid

import (
	"fmt"

	"github.com/roach88/combomirror/internal/callback"
)

const rowTag = "row"

// Grid is a fixed-width, append-only row store.
//
// INVARIANT: every row except the last holds exactly Width() tokens; the last
// row holds between 1 and Width() tokens. An empty row is never kept.
//
// Grid is not safe for concurrent use.
type Grid[T any] struct {
	width     int
	rows      [][]T
	listeners *callback.Registry[string, int]
}

// New creates a grid. width must be at least 1.
func New[T any](width int) (*Grid[T], error) {
	if width < 1 {
		return nil, fmt.Errorf("grid width must be >= 1, got %d", width)
	}
	return &Grid[T]{
		width:     width,
		listeners: callback.New[string, int](),
	}, nil
}

// Width returns the configured row width.
func (g *Grid[T]) Width() int {
	return g.width
}

// OnRowChange registers fn to run whenever a new row is started. fn receives
// the new row's index.
func (g *Grid[T]) OnRowChange(fn func(row int)) {
	g.listeners.On(rowTag, fn)
}

// Add appends token, starting a new row first when the last row is full or
// the grid is empty. Row listeners run after the row exists and before the
// token is placed.
func (g *Grid[T]) Add(token T) {
	if len(g.rows) == 0 || len(g.rows[len(g.rows)-1]) >= g.width {
		g.rows = append(g.rows, make([]T, 0, g.width))
		g.listeners.Run(rowTag, len(g.rows)-1)
	}
	last := len(g.rows) - 1
	g.rows[last] = append(g.rows[last], token)
}

// Row returns the index of the last row, or 0 when empty.
func (g *Grid[T]) Row() int {
	return max(len(g.rows)-1, 0)
}

// Column returns the index of the last token within the last row, or 0 when
// empty.
func (g *Grid[T]) Column() int {
	if len(g.rows) == 0 {
		return 0
	}
	return max(len(g.rows[len(g.rows)-1])-1, 0)
}

// Count returns the number of tokens added since the last Clear. It is
// row*width+column+1 once a token exists and 0 for an empty grid, not the 1
// that formula would give.
func (g *Grid[T]) Count() int {
	if len(g.rows) == 0 {
		return 0
	}
	return g.Row()*g.width + g.Column() + 1
}

// Rows returns the number of rows.
func (g *Grid[T]) Rows() int {
	return len(g.rows)
}

// Get returns row i. Negative indices count from the end (-1 is the last
// row). Indices outside [-Rows(), Rows()) report false.
//
// The returned slice is a copy.
func (g *Grid[T]) Get(i int) ([]T, bool) {
	idx, ok := resolve(i, len(g.rows))
	if !ok {
		return nil, false
	}
	out := make([]T, len(g.rows[idx]))
	copy(out, g.rows[idx])
	return out, true
}

// Cell returns token j of row i. Both indices accept negative values, and j
// resolves against the length of row i.
func (g *Grid[T]) Cell(i, j int) (T, bool) {
	var zero T
	ri, ok := resolve(i, len(g.rows))
	if !ok {
		return zero, false
	}
	row := g.rows[ri]
	ci, ok := resolve(j, len(row))
	if !ok {
		return zero, false
	}
	return row[ci], true
}

// Clear drops every row. Row listeners are kept.
func (g *Grid[T]) Clear() {
	g.rows = nil
}

func resolve(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
