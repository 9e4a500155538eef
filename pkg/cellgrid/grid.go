// Package cellgrid is the reference damage-tracked terminal grid: a
// front/back cell buffer pair plus a per-cell damage bitmap and per-row
// dirty bitmap, consumed by the sync engine through its narrow DamageGrid
// contract.
package cellgrid

import "github.com/tty-sync/cellsync/pkg/cell"

// Region is a tight axis-aligned bounding box enclosing cells that were
// dirty at the time of a Commit call.
type Region struct {
	MinX, MinY uint16
	MaxX, MaxY uint16
}

// Grid is the concrete front/back buffer implementation. The zero Grid is
// not usable - construct one with NewGrid.
type Grid struct {
	cols, rows uint16
	cursorX    uint16
	cursorY    uint16

	front []cell.Cell
	back  []cell.Cell

	damage   []bool // per-cell, len(cols)*len(rows)
	rowDirty []bool // per-row, len(rows)
}

// NewGrid constructs a blank cols x rows grid. Both buffers start as the
// zero Cell (codepoint 0, colors 0, no attributes).
func NewGrid(cols, rows uint16) *Grid {
	n := int(cols) * int(rows)

	return &Grid{
		cols:     cols,
		rows:     rows,
		front:    make([]cell.Cell, n),
		back:     make([]cell.Cell, n),
		damage:   make([]bool, n),
		rowDirty: make([]bool, rows),
	}
}

// Cols reports the grid width.
func (g *Grid) Cols() uint16 { return g.cols }

// Rows reports the grid height.
func (g *Grid) Rows() uint16 { return g.rows }

// CursorX reports the current cursor column.
func (g *Grid) CursorX() uint16 { return g.cursorX }

// CursorY reports the current cursor row.
func (g *Grid) CursorY() uint16 { return g.cursorY }

// SetCursor moves the cursor. The sync engine reads it back via
// CursorX/CursorY when framing a commit; moving the cursor alone does not
// mark anything dirty.
func (g *Grid) SetCursor(x, y uint16) {
	g.cursorX = x
	g.cursorY = y
}

func (g *Grid) inBounds(x, y uint16) bool {
	return x < g.cols && y < g.rows
}

func (g *Grid) index(x, y uint16) int {
	return int(y)*int(g.cols) + int(x)
}

// SetCell writes the back buffer and marks the cell (and its row) dirty.
// Out-of-bounds coordinates are silently ignored.
func (g *Grid) SetCell(x, y uint16, c cell.Cell) {
	if !g.inBounds(x, y) {
		return
	}

	idx := g.index(x, y)
	g.back[idx] = c
	g.damage[idx] = true
	g.rowDirty[y] = true
}

// ApplyCell writes both the front and back buffers immediately (bypassing
// the deferred back->front promotion SetCell/Commit perform) and still
// marks the cell dirty, matching the remote-apply and packed-apply
// writeback rules (§4.5, §4.6.4): those paths must be visible without
// waiting for a local commit.
func (g *Grid) ApplyCell(x, y uint16, c cell.Cell) {
	if !g.inBounds(x, y) {
		return
	}

	idx := g.index(x, y)
	g.front[idx] = c
	g.back[idx] = c
	g.damage[idx] = true
	g.rowDirty[y] = true
}

// GetCell reads the front buffer. ok is false for out-of-bounds coordinates.
func (g *Grid) GetCell(x, y uint16) (c cell.Cell, ok bool) {
	if !g.inBounds(x, y) {
		return cell.Cell{}, false
	}

	return g.front[g.index(x, y)], true
}

// Commit atomically promotes the back buffer onto the front buffer for
// every dirty cell, clears the damage bitmap, and returns the tight
// bounding box of each dirty row's damaged span (arbitrary but
// deterministic order: ascending row index).
func (g *Grid) Commit() []Region {
	var regions []Region

	for y := uint16(0); y < g.rows; y++ {
		if !g.rowDirty[y] {
			continue
		}

		minX, maxX := g.cols, uint16(0)
		found := false

		for x := uint16(0); x < g.cols; x++ {
			idx := g.index(x, y)
			if !g.damage[idx] {
				continue
			}

			g.front[idx] = g.back[idx]
			g.damage[idx] = false

			if !found || x < minX {
				minX = x
			}

			if !found || x > maxX {
				maxX = x
			}

			found = true
		}

		g.rowDirty[y] = false

		if found {
			regions = append(regions, Region{MinX: minX, MinY: y, MaxX: maxX, MaxY: y})
		}
	}

	return regions
}
