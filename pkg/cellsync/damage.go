package cellsync

import (
	"github.com/tty-sync/cellsync/pkg/cell"
	"github.com/tty-sync/cellsync/pkg/cellgrid"
)

// DamageGrid is the narrow contract the sync engine consumes to obtain
// dirty regions and read committed cells (§4.8). It never walks a damage
// bitmap itself - only the regions Commit returns.
//
// [cellgrid.Grid] is the reference implementation; any type satisfying
// this interface can stand in (e.g. a test double, or a grid backed by a
// different rendering surface).
type DamageGrid interface {
	Cols() uint16
	Rows() uint16
	CursorX() uint16
	CursorY() uint16

	// SetCell writes the back buffer and marks the cell dirty for the next
	// Commit. Used for local writes.
	SetCell(x, y uint16, c cell.Cell)

	// ApplyCell writes both buffers immediately and marks the cell dirty.
	// Used for remote applies, which must be visible without waiting for a
	// local commit cycle.
	ApplyCell(x, y uint16, c cell.Cell)

	// Commit promotes dirty back-buffer cells to the front buffer, clears
	// the damage bitmap, and returns the bounding boxes that enclosed the
	// dirty cells.
	Commit() []cellgrid.Region

	// GetCell reads the front buffer.
	GetCell(x, y uint16) (c cell.Cell, ok bool)
}
