package cellgrid_test

import (
	"testing"

	"github.com/tty-sync/cellsync/pkg/cell"
	"github.com/tty-sync/cellsync/pkg/cellgrid"
)

func TestSetCellThenCommitPromotesBackToFront(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(10, 4)

	c := cell.Cell{Codepoint: 'A', FG: 0xFF0000}
	g.SetCell(2, 1, c)

	if got, _ := g.GetCell(2, 1); got != (cell.Cell{}) {
		t.Fatalf("cell should not be visible before Commit, got %+v", got)
	}

	regions := g.Commit()
	if len(regions) != 1 {
		t.Fatalf("expected 1 dirty region, got %d", len(regions))
	}

	want := cellgrid.Region{MinX: 2, MinY: 1, MaxX: 2, MaxY: 1}
	if regions[0] != want {
		t.Fatalf("region = %+v, want %+v", regions[0], want)
	}

	got, ok := g.GetCell(2, 1)
	if !ok || got != c {
		t.Fatalf("GetCell after commit = %+v, %v; want %+v, true", got, ok, c)
	}
}

func TestCommitClearsDamageAndReturnsNoRegionsWhenClean(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(5, 5)

	g.SetCell(0, 0, cell.Cell{Codepoint: 'x'})
	g.Commit()

	if regions := g.Commit(); regions != nil {
		t.Fatalf("expected no regions on a clean commit, got %v", regions)
	}
}

func TestCommitRegionSpansFullDirtyRow(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(10, 1)

	g.SetCell(1, 0, cell.Cell{Codepoint: 'a'})
	g.SetCell(5, 0, cell.Cell{Codepoint: 'b'})

	regions := g.Commit()
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}

	if regions[0].MinX != 1 || regions[0].MaxX != 5 {
		t.Fatalf("region = %+v, want MinX=1 MaxX=5", regions[0])
	}
}

func TestApplyCellIsImmediatelyVisible(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(4, 4)

	c := cell.Cell{Codepoint: '!', FG: 0xFF0000}
	g.ApplyCell(1, 1, c)

	got, ok := g.GetCell(1, 1)
	if !ok || got != c {
		t.Fatalf("ApplyCell should write through to the front buffer immediately, got %+v, %v", got, ok)
	}

	// A subsequent Commit should be a harmless no-op for this cell: it is
	// already on the front buffer, so re-promoting it changes nothing.
	regions := g.Commit()
	if len(regions) != 1 {
		t.Fatalf("ApplyCell should still mark the row dirty for the next commit, got %d regions", len(regions))
	}

	got, ok = g.GetCell(1, 1)
	if !ok || got != c {
		t.Fatalf("cell changed after redundant commit: %+v, %v", got, ok)
	}
}

func TestOutOfBoundsWritesAreIgnored(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(3, 3)

	g.SetCell(100, 100, cell.Cell{Codepoint: 'z'})
	g.ApplyCell(100, 100, cell.Cell{Codepoint: 'z'})

	if regions := g.Commit(); regions != nil {
		t.Fatalf("out-of-bounds writes must not produce a dirty region, got %v", regions)
	}

	if _, ok := g.GetCell(100, 100); ok {
		t.Fatal("GetCell should report false for out-of-bounds coordinates")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(80, 24)
	g.SetCursor(7, 3)

	if g.CursorX() != 7 || g.CursorY() != 3 {
		t.Fatalf("cursor = (%d,%d), want (7,3)", g.CursorX(), g.CursorY())
	}
}
