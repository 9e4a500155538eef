package cellsync_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tty-sync/cellsync/pkg/cell"
	"github.com/tty-sync/cellsync/pkg/cellgrid"
	"github.com/tty-sync/cellsync/pkg/cellsync"
	"github.com/tty-sync/cellsync/pkg/syrup"
)

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	g := cellgrid.NewGrid(20, 10)
	g.SetCursor(3, 4)

	e := cellsync.NewEngine(9, g)
	e.WriteCell(1, 1, cell.Cell{Codepoint: 'Q', FG: 0x112233})

	snap, err := e.Commit()
	if err != nil {
		t.Fatal(err)
	}

	frame := cellsync.EncodeFrame(snap)

	encoded, err := syrup.Encode(frame)
	if err != nil {
		t.Fatalf("syrup.Encode(frame): %v", err)
	}

	decodedVal, err := syrup.Decode(encoded)
	if err != nil {
		t.Fatalf("syrup.Decode: %v", err)
	}

	decoded, err := cellsync.DecodeFrame(decodedVal)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	// A single structural diff over every exported field (Generation, Cols,
	// Rows, SourceID, CursorX, CursorY, Diffs, IsFull) instead of repeating
	// them one by one; the unexported packed cache is irrelevant to frame
	// fidelity and is excluded.
	if diff := cmp.Diff(snap, decoded, cmpopts.IgnoreUnexported(cellsync.Snapshot{})); diff != "" {
		t.Fatalf("decoded frame mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFromWireBypassesDiffs(t *testing.T) {
	t.Parallel()

	src := cellgrid.NewGrid(10, 10)
	srcEngine := cellsync.NewEngine(1, src)
	srcEngine.WriteCell(4, 4, cell.Cell{Codepoint: 'Z'})

	snap, err := srcEngine.Commit()
	if err != nil {
		t.Fatal(err)
	}

	frame := cellsync.EncodeFrame(snap)

	dst := cellgrid.NewGrid(10, 10)

	if err := cellsync.ApplyFromWire(frame, dst); err != nil {
		t.Fatalf("ApplyFromWire: %v", err)
	}

	got, ok := dst.GetCell(4, 4)
	if !ok || got.Codepoint != 'Z' {
		t.Fatalf("got %+v, %v; want codepoint Z", got, ok)
	}
}

func TestDecodeFrameRejectsWrongLabel(t *testing.T) {
	t.Parallel()

	notAFrame := syrup.Record(syrup.Symbol("not-a-frame"), []syrup.Value{syrup.Int(1)})

	if _, err := cellsync.DecodeFrame(notAFrame); err == nil {
		t.Fatal("expected ErrInvalidLabel")
	}
}

func TestDecodeFrameRejectsWrongFieldCount(t *testing.T) {
	t.Parallel()

	short := syrup.Record(syrup.Symbol("cell-frame"), []syrup.Value{syrup.Int(1), syrup.Int(2)})

	if _, err := cellsync.DecodeFrame(short); err == nil {
		t.Fatal("expected a field-count decode error")
	}
}

func TestDecodeFrameRejectsWrongFieldKind(t *testing.T) {
	t.Parallel()

	bad := syrup.Record(syrup.Symbol("cell-frame"), []syrup.Value{
		syrup.String("not-an-int"), syrup.Int(0), syrup.Int(0), syrup.Int(0), syrup.Int(0), syrup.Int(0), syrup.Bytes(nil),
	})

	if _, err := cellsync.DecodeFrame(bad); err == nil {
		t.Fatal("expected a field-kind decode error")
	}
}

func TestAckEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	v := cellsync.EncodeAck(42, 7)

	nodeID, gen, err := cellsync.DecodeAck(v)
	if err != nil {
		t.Fatal(err)
	}

	if nodeID != 42 || gen != 7 {
		t.Fatalf("got (%d,%d), want (42,7)", nodeID, gen)
	}
}

func TestDecodeAckRejectsWrongLabel(t *testing.T) {
	t.Parallel()

	notAnAck := syrup.Record(syrup.Symbol("cell-frame"), []syrup.Value{syrup.Int(1), syrup.Int(2)})

	if _, _, err := cellsync.DecodeAck(notAnAck); err == nil {
		t.Fatal("expected ErrInvalidLabel")
	}
}

func TestCursorFromFrameIgnoresPayload(t *testing.T) {
	t.Parallel()

	// A frame whose packed payload is garbage should still yield a correct
	// cursor, since CursorFromFrame never touches field 6.
	frame := syrup.Record(syrup.Symbol("cell-frame"), []syrup.Value{
		syrup.Int(1), syrup.Int(80), syrup.Int(24), syrup.Int(1),
		syrup.Int(12), syrup.Int(5), syrup.Bytes([]byte{0xFF, 0xFF, 0xFF}),
	})

	x, y, err := cellsync.CursorFromFrame(frame)
	if err != nil {
		t.Fatal(err)
	}

	if x != 12 || y != 5 {
		t.Fatalf("cursor = (%d,%d), want (12,5)", x, y)
	}
}
