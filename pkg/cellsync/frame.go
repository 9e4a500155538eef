package cellsync

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tty-sync/cellsync/pkg/syrup"
)

// Label symbols for the two wire record shapes (§4.6.9).
const (
	frameLabel = "cell-frame"
	ackLabel   = "cell-ack"
)

// frameFieldCount is the number of fields a frame record carries on the
// wire today. Decoders ignore any fields beyond this, so additive fields
// appended by a newer encoder round-trip harmlessly (§6.1).
const frameFieldCount = 7

const ackFieldCount = 2

// EncodeFrame wraps a snapshot's packed payload and metadata in a codec
// record labeled cell-frame, field order generation, cols, rows, source,
// cursor_x, cursor_y, packed (§4.6.9).
func EncodeFrame(snap Snapshot) syrup.Value {
	fields := []syrup.Value{
		uintValue(snap.Generation),
		uintValue(uint64(snap.Cols)),
		uintValue(uint64(snap.Rows)),
		uintValue(snap.SourceID),
		uintValue(uint64(snap.CursorX)),
		uintValue(uint64(snap.CursorY)),
		syrup.Bytes(snap.packed),
	}

	return syrup.Record(syrup.Symbol(frameLabel), fields)
}

// DecodeFrame validates v is a cell-frame record, extracts its fields by
// position, and unpacks the payload into an explicit diff sequence.
func DecodeFrame(v syrup.Value) (Snapshot, error) {
	fields, err := recordFields(v, frameLabel, frameFieldCount)
	if err != nil {
		return Snapshot{}, err
	}

	generation, ok := uintFromValue(fields[0])
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: frame generation field", ErrDecodeError)
	}

	cols, ok := uintFromValue(fields[1])
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: frame cols field", ErrDecodeError)
	}

	rows, ok := uintFromValue(fields[2])
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: frame rows field", ErrDecodeError)
	}

	source, ok := uintFromValue(fields[3])
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: frame source field", ErrDecodeError)
	}

	cursorX, ok := uintFromValue(fields[4])
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: frame cursor_x field", ErrDecodeError)
	}

	cursorY, ok := uintFromValue(fields[5])
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: frame cursor_y field", ErrDecodeError)
	}

	if fields[6].Kind() != syrup.KindBytes {
		return Snapshot{}, fmt.Errorf("%w: frame packed field must be bytes", ErrDecodeError)
	}

	packed := fields[6].AsBytes()

	diffs, err := Unpack(packed)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Generation: generation,
		Cols:       uint16(cols),
		Rows:       uint16(rows),
		SourceID:   source,
		CursorX:    uint16(cursorX),
		CursorY:    uint16(cursorY),
		Diffs:      diffs,
		packed:     packed,
	}, nil
}

// ApplyFromWire is the fast path that bypasses the diffs slice entirely:
// validate the record, then call ApplyPacked directly on its payload
// (§4.6.9).
func ApplyFromWire(v syrup.Value, grid DamageGrid) error {
	fields, err := recordFields(v, frameLabel, frameFieldCount)
	if err != nil {
		return err
	}

	if fields[6].Kind() != syrup.KindBytes {
		return fmt.Errorf("%w: frame packed field must be bytes", ErrDecodeError)
	}

	return ApplyPacked(fields[6].AsBytes(), grid)
}

// CursorFromFrame reads only fields 4 and 5 (cursor_x, cursor_y) of a
// cell-frame record, without touching the packed payload - a cheap
// extractor for peers that only need cursor tracking (§4.7).
func CursorFromFrame(v syrup.Value) (x, y uint16, err error) {
	fields, err := recordFields(v, frameLabel, frameFieldCount)
	if err != nil {
		return 0, 0, err
	}

	cx, ok := uintFromValue(fields[4])
	if !ok {
		return 0, 0, fmt.Errorf("%w: frame cursor_x field", ErrDecodeError)
	}

	cy, ok := uintFromValue(fields[5])
	if !ok {
		return 0, 0, fmt.Errorf("%w: frame cursor_y field", ErrDecodeError)
	}

	return uint16(cx), uint16(cy), nil
}

// EncodeAck builds an ack record: label cell-ack, fields [node_id, gen]
// (§4.6.9).
func EncodeAck(nodeID, gen uint64) syrup.Value {
	return syrup.Record(syrup.Symbol(ackLabel), []syrup.Value{uintValue(nodeID), uintValue(gen)})
}

// DecodeAck validates v is a cell-ack record and extracts (node_id, gen).
func DecodeAck(v syrup.Value) (nodeID, gen uint64, err error) {
	fields, err := recordFields(v, ackLabel, ackFieldCount)
	if err != nil {
		return 0, 0, err
	}

	nodeID, ok := uintFromValue(fields[0])
	if !ok {
		return 0, 0, fmt.Errorf("%w: ack node_id field", ErrDecodeError)
	}

	gen, ok = uintFromValue(fields[1])
	if !ok {
		return 0, 0, fmt.Errorf("%w: ack gen field", ErrDecodeError)
	}

	return nodeID, gen, nil
}

// recordFields validates v is a record labeled wantLabel with at least
// minFields fields, and returns its field slice.
func recordFields(v syrup.Value, wantLabel string, minFields int) ([]syrup.Value, error) {
	if v.Kind() != syrup.KindRecord {
		return nil, fmt.Errorf("%w: expected a record, got kind %d", ErrInvalidLabel, v.Kind())
	}

	label, fields := v.AsRecord()
	if label.Kind() != syrup.KindSymbol || label.AsSymbol() != wantLabel {
		return nil, fmt.Errorf("%w: expected label %q", ErrInvalidLabel, wantLabel)
	}

	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: expected at least %d fields, got %d", ErrDecodeError, minFields, len(fields))
	}

	return fields, nil
}

// uintValue encodes n as the smallest integer form that round-trips
// through the codec: a plain Int when it fits an int64, otherwise an
// unsigned big-integer.
func uintValue(n uint64) syrup.Value {
	if n <= math.MaxInt64 {
		return syrup.Int(int64(n))
	}

	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)

	return syrup.BigInt(1, b[:])
}

// uintFromValue is the inverse of uintValue: it accepts any non-negative
// integer value whose magnitude fits in 64 bits.
func uintFromValue(v syrup.Value) (uint64, bool) {
	if v.Kind() != syrup.KindInt {
		return 0, false
	}

	sign, mag := v.BigInt()
	if sign < 0 || len(mag) > 8 {
		return 0, false
	}

	var buf [8]byte
	copy(buf[8-len(mag):], mag)

	return binary.BigEndian.Uint64(buf[:]), true
}
