package cellsync

import (
	"encoding/binary"
	"fmt"

	"github.com/tty-sync/cellsync/pkg/cell"
)

const (
	cellRecordSize = 14
	runMarkerSize  = 4

	// sentinelX is reserved and must never appear as a literal x coordinate
	// in an encoded cell record (§3.2, §9 "literal x = 0xFFFF reservation").
	sentinelX = 0xFFFF

	// maxRunLength is the largest count a single run marker can carry (a
	// 16-bit field); longer monochrome runs are split across markers.
	maxRunLength = 0xFFFF
)

// Pack run-length-encodes diffs into the wire format described in §3.2: a
// 14-byte cell record optionally followed by a 4-byte run marker.
func Pack(diffs []cell.Diff) ([]byte, error) {
	buf := make([]byte, 0, len(diffs)*cellRecordSize)

	i := 0
	for i < len(diffs) {
		d := diffs[i]
		if d.X == sentinelX {
			return nil, fmt.Errorf("%w: x=0xFFFF may not appear as a literal coordinate", ErrMalformedPayload)
		}

		buf = appendCellRecord(buf, d)

		k := 0
		for i+1+k < len(diffs) && k < maxRunLength {
			next := diffs[i+1+k]
			if next.Y != d.Y || next.X != d.X+1+uint16(k) || !next.Cell.Equal(d.Cell) {
				break
			}

			k++
		}

		if k > 0 {
			buf = appendRunMarker(buf, k)
		}

		i += 1 + k
	}

	return buf, nil
}

// Unpack expands a packed stream back into an explicit diff sequence. It
// scans twice: once to size the output exactly (§4.5), once to decode.
func Unpack(data []byte) ([]cell.Diff, error) {
	count, err := countPackedCells(data)
	if err != nil {
		return nil, err
	}

	diffs := make([]cell.Diff, 0, count)

	pos := 0
	for pos < len(data) {
		if len(data)-pos < cellRecordSize {
			return nil, fmt.Errorf("%w: truncated cell record", ErrMalformedPayload)
		}

		d, err := decodeCellRecord(data[pos : pos+cellRecordSize])
		if err != nil {
			return nil, err
		}

		pos += cellRecordSize
		diffs = append(diffs, d)

		k, next, err := readRunMarker(data, pos)
		if err != nil {
			return nil, err
		}

		for j := 0; j < k; j++ {
			run := d
			run.X = d.X + 1 + uint16(j)
			diffs = append(diffs, run)
		}

		pos = next
	}

	return diffs, nil
}

// ApplyPacked fuses unpack with writeback (§4.5, §4.6.5): for each cell or
// run it writes directly into grid's front and back buffers without
// building an intermediate diff slice. Out-of-bounds cells are silently
// dropped per cell; the rest of the stream still applies.
func ApplyPacked(data []byte, grid DamageGrid) error {
	pos := 0
	for pos < len(data) {
		if len(data)-pos < cellRecordSize {
			return fmt.Errorf("%w: truncated cell record", ErrMalformedPayload)
		}

		d, err := decodeCellRecord(data[pos : pos+cellRecordSize])
		if err != nil {
			return err
		}

		pos += cellRecordSize
		applyDiff(grid, d)

		k, next, err := readRunMarker(data, pos)
		if err != nil {
			return err
		}

		for j := 0; j < k; j++ {
			run := d
			run.X = d.X + 1 + uint16(j)
			applyDiff(grid, run)
		}

		pos = next
	}

	return nil
}

func applyDiff(grid DamageGrid, d cell.Diff) {
	if d.X >= grid.Cols() || d.Y >= grid.Rows() {
		return
	}

	grid.ApplyCell(d.X, d.Y, d.Cell)
}

// countPackedCells performs the size-only first scan §4.5 calls for.
func countPackedCells(data []byte) (int, error) {
	count := 0

	pos := 0
	for pos < len(data) {
		if len(data)-pos < cellRecordSize {
			return 0, fmt.Errorf("%w: truncated cell record", ErrMalformedPayload)
		}

		pos += cellRecordSize
		count++

		k, next, err := readRunMarker(data, pos)
		if err != nil {
			return 0, err
		}

		count += k
		pos = next
	}

	return count, nil
}

// readRunMarker looks for a run marker starting at pos. It returns the run
// count (0 if no marker is present), and the stream position to resume
// from.
func readRunMarker(data []byte, pos int) (k int, next int, err error) {
	if pos+2 > len(data) || data[pos] != 0xFF || data[pos+1] != 0xFF {
		return 0, pos, nil
	}

	if pos+runMarkerSize > len(data) {
		return 0, pos, fmt.Errorf("%w: truncated run marker", ErrMalformedPayload)
	}

	return int(binary.BigEndian.Uint16(data[pos+2 : pos+4])), pos + runMarkerSize, nil
}

func appendCellRecord(buf []byte, d cell.Diff) []byte {
	buf = binary.BigEndian.AppendUint16(buf, d.X)
	buf = binary.BigEndian.AppendUint16(buf, d.Y)
	buf = append3(buf, d.Cell.Codepoint)
	buf = append3(buf, d.Cell.FG)
	buf = append3(buf, d.Cell.BG)

	return append(buf, d.Cell.Attrs)
}

func decodeCellRecord(b []byte) (cell.Diff, error) {
	x := binary.BigEndian.Uint16(b[0:2])
	if x == sentinelX {
		return cell.Diff{}, fmt.Errorf("%w: literal x=0xFFFF cell record", ErrMalformedPayload)
	}

	y := binary.BigEndian.Uint16(b[2:4])

	return cell.Diff{
		X: x,
		Y: y,
		Cell: cell.Cell{
			Codepoint: read3(b[4:7]),
			FG:        read3(b[7:10]),
			BG:        read3(b[10:13]),
			Attrs:     b[13],
		},
	}, nil
}

func appendRunMarker(buf []byte, k int) []byte {
	buf = append(buf, 0xFF, 0xFF)
	return binary.BigEndian.AppendUint16(buf, uint16(k))
}

func append3(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>16), byte(v>>8), byte(v))
}

func read3(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
