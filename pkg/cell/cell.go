// Package cell defines the logical terminal-cell value shared by the
// damage grid, the cell packer, and the sync engine.
//
// A cell is 13 bytes of logical state: a codepoint (21 bits), a foreground
// color (24 bits), a background color (24 bits) and an attribute byte.
// Equality is bitwise on the full payload - two cells are equal iff every
// field matches exactly, including unused high bits of Codepoint.
package cell

// Attribute flag bits packed into Cell.Attrs.
const (
	AttrBold uint8 = 1 << iota
	AttrItalic
	AttrUnderline
	AttrInverse
	AttrStrikethrough
	AttrDim
	AttrBlink
	attrReserved // bit 7, reserved, must be zero on the wire
)

// MaxCodepoint is the largest codepoint representable in 21 bits.
const MaxCodepoint = 1<<21 - 1

// MaxColor is the largest color representable in 24 bits.
const MaxColor = 1<<24 - 1

// Cell is one terminal grid position.
//
// Codepoint and the two color fields are stored as plain uint32 for
// simplicity; callers are responsible for keeping them within their wire
// ranges (21 and 24 bits respectively) before packing - Pack does not
// validate range, it only validates the reserved coordinate sentinel.
type Cell struct {
	Codepoint uint32
	FG        uint32
	BG        uint32
	Attrs     uint8
}

// Equal reports whether two cells have identical wire payload.
func (c Cell) Equal(other Cell) bool {
	return c == other
}

// Has reports whether the given attribute bit is set.
func (c Cell) Has(attr uint8) bool {
	return c.Attrs&attr != 0
}

// Diff asserts a new cell value at a grid position.
type Diff struct {
	X, Y uint16
	Cell Cell
}
