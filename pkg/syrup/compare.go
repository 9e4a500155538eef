package syrup

import (
	"bytes"
	"hash/maphash"
	"math"
	"strconv"
)

// labelUndefined and labelNull are the synthetic symbols used to rank the
// undefined and null singletons against records and tagged/error values
// (§4.1 "record-like" comparison).
const (
	labelTaggedSymbol = "desc:tag"
	labelErrorSymbol  = "desc:error"
	labelUndefined    = "undefined"
	labelNull         = "null"
)

// synthesize returns the comparison-only (label, fields) pair for any
// record-like value, per §4.1:
//
//	record            -> (its own label, its own fields)
//	tagged             -> (symbol "desc:tag", [tag string, payload])
//	error              -> (symbol "desc:error", [message string, id bytes, data dict])
//	undefined / null   -> (same-named symbol, no fields)
func synthesize(v Value) (label Value, fields []Value) {
	switch v.kind {
	case KindRecord:
		l, f := v.AsRecord()
		return l, f
	case KindTagged:
		tag, payload := v.AsTagged()
		return Symbol(labelTaggedSymbol), []Value{String(tag), payload}
	case KindError:
		msg, id, data := v.AsError()
		return Symbol(labelErrorSymbol), []Value{String(msg), Bytes(id), data}
	case KindUndefined:
		return Symbol(labelUndefined), nil
	case KindNull:
		return Symbol(labelNull), nil
	default:
		return Value{}, nil
	}
}

// Compare defines the total canonical order over syrup values (§4.1): first
// by wire-ordering rank, then by a kind-specific rule.
func Compare(a, b Value) int {
	ra, rb := a.kind.rank(), b.kind.rank()
	if ra != rb {
		return cmpInt(ra, rb)
	}

	switch a.kind {
	case KindBool:
		return cmpBool(a.b, b.b)
	case KindInt:
		return a.i.Cmp(b.i)
	case KindFloat32:
		return cmpFloat(float64(a.f32), float64(b.f32))
	case KindFloat64:
		return cmpFloat(a.f64, b.f64)
	case KindBytes:
		return compareLengthPrefixed(len(a.bytes), a.bytes, len(b.bytes), b.bytes)
	case KindString, KindSymbol:
		return compareLengthPrefixed(len(a.str), []byte(a.str), len(b.str), []byte(b.str))
	case KindList:
		return compareValueSlices(a.list, b.list)
	case KindSet:
		return compareValueSlices(a.set, b.set)
	case KindDict:
		return compareDictEntries(a.dict, b.dict)
	default: // record-like
		la, fa := synthesize(a)
		lb, fb := synthesize(b)

		if c := Compare(la, lb); c != 0 {
			return c
		}

		return compareValueSlices(fa, fb)
	}
}

// Equal reports whether a and b compare equal.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}

	if !a { // false < true
		return -1
	}

	return 1
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareLengthPrefixed implements the length-prefixed comparison rule:
// compare the decimal string of the length first (so length 9 sorts AFTER
// length 10, reproducing the wire order), then compare content bytes.
func compareLengthPrefixed(aLen int, aBytes []byte, bLen int, bBytes []byte) int {
	la, lb := strconv.Itoa(aLen), strconv.Itoa(bLen)
	if la != lb {
		if la < lb {
			return -1
		}

		return 1
	}

	return bytes.Compare(aBytes, bBytes)
}

// compareValueSlices implements "lexicographic on elements, then by length".
func compareValueSlices(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}

	return cmpInt(len(a), len(b))
}

// compareDictEntries implements "lexicographic on (key, value) pairs, then
// by length".
func compareDictEntries(a, b []DictEntry) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if c := Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}

		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}

	return cmpInt(len(a), len(b))
}

// hashSeed is process-global and fixed for the life of the process; Hash is
// only used for in-memory structures (maps, dedup sets), never persisted,
// so seed stability across runs is not required.
var hashSeed = maphash.MakeSeed()

// Hash returns a 64-bit hash of v that agrees with Equal: two values that
// compare equal always hash equal. It feeds a universal hasher the kind's
// wire-ordering rank followed by kind-specific bytes in the same canonical
// order Compare uses, so the two can never disagree.
//
// NaN floats have unspecified comparison behavior (§4.1) and must not be
// fed into canonical containers; Hash does not special-case them.
func Hash(v Value) uint64 {
	var h maphash.Hash

	h.SetSeed(hashSeed)
	writeHash(&h, v)

	return h.Sum64()
}

func writeHash(h *maphash.Hash, v Value) {
	_ = h.WriteByte(byte(v.kind.rank()))

	switch v.kind {
	case KindBool:
		if v.b {
			_ = h.WriteByte(1)
		} else {
			_ = h.WriteByte(0)
		}
	case KindInt:
		_ = h.WriteByte(byte(v.i.Sign() + 1))
		_, _ = h.Write(v.i.Bytes())
	case KindFloat32:
		f := v.f32
		if f == 0 {
			f = 0 // -0 compares equal to +0, so hash both as +0
		}

		writeU64(h, uint64(math.Float32bits(f)))
	case KindFloat64:
		f := v.f64
		if f == 0 {
			f = 0 // -0 compares equal to +0, so hash both as +0
		}

		writeU64(h, math.Float64bits(f))
	case KindBytes:
		writeLenPrefixed(h, v.bytes)
	case KindString, KindSymbol:
		writeLenPrefixed(h, []byte(v.str))
	case KindList:
		writeValueSliceHash(h, v.list)
	case KindSet:
		writeValueSliceHash(h, v.set)
	case KindDict:
		writeU64(h, uint64(len(v.dict)))

		for _, e := range v.dict {
			writeHash(h, e.Key)
			writeHash(h, e.Value)
		}
	default: // record-like
		label, fields := synthesize(v)
		writeHash(h, label)
		writeValueSliceHash(h, fields)
	}
}

func writeValueSliceHash(h *maphash.Hash, vs []Value) {
	writeU64(h, uint64(len(vs)))
	for _, v := range vs {
		writeHash(h, v)
	}
}

func writeLenPrefixed(h *maphash.Hash, b []byte) {
	writeU64(h, uint64(len(b)))
	_, _ = h.Write(b)
}

func writeU64(h *maphash.Hash, n uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(n >> (8 * (7 - i)))
	}

	_, _ = h.Write(buf[:])
}
