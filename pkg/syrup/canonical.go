package syrup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// smallSortThreshold is the cutover point between insertion sort and the
// stdlib comparison sort for canonical container construction (§4.4).
const smallSortThreshold = 8

// NewDict builds a canonically-sorted dictionary value from an unsorted
// slice of entries. Duplicate keys are rejected - canonical dictionaries
// have no use for them and the wire form cannot distinguish "last write
// wins" from "first write wins" once sorted.
func NewDict(entries []DictEntry) (Value, error) {
	sorted := make([]DictEntry, len(entries))
	copy(sorted, entries)

	sortDictEntries(sorted)

	for i := 1; i < len(sorted); i++ {
		if Compare(sorted[i-1].Key, sorted[i].Key) == 0 {
			return Value{}, ErrDuplicateKey
		}
	}

	return Value{kind: KindDict, dict: sorted}, nil
}

// NewSet builds a canonically-sorted set value from an unsorted slice of
// elements. Duplicate elements are silently collapsed, matching ordinary
// set semantics.
func NewSet(elems []Value) Value {
	sorted := make([]Value, len(elems))
	copy(sorted, elems)

	sortValues(sorted)

	out := sorted[:0:0] //nolint:staticcheck // intentional zero-cap slice rebuild
	for i, v := range sorted {
		if i > 0 && Compare(sorted[i-1], v) == 0 {
			continue
		}

		out = append(out, v)
	}

	return Value{kind: KindSet, set: out}
}

func sortDictEntries(entries []DictEntry) {
	if len(entries) <= smallSortThreshold {
		insertionSortDictEntries(entries)
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return Compare(entries[i].Key, entries[j].Key) < 0
	})
}

func insertionSortDictEntries(entries []DictEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && Compare(entries[j-1].Key, entries[j].Key) > 0; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func sortValues(values []Value) {
	if len(values) <= smallSortThreshold {
		insertionSortValues(values)
		return
	}

	sort.Slice(values, func(i, j int) bool {
		return Compare(values[i], values[j]) < 0
	})
}

func insertionSortValues(values []Value) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && Compare(values[j-1], values[j]) > 0; j-- {
			values[j-1], values[j] = values[j], values[j-1]
		}
	}
}

// ContentID returns the SHA-256 digest of v's canonical encoded bytes, as
// 32 raw bytes.
func ContentID(v Value) ([32]byte, error) {
	b, err := Encode(v)
	if err != nil {
		return [32]byte{}, err
	}

	return sha256.Sum256(b), nil
}

// ContentIDHex is ContentID rendered as 64 lowercase hex characters.
func ContentIDHex(v Value) (string, error) {
	sum, err := ContentID(v)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sum[:]), nil
}
