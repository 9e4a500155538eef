package syrup

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// bigIntDecimalMagnitudeLimit is the magnitude byte length at or below which
// the encoder emits the plain decimal integer form instead of the explicit
// 'B' big-integer form (§4.2, §9 "big-integer unary fast path").
const bigIntDecimalMagnitudeLimit = 16

// Encode serializes v to its canonical wire form.
func Encode(v Value) ([]byte, error) {
	n, err := EncodedLen(v)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, n)

	buf, err = appendValue(buf, v)
	if err != nil {
		return nil, err
	}

	return buf, nil
}

// EncodedLen returns the exact number of bytes Encode(v) would produce,
// without emitting any bytes, so callers can pre-allocate.
func EncodedLen(v Value) (int, error) {
	switch v.kind {
	case KindBool:
		return 1, nil
	case KindInt:
		return intEncodedLen(v.i), nil
	case KindFloat32:
		return 1 + 4, nil
	case KindFloat64:
		return 1 + 8, nil
	case KindBytes:
		return lenPrefixedEncodedLen(len(v.bytes), ':'), nil
	case KindString:
		return lenPrefixedEncodedLen(len(v.str), '"'), nil
	case KindSymbol:
		return lenPrefixedEncodedLen(len(v.str), '\''), nil
	case KindList:
		return containerEncodedLen(v.list, 1+1) // '[' + ']'
	case KindDict:
		n := 2 // '{' + '}'
		for _, e := range v.dict {
			kl, err := EncodedLen(e.Key)
			if err != nil {
				return 0, err
			}

			vl, err := EncodedLen(e.Value)
			if err != nil {
				return 0, err
			}

			n += kl + vl
		}

		return n, nil
	case KindSet:
		return containerEncodedLen(v.set, 1+1) // '#' + '$'
	default: // record-like
		return recordLikeEncodedLen(v)
	}
}

func containerEncodedLen(elems []Value, wrap int) (int, error) {
	n := wrap

	for _, e := range elems {
		el, err := EncodedLen(e)
		if err != nil {
			return 0, err
		}

		n += el
	}

	return n, nil
}

func recordLikeEncodedLen(v Value) (int, error) {
	switch v.kind {
	case KindRecord:
		if v.label == nil || (v.label.kind != KindString && v.label.kind != KindSymbol) {
			return 0, fmt.Errorf("%w: record label must be string or symbol", ErrInvalidFormat)
		}

		ll, err := EncodedLen(*v.label)
		if err != nil {
			return 0, err
		}

		fl, err := containerEncodedLen(v.fields, 0)
		if err != nil {
			return 0, err
		}

		return 1 + ll + fl + 1, nil // '<' label fields '>'
	case KindTagged:
		if v.payload == nil {
			return 0, fmt.Errorf("%w: tagged value missing payload", ErrInvalidFormat)
		}

		pl, err := EncodedLen(*v.payload)
		if err != nil {
			return 0, err
		}

		return 1 + lenPrefixedEncodedLen(len(labelTaggedSymbol), '\'') +
			lenPrefixedEncodedLen(len(v.tag), '"') + pl + 1, nil
	case KindError:
		if v.errData == nil || v.errData.kind != KindDict {
			return 0, fmt.Errorf("%w: error data must be a dict", ErrInvalidFormat)
		}

		dl, err := EncodedLen(*v.errData)
		if err != nil {
			return 0, err
		}

		return 1 + lenPrefixedEncodedLen(len(labelErrorSymbol), '\'') +
			lenPrefixedEncodedLen(len(v.errMsg), '"') +
			lenPrefixedEncodedLen(len(v.errID), ':') + dl + 1, nil
	case KindUndefined:
		return 1 + lenPrefixedEncodedLen(len(labelUndefined), '\'') + 1, nil
	case KindNull:
		return 1 + lenPrefixedEncodedLen(len(labelNull), '\'') + 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind", ErrInvalidFormat)
	}
}

// lenPrefixedEncodedLen returns the encoded size of a <len><marker><bytes>
// token: decimal digits of n, the one-byte marker, and n content bytes.
func lenPrefixedEncodedLen(n int, _ byte) int {
	return len(strconv.Itoa(n)) + 1 + n
}

func intEncodedLen(z *big.Int) int {
	mag := z.Bytes()
	if len(mag) <= bigIntDecimalMagnitudeLimit {
		return len(absDecimalDigits(z)) + 1 // digits (abs value) + sign byte
	}

	signLen := 1 + len(mag) // sign byte + magnitude
	return 1 + len(strconv.Itoa(signLen)) + 1 + signLen
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindBool:
		if v.b {
			return append(buf, 't'), nil
		}

		return append(buf, 'f'), nil
	case KindInt:
		return appendInt(buf, v.i), nil
	case KindFloat32:
		buf = append(buf, 'F')
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v.f32))

		return append(buf, tmp[:]...), nil
	case KindFloat64:
		buf = append(buf, 'D')
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v.f64))

		return append(buf, tmp[:]...), nil
	case KindBytes:
		return appendLenPrefixed(buf, ':', v.bytes), nil
	case KindString:
		return appendLenPrefixed(buf, '"', []byte(v.str)), nil
	case KindSymbol:
		return appendLenPrefixed(buf, '\'', []byte(v.str)), nil
	case KindList:
		return appendContainer(buf, '[', ']', v.list)
	case KindDict:
		buf = append(buf, '{')

		for _, e := range v.dict {
			var err error

			buf, err = appendValue(buf, e.Key)
			if err != nil {
				return nil, err
			}

			buf, err = appendValue(buf, e.Value)
			if err != nil {
				return nil, err
			}
		}

		return append(buf, '}'), nil
	case KindSet:
		return appendContainer(buf, '#', '$', v.set)
	default: // record-like
		return appendRecordLike(buf, v)
	}
}

func appendContainer(buf []byte, open, closeB byte, elems []Value) ([]byte, error) {
	buf = append(buf, open)

	for _, e := range elems {
		var err error

		buf, err = appendValue(buf, e)
		if err != nil {
			return nil, err
		}
	}

	return append(buf, closeB), nil
}

func appendRecordLike(buf []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindRecord:
		if v.label == nil || (v.label.kind != KindString && v.label.kind != KindSymbol) {
			return nil, fmt.Errorf("%w: record label must be string or symbol", ErrInvalidFormat)
		}

		buf = append(buf, '<')

		var err error

		buf, err = appendValue(buf, *v.label)
		if err != nil {
			return nil, err
		}

		for _, field := range v.fields {
			buf, err = appendValue(buf, field)
			if err != nil {
				return nil, err
			}
		}

		return append(buf, '>'), nil
	case KindTagged:
		if v.payload == nil {
			return nil, fmt.Errorf("%w: tagged value missing payload", ErrInvalidFormat)
		}

		buf = append(buf, '<')
		buf = appendLenPrefixed(buf, '\'', []byte(labelTaggedSymbol))
		buf = appendLenPrefixed(buf, '"', []byte(v.tag))

		var err error

		buf, err = appendValue(buf, *v.payload)
		if err != nil {
			return nil, err
		}

		return append(buf, '>'), nil
	case KindError:
		if v.errData == nil || v.errData.kind != KindDict {
			return nil, fmt.Errorf("%w: error data must be a dict", ErrInvalidFormat)
		}

		buf = append(buf, '<')
		buf = appendLenPrefixed(buf, '\'', []byte(labelErrorSymbol))
		buf = appendLenPrefixed(buf, '"', []byte(v.errMsg))
		buf = appendLenPrefixed(buf, ':', v.errID)

		var err error

		buf, err = appendValue(buf, *v.errData)
		if err != nil {
			return nil, err
		}

		return append(buf, '>'), nil
	case KindUndefined:
		buf = append(buf, '<')
		buf = appendLenPrefixed(buf, '\'', []byte(labelUndefined))

		return append(buf, '>'), nil
	case KindNull:
		buf = append(buf, '<')
		buf = appendLenPrefixed(buf, '\'', []byte(labelNull))

		return append(buf, '>'), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind", ErrInvalidFormat)
	}
}

func appendLenPrefixed(buf []byte, marker byte, content []byte) []byte {
	buf = strconv.AppendInt(buf, int64(len(content)), 10)
	buf = append(buf, marker)

	return append(buf, content...)
}

// absDecimalDigits returns the decimal digits of |z|, with "0" for zero.
func absDecimalDigits(z *big.Int) string {
	if z.Sign() == 0 {
		return "0"
	}

	return new(big.Int).Abs(z).Text(10)
}

func appendInt(buf []byte, z *big.Int) []byte {
	mag := z.Bytes()
	if len(mag) <= bigIntDecimalMagnitudeLimit {
		buf = append(buf, absDecimalDigits(z)...)
		if z.Sign() < 0 {
			return append(buf, '-')
		}

		return append(buf, '+')
	}

	signByte := byte('+')
	if z.Sign() < 0 {
		signByte = '-'
	}

	payload := make([]byte, 1+len(mag))
	payload[0] = signByte
	copy(payload[1:], mag)

	buf = append(buf, 'B')
	buf = strconv.AppendInt(buf, int64(len(payload)), 10)
	buf = append(buf, ':')

	return append(buf, payload...)
}
