package syrup

import "errors"

// Sentinel decode errors. Every error returned by Decode wraps one of these
// (mostly inside a *DecodeError, a few via fmt.Errorf("%w: ...", sentinel))
// so callers can use errors.Is.
var (
	// ErrUnexpectedEnd means the buffer ended before a value finished.
	ErrUnexpectedEnd = errors.New("syrup: unexpected end of input")

	// ErrInvalidFormat means a byte sequence does not match any wire token.
	ErrInvalidFormat = errors.New("syrup: invalid format")

	// ErrNonCanonicalOrder means a dictionary or set's elements are not in
	// strictly ascending canonical wire order.
	ErrNonCanonicalOrder = errors.New("syrup: non-canonical container order")

	// ErrDecimalOverflow means a decimal integer token exceeds the
	// implementation's limits (see maxIntDecimalDigits and maxLenDigits).
	ErrDecimalOverflow = errors.New("syrup: decimal literal too large")

	// ErrTrailingData means Decode was asked to consume a whole buffer but
	// bytes remained after the top-level value.
	ErrTrailingData = errors.New("syrup: trailing data after value")

	// ErrDuplicateKey means NewDict was given two entries with equal keys.
	ErrDuplicateKey = errors.New("syrup: duplicate dictionary key")
)

// DecodeError carries the byte offset at which decoding failed, in addition
// to one of the sentinels above (retrievable via errors.Is/errors.As).
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(offset int, sentinel error) error {
	return &DecodeError{Offset: offset, Err: sentinel}
}
