package cellsync

import "errors"

var (
	// ErrInvalidLabel is returned when a frame or ack record carries the
	// wrong label symbol.
	ErrInvalidLabel = errors.New("cellsync: invalid record label")

	// ErrMalformedPayload is returned when a packed cell stream ends
	// mid-record, or carries an illegal sentinel (x = 0xFFFF) in a literal
	// cell position.
	ErrMalformedPayload = errors.New("cellsync: malformed packed payload")

	// ErrDecodeError wraps a codec-level parse failure encountered while
	// decoding a frame or ack record.
	ErrDecodeError = errors.New("cellsync: decode error")
)
