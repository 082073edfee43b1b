// Package codec provides the byte cursor shared by every persisted component.
//
// All fixed-width integers and floats are little-endian. Readers check the
// remaining length before every read and never index past the end of the buffer,
// so a truncated or corrupted payload surfaces as ErrShortBuffer instead of a panic.
//
// Changing the byte order or any field width is a breaking change: data written
// by older versions would no longer decode.
package codec

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when a read needs more bytes than remain.
var ErrShortBuffer = errors.New("codec: short buffer")

// ShortBufferError describes a read that ran past the end of the buffer.
//
// errors.Is(err, ErrShortBuffer) reports true for it.
type ShortBufferError struct {
	Need      int
	Remaining int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("codec: short buffer: need %d bytes, %d remaining", e.Need, e.Remaining)
}

func (e *ShortBufferError) Unwrap() error { return ErrShortBuffer }
