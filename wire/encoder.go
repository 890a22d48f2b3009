package wire

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf16"
)

// ErrStringTooLong reports a string whose UTF-16 encoding does not fit the
// 2-byte code-unit count.
var ErrStringTooLong = errors.New("wire: string exceeds 65535 UTF-16 code units")

// Encoder appends legacy wire primitives to a growable buffer.
// The zero value is ready to use. Encoder is not safe for concurrent use.
// The first failed push latches an error; later pushes are no-ops and Err
// reports it.
type Encoder struct {
	buf []byte
	err error
}

// PushString writes a 2-byte little-endian UTF-16 code-unit count followed
// by the UTF-16LE encoding of s.
func (e *Encoder) PushString(s string) {
	if e.err != nil {
		return
	}
	units := utf16.Encode([]rune(s))
	if len(units) > math.MaxUint16 {
		e.err = ErrStringTooLong
		return
	}
	e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(len(units)))
	for _, u := range units {
		e.buf = binary.LittleEndian.AppendUint16(e.buf, u)
	}
}

// PushInteger writes a 4-byte little-endian signed integer.
func (e *Encoder) PushInteger(n int32) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(n))
}

// PushFloat writes a 4-byte IEEE-754 little-endian float.
func (e *Encoder) PushFloat(f float32) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(f))
}

// PushRegList writes the address count as an integer, then each of the five
// parallel columns in full, every value as a float.
func (e *Encoder) PushRegList(rl RegList) {
	e.PushInteger(int32(rl.Len()))
	for _, col := range rl.columns() {
		for _, v := range col {
			e.PushFloat(v)
		}
	}
}

// Bytes returns the encoded buffer. The slice aliases the encoder's
// internal storage.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Err returns the first push failure, or nil.
func (e *Encoder) Err() error { return e.err }
