package wire

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf16"
)

// ErrShortBuffer is returned when a read runs past the end of the buffer.
var ErrShortBuffer = errors.New("wire: short buffer")

// Decoder reads legacy wire primitives from a buffer produced by Encoder.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder creates a decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// ReadString reads a 2-byte little-endian code-unit count followed by that
// many UTF-16LE code units.
func (d *Decoder) ReadString() (string, error) {
	count, err := d.readUint16()
	if err != nil {
		return "", err
	}

	units := make([]uint16, count)
	for i := range units {
		units[i], err = d.readUint16()
		if err != nil {
			return "", err
		}
	}
	return string(utf16.Decode(units)), nil
}

// ReadInteger reads a 4-byte little-endian signed integer.
func (d *Decoder) ReadInteger() (int32, error) {
	if d.off+4 > len(d.buf) {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return int32(v), nil
}

// ReadFloat reads a 4-byte IEEE-754 little-endian float.
func (d *Decoder) ReadFloat() (float32, error) {
	if d.off+4 > len(d.buf) {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return math.Float32frombits(v), nil
}

// ReadRegList reads an address count followed by the five parallel columns.
func (d *Decoder) ReadRegList() (RegList, error) {
	count, err := d.ReadInteger()
	if err != nil {
		return RegList{}, err
	}
	if count < 0 {
		return RegList{}, ErrShortBuffer
	}

	cols := make([][]float32, 5)
	for i := range cols {
		cols[i] = make([]float32, count)
		for j := int32(0); j < count; j++ {
			cols[i][j], err = d.ReadFloat()
			if err != nil {
				return RegList{}, err
			}
		}
	}
	return RegList{
		Addresses: cols[0],
		DataTypes: cols[1],
		Values:    cols[2],
		DBValues:  cols[3],
		BitInfos:  cols[4],
	}, nil
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) readUint16() (uint16, error) {
	if d.off+2 > len(d.buf) {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}
