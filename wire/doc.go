// Package wire implements the legacy binary layout of outbound transaction
// buffers consumed by the field communication service.
//
// The layout is a compatibility contract and must be reproduced bit for bit:
// strings are a 2-byte little-endian UTF-16 code-unit count followed by the
// UTF-16LE bytes, integers are 4-byte little-endian, and register lists carry
// five parallel columns of 4-byte IEEE-754 little-endian floats in
// address-sorted order. Integral register fields (address, datatype) travel
// as floats on the wire; that is the existing contract, not a representation
// choice made here.
package wire
