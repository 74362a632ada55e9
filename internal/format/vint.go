package format

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
)

var ErrInvalidVint = errors.New("invalid variable-length integer")

// UnknownSize is the decoded value of an all-ones EBML data size.
const UnknownSize = ^uint64(0)

// ReadEBMLID reads an element ID of up to 4 bytes. The length marker bit is
// part of the returned value.
func ReadEBMLID(r io.ByteReader) (uint32, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	n := bits.LeadingZeros8(first) + 1
	if n > 4 {
		return 0, fmt.Errorf("%w: element id wider than 4 bytes", ErrInvalidVint)
	}

	id := uint32(first)
	for i := 1; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, unexpected(err)
		}
		id = id<<8 | uint32(b)
	}
	return id, nil
}

// ReadEBMLSize reads a data size of up to 8 bytes with the length marker
// masked out. An all-ones value decodes to UnknownSize.
func ReadEBMLSize(r io.ByteReader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if first == 0 {
		return 0, fmt.Errorf("%w: data size wider than 8 bytes", ErrInvalidVint)
	}

	n := bits.LeadingZeros8(first) + 1
	v := uint64(first) & (0xff >> n)
	for i := 1; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, unexpected(err)
		}
		v = v<<8 | uint64(b)
	}

	if v == 1<<(7*n)-1 {
		return UnknownSize, nil
	}
	return v, nil
}

// EncodeEBMLSize returns the shortest encoding of v. The all-ones pattern of
// each width is reserved for the unknown size, so 127 needs two bytes.
func EncodeEBMLSize(v uint64) []byte {
	n := 1
	for n < 8 && v >= 1<<(7*n)-1 {
		n++
	}

	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	buf[0] |= 0x80 >> (n - 1)
	return buf
}

// ReadRARVint reads a RAR 5 variable-length integer: 7 bits per byte, least
// significant group first, 0x80 as the continuation flag.
func ReadRARVint(r io.ByteReader) (uint64, error) {
	const maxLen = 10

	var v uint64
	for i := 0; i < maxLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, unexpected(err)
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: rar vint longer than %d bytes", ErrInvalidVint, maxLen)
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
