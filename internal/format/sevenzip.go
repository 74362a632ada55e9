// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package format

import (
	"encoding/binary"
	"hash/crc32"
	"slices"
)

var SevenZipSignature = []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}

var sevenZipFileHeader = FileHeader{
	Name:        "7z",
	Ext:         "7z",
	Description: "7-Zip archive",
	MIME:        []string{"x-7z-compressed"},
	Signatures:  [][]byte{SevenZipSignature},
	Parse:       Scan7z,
	Magic:       true,
}

const sevenZipStartHeaderSize = 32

// Scan7z reads the signature header, checks its CRC and seeks over the packed
// streams and the next header it points to.
func Scan7z(r *Reader) (uint64, error) {
	var hdr [sevenZipStartHeaderSize]byte
	if err := r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}
	if !slices.Equal(hdr[:6], SevenZipSignature) {
		return 0, violation("7z", 0, "invalid signature")
	}

	// hdr[6:8] is the format version
	crc := binary.LittleEndian.Uint32(hdr[8:12])
	if got := crc32.ChecksumIEEE(hdr[12:]); got != crc {
		return 0, violation("7z", 0, "start header crc %08x, want %08x", got, crc)
	}

	nextOffset := binary.LittleEndian.Uint64(hdr[12:20])
	nextSize := binary.LittleEndian.Uint64(hdr[20:28])

	lastGood := uint64(sevenZipStartHeaderSize)
	if nextOffset > uint64(r.Remaining()) {
		return lastGood, violation("7z", lastGood, "next header offset %d past the end", nextOffset)
	}
	if err := r.Skip(int64(nextOffset)); err != nil {
		return lastGood, err
	}
	lastGood = uint64(r.Offset())

	if nextSize > uint64(r.Remaining()) {
		return lastGood, violation("7z", lastGood, "next header size %d past the end", nextSize)
	}
	if err := r.Skip(int64(nextSize)); err != nil {
		return lastGood, err
	}
	return uint64(r.Offset()), nil
}
