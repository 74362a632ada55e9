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
	"slices"
)

var (
	RAR5Signature   = []byte{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07, 0x01, 0x00}
	RAR4Signature   = []byte{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07, 0x00}
	RAROldSignature = []byte{0x52, 0x45, 0x7e, 0x5e}
)

var rarMIME = []string{"x-rar", "vnd.rar", "x-rar-compressed"}

var rar5FileHeader = FileHeader{
	Name:        "rar5",
	Ext:         "rar",
	Description: "RAR archive (v5)",
	MIME:        rarMIME,
	Signatures:  [][]byte{RAR5Signature},
	Parse:       ScanRAR5,
	Magic:       true,
}

var rar4FileHeader = FileHeader{
	Name:        "rar4",
	Ext:         "rar",
	Description: "RAR archive (v1.5 - v4)",
	MIME:        rarMIME,
	Signatures:  [][]byte{RAR4Signature},
	Parse:       ScanRAR4,
	Magic:       true,
}

var rarOldFileHeader = FileHeader{
	Name:        "rar-old",
	Ext:         "rar",
	Description: "RAR archive (pre 1.5)",
	MIME:        rarMIME,
	Signatures:  [][]byte{RAROldSignature},
	Parse:       ScanRAROld,
	Magic:       true,
}

// RAR 5 header types
const (
	rar5MainHeader       = 1
	rar5FileHeaderType   = 2
	rar5ServiceHeader    = 3
	rar5EncryptionHeader = 4
	rar5EndOfArchive     = 5

	// not defined by RAR 5.0, skipped like a service header
	rar5ExtraHeader = 7
)

// ScanRAR5 walks the blocks of a RAR 5 archive up to the end of archive
// header. An archive encryption header makes the rest unreadable and is
// reported as ErrEncrypted.
func ScanRAR5(r *Reader) (uint64, error) {
	const (
		flagExtraArea = 0x0001
		flagDataArea  = 0x0002
	)

	if err := r.Skip(int64(len(RAR5Signature))); err != nil {
		return 0, err
	}

	var lastGood uint64
	for {
		// header CRC32, not verified
		if err := r.Skip(4); err != nil {
			return lastGood, err
		}
		headSize, err := ReadRARVint(r)
		if err != nil {
			return lastGood, err
		}
		start := r.Offset()

		typ, err := ReadRARVint(r)
		if err != nil {
			return lastGood, err
		}
		flags, err := ReadRARVint(r)
		if err != nil {
			return lastGood, err
		}
		if (typ < rar5MainHeader || typ > rar5EndOfArchive) && typ != rar5ExtraHeader {
			return lastGood, violation("rar5", lastGood, "unknown header type %d", typ)
		}

		if flags&flagExtraArea != 0 {
			if _, err := ReadRARVint(r); err != nil {
				return lastGood, err
			}
		}
		var dataSize uint64
		if flags&flagDataArea != 0 {
			if dataSize, err = ReadRARVint(r); err != nil {
				return lastGood, err
			}
		}

		if headSize > uint64(r.Size()) || dataSize > uint64(r.Size()) {
			return lastGood, violation("rar5", lastGood, "block larger than input")
		}
		if err := r.SeekTo(start + int64(headSize)); err != nil {
			return lastGood, err
		}
		if err := r.Skip(int64(dataSize)); err != nil {
			return lastGood, err
		}
		lastGood = uint64(r.Offset())

		switch typ {
		case rar5EndOfArchive:
			return lastGood, nil
		case rar5EncryptionHeader:
			return lastGood, ErrEncrypted
		}
	}
}

// RAR 1.5 - 4 block types
const (
	rar4MarkBlock    = 0x72
	rar4ArchiveBlock = 0x73
	rar4EndBlock     = 0x7b

	rar4LongBlock = 0x8000
	rar4Password  = 0x0080
)

// ScanRAR4 walks the blocks of a RAR 1.5 - 4 archive starting with the
// marker block, which is itself a well formed block of type 0x72.
func ScanRAR4(r *Reader) (uint64, error) {
	var (
		lastGood uint64
		buf      [7]byte
	)
	for {
		start := r.Offset()

		// crc u16, type u8, flags u16, size u16
		if err := r.ReadFull(buf[:]); err != nil {
			return lastGood, err
		}
		typ := buf[2]
		flags := binary.LittleEndian.Uint16(buf[3:5])
		size := int64(binary.LittleEndian.Uint16(buf[5:7]))

		if flags&rar4LongBlock != 0 {
			add, err := readU32(r, binary.LittleEndian)
			if err != nil {
				return lastGood, err
			}
			size += int64(add)
		}
		if typ < rar4MarkBlock || typ > rar4EndBlock {
			return lastGood, violation("rar4", lastGood, "unknown block type 0x%02x", typ)
		}
		if size < int64(len(buf)) {
			return lastGood, violation("rar4", lastGood, "block size %d shorter than its header", size)
		}

		if err := r.SeekTo(start + size); err != nil {
			return lastGood, err
		}
		lastGood = uint64(r.Offset())

		switch {
		case typ == rar4EndBlock:
			return lastGood, nil
		case typ == rar4ArchiveBlock && flags&rar4Password != 0:
			return lastGood, ErrEncrypted
		}
	}
}

// ScanRAROld recognizes the pre 1.5 signature without claiming any extent.
func ScanRAROld(r *Reader) (uint64, error) {
	sig, err := r.Peek(len(RAROldSignature))
	if err != nil {
		return 0, unexpected(err)
	}
	if !slices.Equal(sig, RAROldSignature) {
		return 0, violation("rar-old", 0, "invalid signature")
	}
	return 0, nil
}
