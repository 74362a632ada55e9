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

var CABSignature = []byte{'M', 'S', 'C', 'F', 0, 0, 0, 0}

var cabFileHeader = FileHeader{
	Name:        "cab",
	Ext:         "cab",
	Description: "Microsoft Cabinet",
	MIME:        []string{"vnd.ms-cab-compressed"},
	Signatures:  [][]byte{CABSignature},
	Parse:       ScanCAB,
	Magic:       true,
}

// ScanCAB trusts the cabinet size of the CFHEADER once its reserved field
// checks out.
func ScanCAB(r *Reader) (uint64, error) {
	var hdr [16]byte
	if err := r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}
	if !slices.Equal(hdr[:8], CABSignature) {
		return 0, violation("cab", 0, "invalid signature")
	}

	size := binary.LittleEndian.Uint32(hdr[8:12])
	if reserved := binary.LittleEndian.Uint32(hdr[12:16]); reserved != 0 {
		return 0, violation("cab", 0, "reserved field is %#x", reserved)
	}
	if size < uint32(len(hdr)) {
		return 0, violation("cab", 0, "cabinet size %d shorter than its header", size)
	}

	if err := r.SeekTo(int64(size)); err != nil {
		return 0, err
	}
	return uint64(size), nil
}
