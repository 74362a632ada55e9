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
	"errors"
	"io"
)

const oggCapture = "OggS"

var oggFileHeader = FileHeader{
	Name:        "ogg",
	Ext:         "ogg",
	Description: "Ogg bitstream",
	MIME:        []string{"ogg", "x-ogg", "opus", "vorbis"},
	Signatures:  [][]byte{[]byte(oggCapture)},
	Parse:       ScanOGG,
}

// ScanOGG reads pages until the input ends. Page CRCs are not checked.
func ScanOGG(r *Reader) (uint64, error) {
	var (
		lastGood uint64
		hdr      [27]byte
		lacing   [255]byte
	)
	for {
		n, err := io.ReadFull(r, hdr[:4])
		if n == 0 && errors.Is(err, io.EOF) {
			return lastGood, nil
		}
		if err != nil {
			return lastGood, unexpected(err)
		}
		if string(hdr[:4]) != oggCapture {
			return lastGood, violation("ogg", lastGood, "bad capture pattern %q", hdr[:4])
		}

		// version, header type, granule, serial, sequence, CRC, segment count
		if err := r.ReadFull(hdr[4:]); err != nil {
			return lastGood, err
		}
		if hdr[4] != 0 {
			return lastGood, violation("ogg", lastGood, "unknown version %d", hdr[4])
		}

		segments := int(hdr[26])
		if err := r.ReadFull(lacing[:segments]); err != nil {
			return lastGood, err
		}

		var payload int64
		for _, l := range lacing[:segments] {
			payload += int64(l)
		}
		if err := r.Skip(payload); err != nil {
			return lastGood, err
		}
		lastGood = uint64(r.Offset())
	}
}
