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
package marker

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ostafen/trailscan/internal/format"
)

// Set is a group of terminal markers for one format.
type Set struct {
	Name    string
	Markers [][]byte

	// Continue makes the scan run to the end of the input so that the last
	// match wins. Otherwise the scan stops at the first byte that does not
	// extend a match.
	Continue bool
}

// PDF files end with an end-of-file marker; incremental updates append
// further ones.
var PDF = Set{
	Name:     "pdf",
	Markers:  [][]byte{[]byte("%%EOF")},
	Continue: true,
}

// SVG documents end with the closing root tag and an optional line break.
var SVG = Set{
	Name: "svg",
	Markers: [][]byte{
		[]byte("</svg>"), []byte("</svg>\n"), []byte("</svg>\r\n"), []byte("</svg>\r"),
		[]byte("</SVG>"), []byte("</SVG>\n"), []byte("</SVG>\r\n"), []byte("</SVG>\r"),
	},
}

// Trailers that may follow the end of any format.
var DefaultTrailers = [][]byte{
	{0x00},
	{' '},
	{'\r'},
	{'\n'},
	{'\r', '\n'},
}

// Scan runs Find over the first size bytes of src.
func (s Set) Scan(src io.ReaderAt, size int64) (uint64, bool, error) {
	r := format.NewReader(src, size)
	return Find(r, s.Markers, s.Continue)
}

// Find slides a window as long as the longest marker over r, one byte at a
// time, and returns the offset just past the last recorded match.
func Find(r *format.Reader, markers [][]byte, cont bool) (uint64, bool, error) {
	longest := 0
	for _, m := range markers {
		longest = max(longest, len(m))
	}
	if longest == 0 {
		return 0, false, errors.New("marker.Find: no markers")
	}

	var (
		window = make([]byte, 0, 2*longest)
		last   uint64
		found  bool
	)
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return last, found, nil
		}
		if err != nil {
			return last, found, fmt.Errorf("marker.Find: %w", err)
		}

		if len(window) == cap(window) {
			window = append(window[:0], window[len(window)-longest+1:]...)
		}
		window = append(window, b)

		if matchSuffix(window, markers) {
			last = uint64(r.Offset())
			found = true
		} else if found && !cont {
			return last, true, nil
		}
	}
}

func matchSuffix(window []byte, markers [][]byte) bool {
	for _, m := range markers {
		if bytes.HasSuffix(window, m) {
			return true
		}
	}
	return false
}
