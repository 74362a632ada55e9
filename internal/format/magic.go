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
	"iter"
)

const DefaultWindowSize = 1 << 20

// MagicHit is one magic-family signature found at Start and the outcome of
// parsing from there. Outcome.Offset is relative to Start.
type MagicHit struct {
	Start   int64
	Header  *FileHeader
	Outcome Outcome
}

// Span returns the number of bytes the parser verified.
func (h MagicHit) Span() uint64 {
	return h.Outcome.Offset
}

// MagicScanner searches the whole input for the signatures of the magic
// family and parses every occurrence.
type MagicScanner struct {
	registry   *FileRegistry
	windowSize int
}

func NewMagicScanner(registry *FileRegistry, windowSize int) *MagicScanner {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &MagicScanner{
		registry:   registry,
		windowSize: windowSize,
	}
}

// Scan streams src in windows that overlap by the longest signature minus
// one byte, so that every occurrence is seen exactly once. Each occurrence
// is parsed with a fresh Reader starting at the signature, unless it lies
// inside a container of the same format found earlier, e.g. the further
// local headers of a ZIP file.
func (sc *MagicScanner) Scan(src io.ReaderAt, size int64) iter.Seq2[MagicHit, error] {
	return func(yield func(MagicHit, error) bool) {
		maxSig := sc.registry.MaxMagicLen()
		if maxSig == 0 || size <= 0 {
			return
		}

		overlap := maxSig - 1
		buf := make([]byte, sc.windowSize+overlap)

		// end of the last verified container, per format
		covered := make(map[*FileHeader]int64)

		for base := int64(0); base < size; base += int64(sc.windowSize) {
			n, err := src.ReadAt(buf[:min(int64(len(buf)), size-base)], base)
			if err != nil && !errors.Is(err, io.EOF) {
				yield(MagicHit{}, err)
				return
			}

			window := buf[:n]
			last := base+int64(n) >= size

			// positions in the overlap belong to the next window
			end := min(n, sc.windowSize)
			if last {
				end = n
			}

			for i := 0; i < end; i++ {
				for hdr := range sc.registry.SearchMagic(window[i:]) {
					start := base + int64(i)
					if start < covered[hdr] {
						continue
					}
					r := NewReader(io.NewSectionReader(src, start, size-start), size-start)

					hit := MagicHit{
						Start:   start,
						Header:  hdr,
						Outcome: Parse(hdr, r),
					}
					if !hit.Outcome.Encrypted {
						covered[hdr] = start + int64(hit.Span())
					}
					if !yield(hit, nil) {
						return
					}
				}
			}

			if last {
				return
			}
		}
	}
}
