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
	"io"

	"github.com/ostafen/trailscan/internal/format"
)

const nullBlockSize = 64 * 1024

// NullEnd returns the offset just past the last non-zero byte of the first
// size bytes of src. An all-zero input yields 0.
func NullEnd(src io.ReaderAt, size int64) (uint64, error) {
	buf := make([]byte, nullBlockSize)

	for end := size; end > 0; {
		start := max(0, end-nullBlockSize)
		block := buf[:end-start]

		n, err := src.ReadAt(block, start)
		if err != nil && !(errors.Is(err, io.EOF) && n == len(block)) {
			return 0, err
		}

		if i := lastNonZero(block); i >= 0 {
			return uint64(start) + uint64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

func lastNonZero(block []byte) int {
	for i := len(block) - 1; i >= 0; i-- {
		if block[i] != 0 {
			return i
		}
	}
	return -1
}

// SeekTrailers advances pos over any run of trailers and returns the new
// position. At each step the trailers are tried in order and the first one
// found at the position is consumed.
func SeekTrailers(src io.ReaderAt, size int64, pos uint64, trailers [][]byte) (uint64, error) {
	longest := 0
	for _, t := range trailers {
		longest = max(longest, len(t))
	}
	if longest == 0 || int64(pos) >= size {
		return pos, nil
	}

	r := format.NewReader(io.NewSectionReader(src, int64(pos), size-int64(pos)), size-int64(pos))
	for {
		next, err := r.Peek(longest)
		if err != nil && !errors.Is(err, io.EOF) {
			return pos + uint64(r.Offset()), err
		}
		if len(next) == 0 {
			break
		}

		n := matchPrefix(next, trailers)
		if n == 0 {
			break
		}
		if err := r.Skip(int64(n)); err != nil {
			return pos + uint64(r.Offset()), err
		}
	}
	return pos + uint64(r.Offset()), nil
}

func matchPrefix(data []byte, trailers [][]byte) int {
	for _, t := range trailers {
		if len(t) > 0 && bytes.HasPrefix(data, t) {
			return len(t)
		}
	}
	return 0
}
