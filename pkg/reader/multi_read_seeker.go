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
package reader

import (
	"fmt"
	"io"
	"sort"
)

// Segment is one part of a MultiReadSeeker.
type Segment struct {
	R    io.ReadSeeker
	Size int64
}

// MultiReadSeeker presents a sequence of segments as one contiguous,
// seekable stream.
type MultiReadSeeker struct {
	segments []Segment
	ends     []int64 // ends[i] is the offset just past segments[i]

	curr    int
	currOff int64
	size    int64
}

func NewMultiReadSeeker(segments ...Segment) *MultiReadSeeker {
	ends := make([]int64, len(segments))

	var size int64
	for i, s := range segments {
		size += s.Size
		ends[i] = size
	}

	return &MultiReadSeeker{
		curr:     -1,
		segments: segments,
		ends:     ends,
		size:     size,
	}
}

// Size returns the total length of all segments.
func (r *MultiReadSeeker) Size() int64 {
	return r.size
}

func (r *MultiReadSeeker) Read(buf []byte) (int, error) {
	if len(r.segments) == 0 {
		return 0, io.EOF
	}

	if r.curr < 0 {
		if err := r.enter(0); err != nil {
			return 0, err
		}
	}

	bytesRead := 0
	for bytesRead < len(buf) && r.curr < len(r.segments) {
		seg := r.segments[r.curr]

		// never read past the declared size of a segment
		want := min(int64(len(buf)-bytesRead), r.ends[r.curr]-r.currOff)

		var (
			n   int
			err error
		)
		if want > 0 {
			n, err = seg.R.Read(buf[bytesRead : bytesRead+int(want)])
			if err != nil && err != io.EOF {
				return bytesRead, err
			}
			bytesRead += n
			r.currOff += int64(n)
		}

		if want <= 0 || err == io.EOF || r.currOff >= r.ends[r.curr] {
			if r.curr+1 == len(r.segments) {
				r.curr++
				break
			}
			if err := r.enter(r.curr + 1); err != nil {
				return bytesRead, err
			}
		}
	}

	if bytesRead < len(buf) {
		return bytesRead, io.EOF
	}
	return bytesRead, nil
}

func (r *MultiReadSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += r.currOff
	case io.SeekEnd:
		offset += r.size
	default:
		return -1, fmt.Errorf("MultiReadSeeker.Seek: invalid whence (%d)", whence)
	}

	if offset < 0 {
		return -1, fmt.Errorf("MultiReadSeeker.Seek: negative position")
	}

	if offset >= r.size {
		r.currOff = offset
		r.curr = len(r.segments)
		return offset, nil
	}

	i := sort.Search(len(r.segments), func(i int) bool {
		return r.ends[i] > offset
	})

	base := r.ends[i] - r.segments[i].Size
	if _, err := r.segments[i].R.Seek(offset-base, io.SeekStart); err != nil {
		return -1, err
	}
	r.curr = i
	r.currOff = offset
	return offset, nil
}

func (r *MultiReadSeeker) enter(i int) error {
	if _, err := r.segments[i].R.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r.curr = i
	return nil
}
