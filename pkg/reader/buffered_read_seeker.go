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
	"errors"
	"fmt"
	"io"
)

// BufferedReadSeeker adds a read-ahead window to an io.ReadSeeker. Seeks that
// land inside the window only move the read cursor; any other seek drops the
// window and repositions the source.
//
// The source offset is always base+size.
type BufferedReadSeeker struct {
	src  io.ReadSeeker
	buf  []byte
	base int64 // source offset of buf[0]
	off  int   // read offset in buf
	size int   // number of valid bytes in buf
}

func NewBufferedReadSeeker(src io.ReadSeeker, bufSize int) *BufferedReadSeeker {
	return &BufferedReadSeeker{
		src: src,
		buf: make([]byte, bufSize),
	}
}

// fill slides unread bytes to the front of the window and reads once from the
// source. It returns the number of bytes added.
func (b *BufferedReadSeeker) fill() (int, error) {
	copied := copy(b.buf, b.buf[b.off:b.size])
	b.base += int64(b.off)
	b.off = 0
	b.size = copied

	n, err := b.src.Read(b.buf[copied:])
	b.size += n
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}

func (b *BufferedReadSeeker) Read(p []byte) (int, error) {
	readBytes := 0
	for readBytes < len(p) {
		if b.off >= b.size {
			n, err := b.fill()
			if err != nil {
				return readBytes, err
			}
			if n == 0 {
				return readBytes, io.EOF
			}
		}
		n := copy(p[readBytes:], b.buf[b.off:b.size])
		b.off += n
		readBytes += n
	}
	return readBytes, nil
}

func (b *BufferedReadSeeker) ReadByte() (byte, error) {
	if b.off >= b.size {
		n, err := b.fill()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
	}
	c := b.buf[b.off]
	b.off++
	return c, nil
}

func (b *BufferedReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.Offset() + offset
	case io.SeekEnd:
		end, err := b.src.Seek(0, io.SeekEnd)
		if err != nil {
			return -1, err
		}
		b.base, b.off, b.size = end, 0, 0
		abs = end + offset
	default:
		return -1, fmt.Errorf("BufferedReadSeeker.Seek(): invalid whence: %d", whence)
	}

	if abs < 0 {
		return -1, fmt.Errorf("BufferedReadSeeker.Seek: negative position")
	}

	if abs >= b.base && abs <= b.base+int64(b.size) {
		b.off = int(abs - b.base)
		return abs, nil
	}

	if _, err := b.src.Seek(abs, io.SeekStart); err != nil {
		return -1, err
	}
	b.base, b.off, b.size = abs, 0, 0
	return abs, nil
}

// Peek returns the next n bytes without advancing the reader. A short slice is
// returned together with io.EOF when the source ends first.
func (b *BufferedReadSeeker) Peek(n int) ([]byte, error) {
	if n > len(b.buf) {
		return nil, errors.New("peek size exceeds buffer capacity")
	}

	for b.size-b.off < n {
		m, err := b.fill()
		if err != nil {
			return nil, err
		}
		if m == 0 {
			return b.buf[b.off:b.size], io.EOF
		}
	}
	return b.buf[b.off : b.off+n], nil
}

// Offset returns the absolute position of the next byte to be read.
func (b *BufferedReadSeeker) Offset() int64 {
	return b.base + int64(b.off)
}

func (b *BufferedReadSeeker) Reset(r io.ReadSeeker) {
	b.src = r
	b.base = 0
	b.off = 0
	b.size = 0
}

func (b *BufferedReadSeeker) BufferSize() int {
	return len(b.buf)
}
