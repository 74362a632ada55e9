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
package probe

// tracker follows the file position of the input descriptor across the
// syscalls of a traced process and remembers the furthest position reached
// whenever output was produced.
type tracker struct {
	input  string
	output string

	inFd   int64
	outFd  int64
	pos    uint64
	active bool
	maxPos uint64
}

func newTracker(input, output string) *tracker {
	return &tracker{input: input, output: output, inFd: -1, outFd: -1}
}

func (t *tracker) open(path string, fd int64) {
	if fd < 0 {
		return
	}
	switch path {
	case t.input:
		t.inFd = fd
		t.pos = 0
		t.active = true
	case t.output:
		t.outFd = fd
	}
}

func (t *tracker) close(fd, ret int64) {
	if ret != 0 {
		return
	}
	switch fd {
	case t.inFd:
		t.inFd = -1
		t.active = false
	case t.outFd:
		t.outFd = -1
	}
}

func (t *tracker) seek(fd, ret int64) {
	if fd == t.inFd && fd >= 0 && ret >= 0 {
		t.pos = uint64(ret)
		t.active = true
	}
}

func (t *tracker) read(fd, ret int64) {
	if fd != t.inFd || fd < 0 || ret < 0 {
		return
	}
	if ret == 0 {
		// EOF: later writes are flushing, not consuming input
		t.active = false
		return
	}
	t.pos += uint64(ret)
}

func (t *tracker) write(fd, ret int64) {
	if fd != t.outFd || fd < 0 || ret < 0 || !t.active {
		return
	}
	t.maxPos = max(t.maxPos, t.pos)
}
