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

const (
	ebmlHeaderID   = 0x1A45DFA3
	ebmlSegmentID  = 0x18538067
	ebmlTopLevelEl = 2

	// EBMLMaxDepth bounds the nesting of recursive elements such as
	// ChapterAtom and SimpleTag.
	EBMLMaxDepth = 64
)

var ebmlFileHeader = FileHeader{
	Name:        "ebml",
	Ext:         "mkv",
	Description: "Matroska / WebM",
	MIME:        []string{"webm", "x-matroska", "matroska"},
	Signatures:  [][]byte{{0x1A, 0x45, 0xDF, 0xA3}},
	Parse:       ScanEBML,
}

type ebmlDecoder struct {
	r *Reader
}

// ScanEBML parses the EBML header and the Segment that follows it. The offset
// only advances past complete top-level elements.
func ScanEBML(r *Reader) (uint64, error) {
	d := &ebmlDecoder{r: r}

	var lastGood uint64
	for i, want := range [ebmlTopLevelEl]uint32{ebmlHeaderID, ebmlSegmentID} {
		start := uint64(r.Offset())

		id, size, err := d.readHeader()
		if err != nil {
			return lastGood, err
		}
		if id != want {
			return lastGood, violation("ebml", lastGood, "top-level element %d has id %#x, want %#x", i, id, want)
		}

		el := LookupElement(id)
		if err := d.parseBody(el, start, size, 0, 0, uint64(r.Size())); err != nil {
			return lastGood, withLastGood(err, lastGood)
		}
		lastGood = uint64(r.Offset())
	}
	return lastGood, nil
}

func (d *ebmlDecoder) readHeader() (uint32, uint64, error) {
	id, err := ReadEBMLID(d.r)
	if err != nil {
		return 0, 0, unexpected(err)
	}
	size, err := ReadEBMLSize(d.r)
	if err != nil {
		return 0, 0, unexpected(err)
	}
	return id, size, nil
}

// parseElement reads one element at the given depth. shift is the difference
// between the depth and the declared level inside recursive elements.
func (d *ebmlDecoder) parseElement(depth, shift int, parentEnd uint64) error {
	start := uint64(d.r.Offset())
	if depth > EBMLMaxDepth {
		return violation("ebml", start, "elements nested deeper than %d levels", EBMLMaxDepth)
	}

	id, size, err := d.readHeader()
	if err != nil {
		return err
	}

	el := LookupElement(id)
	level := depth - shift
	if el.Level > 0 && el.Level != level {
		if !el.Recursive || level < el.Level {
			return violation("ebml", start, "%s at level %d, want %d", el.Name, level, el.Level)
		}
		shift = depth - el.Level
	}
	return d.parseBody(el, start, size, depth, shift, parentEnd)
}

func (d *ebmlDecoder) parseBody(el Element, start, size uint64, depth, shift int, parentEnd uint64) error {
	dataStart := uint64(d.r.Offset())

	if el.Kind != KindMaster {
		if size == UnknownSize {
			return violation("ebml", start, "%s has unknown size", el.Name)
		}
		if dataStart+size > parentEnd {
			return violation("ebml", start, "%s exceeds its parent", el.Name)
		}
		return d.r.Skip(int64(size))
	}

	if size == UnknownSize {
		return d.parseUnknownSize(depth, shift, parentEnd)
	}

	end := dataStart + size
	if end > parentEnd || end < dataStart {
		return violation("ebml", start, "%s exceeds its parent", el.Name)
	}

	for uint64(d.r.Offset()) < end {
		if err := d.parseElement(depth+1, shift, end); err != nil {
			return err
		}
	}
	if off := uint64(d.r.Offset()); off != end {
		return violation("ebml", start, "%s children end at %d, want %d", el.Name, off, end)
	}
	return nil
}

// parseUnknownSize reads children until the end of the parent or of the input.
// An element of the same level or above, or bytes that are not an element id,
// end the master and are left unread.
func (d *ebmlDecoder) parseUnknownSize(depth, shift int, parentEnd uint64) error {
	level := depth - shift
	for uint64(d.r.Offset()) < parentEnd {
		start := d.r.Offset()

		id, err := ReadEBMLID(d.r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrInvalidVint) {
			return d.r.SeekTo(start)
		}
		if err != nil {
			return unexpected(err)
		}

		if el, ok := MatroskaSpec[id]; ok && el.Level >= 0 && el.Level <= level {
			return d.r.SeekTo(start)
		}

		if err := d.r.SeekTo(start); err != nil {
			return err
		}
		if err := d.parseElement(depth+1, shift, parentEnd); err != nil {
			return err
		}
	}
	return nil
}
