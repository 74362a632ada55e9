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

var webpFileHeader = FileHeader{
	Name:        "webp",
	Ext:         "webp",
	Description: "WebP image",
	MIME:        []string{"webp"},
	Signatures:  [][]byte{[]byte("RIFF")},
	Parse:       ScanWebP,
}

var djvuFileHeader = FileHeader{
	Name:        "djvu",
	Ext:         "djvu",
	Description: "DjVu document",
	MIME:        []string{"vnd.djvu", "djvu", "x-djvu"},
	Signatures:  [][]byte{[]byte("AT&TFORM")},
	Parse:       ScanDjVu,
}

var midiFileHeader = FileHeader{
	Name:        "midi",
	Ext:         "mid",
	Description: "Standard MIDI file",
	MIME:        []string{"midi", "mid", "x-midi"},
	Signatures:  [][]byte{[]byte("MThd")},
	Parse:       ScanMIDI,
}

var wavFileHeader = FileHeader{
	Name:        "wav",
	Ext:         "wav",
	Description: "Waveform audio",
	MIME:        []string{"x-wav", "wav", "vnd.wave", "wave"},
	Signatures: [][]byte{
		[]byte("RIFF"),
		[]byte("RIFX"),
	},
	Parse: ScanWAV,
}

// chunkReader reads IFF style chunks: a 4-byte tag, a 32-bit size and the
// payload. The payload is skipped and must be fully present.
type chunkReader struct {
	r      *Reader
	format string
	order  binary.ByteOrder
	align  bool
}

func (c *chunkReader) header() (string, uint32, error) {
	var buf [8]byte
	if err := c.r.ReadFull(buf[:]); err != nil {
		return "", 0, err
	}
	return string(buf[:4]), c.order.Uint32(buf[4:]), nil
}

// next reads one chunk whose tag must be one of expect, when given.
func (c *chunkReader) next(lastGood uint64, expect ...string) (string, error) {
	name, size, err := c.header()
	if err != nil {
		return "", err
	}
	if len(expect) > 0 && !slices.Contains(expect, name) {
		return "", violation(c.format, lastGood, "unexpected chunk %q", name)
	}

	n := int64(size)
	if c.align && n%2 == 1 {
		n++
	}
	if n > c.r.Remaining() {
		return "", violation(c.format, lastGood, "chunk %q declares %d bytes, %d left", name, n, c.r.Remaining())
	}
	return name, c.r.Skip(n)
}

// ScanWebP reads the single RIFF chunk of a WebP file.
func ScanWebP(r *Reader) (uint64, error) {
	c := &chunkReader{r: r, format: "webp", order: binary.LittleEndian}

	form, err := r.Peek(12)
	if err != nil {
		return 0, unexpected(err)
	}
	if string(form[8:12]) != "WEBP" {
		return 0, violation("webp", 0, "form type %q, want WEBP", form[8:12])
	}

	if _, err := c.next(0, "RIFF"); err != nil {
		return 0, err
	}
	return uint64(r.Offset()), nil
}

// ScanDjVu reads the AT&T prefix and the big-endian FORM chunk that follows.
func ScanDjVu(r *Reader) (uint64, error) {
	var magic [4]byte
	if err := r.ReadFull(magic[:]); err != nil {
		return 0, err
	}
	if string(magic[:]) != "AT&T" {
		return 0, violation("djvu", 0, "missing AT&T prefix")
	}

	c := &chunkReader{r: r, format: "djvu", order: binary.BigEndian}
	if _, err := c.next(0, "FORM"); err != nil {
		return 0, err
	}
	return uint64(r.Offset()), nil
}

// ScanMIDI reads the MThd chunk and then MTrk chunks until the input ends.
func ScanMIDI(r *Reader) (uint64, error) {
	c := &chunkReader{r: r, format: "midi", order: binary.BigEndian}

	if _, err := c.next(0, "MThd"); err != nil {
		return 0, err
	}
	lastGood := uint64(r.Offset())

	for r.Remaining() > 0 {
		if _, err := c.next(lastGood, "MTrk"); err != nil {
			return lastGood, err
		}
		lastGood = uint64(r.Offset())
	}
	return lastGood, nil
}

// ScanWAV walks the sub-chunks of a RIFF/WAVE (or big-endian RIFX) file. A
// file without both fmt and data chunks is rejected.
func ScanWAV(r *Reader) (uint64, error) {
	c := &chunkReader{r: r, format: "wav", align: true}

	var buf [12]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	switch string(buf[:4]) {
	case "RIFF":
		c.order = binary.LittleEndian
	case "RIFX":
		c.order = binary.BigEndian
	default:
		return 0, violation("wav", 0, "invalid signature")
	}
	if string(buf[8:12]) != "WAVE" {
		return 0, violation("wav", 0, "form type %q, want WAVE", buf[8:12])
	}

	end := 8 + int64(c.order.Uint32(buf[4:8]))

	var (
		lastGood        uint64
		hasFmt, hasData bool
	)
	for r.Offset() < end {
		name, err := c.next(lastGood)
		if err != nil {
			return lastGood, err
		}
		if r.Offset() > end {
			return lastGood, violation("wav", lastGood, "chunk %q crosses the RIFF end", name)
		}

		switch name {
		case "fmt ":
			hasFmt = true
		case "data":
			hasData = true
		}
		if hasFmt && hasData {
			lastGood = uint64(r.Offset())
		}
	}

	if !hasFmt || !hasData {
		return lastGood, violation("wav", lastGood, "missing fmt or data chunk")
	}
	return uint64(end), nil
}
