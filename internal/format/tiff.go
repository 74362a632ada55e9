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
	"io"
)

const (
	tiffHeaderLittle = "\x49\x49\x2A\x00"
	tiffHeaderBig    = "\x4D\x4D\x00\x2A"
)

var tiffFileHeader = FileHeader{
	Name:        "tiff",
	Ext:         "tif",
	Description: "Tagged Image File Format",
	MIME:        []string{"tiff"},
	Signatures: [][]byte{
		[]byte(tiffHeaderLittle),
		[]byte(tiffHeaderBig),
	},
	Parse: ScanTIFF,
}

// Offset/byte-count tag pairs locating image data blocks.
var tiffDataTags = []struct{ offset, count uint16 }{
	{0x111, 0x117}, // strips
	{0x120, 0x121}, // free blocks
	{0x144, 0x145}, // tiles
}

// tiffTypeWidth returns the size in bytes of one value of a field type.
// Unknown types count as one byte.
func tiffTypeWidth(typ uint16) uint64 {
	switch typ {
	case 3, 8:
		return 2
	case 4, 9, 11:
		return 4
	case 5, 10, 12:
		return 8
	}
	return 1
}

type tiffDecoder struct {
	r     *Reader
	order binary.ByteOrder
	last  uint64

	offsets [3][]uint64
	counts  [3][]uint64
}

func (d *tiffDecoder) update() {
	d.last = max(d.last, uint64(d.r.Offset()))
}

// ScanTIFF follows the IFD chain, visits every indirect value and every
// strip, tile and free block, and returns the furthest verified offset.
// Zero padding after that offset is not counted.
func ScanTIFF(r *Reader) (uint64, error) {
	d := &tiffDecoder{r: r}

	var hdr [8]byte
	if err := r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}

	switch string(hdr[:2]) {
	case "II":
		d.order = binary.LittleEndian
	case "MM":
		d.order = binary.BigEndian
	default:
		return 0, violation("tiff", 0, "invalid byte order marker %x", hdr[:2])
	}

	if version := d.order.Uint16(hdr[2:4]); version != 42 {
		return 0, violation("tiff", 0, "invalid version %d", version)
	}
	d.update()

	seen := make(map[uint32]bool)
	for ifd := d.order.Uint32(hdr[4:8]); ifd != 0; {
		if seen[ifd] {
			return d.last, violation("tiff", d.last, "IFD loop at offset %d", ifd)
		}
		seen[ifd] = true

		next, err := d.parseIFD(int64(ifd))
		if err != nil {
			return d.last, err
		}
		ifd = next
	}

	for i := range tiffDataTags {
		n := min(len(d.offsets[i]), len(d.counts[i]))
		for j := 0; j < n; j++ {
			if err := r.SeekTo(int64(d.offsets[i][j])); err != nil {
				return d.last, err
			}
			d.update()

			if err := r.Skip(int64(d.counts[i][j])); err != nil {
				return d.last, err
			}
			d.update()
		}
	}

	// consume zero padding without counting it
	if err := r.SeekTo(int64(d.last)); err != nil {
		return d.last, nil
	}
	for {
		b, err := r.ReadByte()
		if err != nil || b != 0 {
			break
		}
	}
	return d.last, nil
}

func (d *tiffDecoder) parseIFD(off int64) (uint32, error) {
	if err := d.r.SeekTo(off); err != nil {
		return 0, err
	}
	d.update()

	numEntries, err := readU16(d.r, d.order)
	if err != nil {
		return 0, err
	}

	for i := 0; i < int(numEntries); i++ {
		if err := d.parseEntry(); err != nil {
			return 0, err
		}
	}

	next, err := readU32(d.r, d.order)
	if err != nil {
		return 0, err
	}
	d.update()
	return next, nil
}

func (d *tiffDecoder) parseEntry() error {
	var entry [12]byte
	if err := d.r.ReadFull(entry[:]); err != nil {
		return err
	}

	tag := d.order.Uint16(entry[0:2])
	typ := d.order.Uint16(entry[2:4])
	count := uint64(d.order.Uint32(entry[4:8]))
	width := tiffTypeWidth(typ)
	fieldLen := width * count

	slot, isCount, isData := d.dataSlot(tag)

	if fieldLen <= 4 {
		if isData {
			d.collect(slot, isCount, d.decodeValues(entry[8:8+fieldLen], width))
		}
		d.update()
		return nil
	}

	valueOff := int64(d.order.Uint32(entry[8:12]))
	cur := d.r.Offset()

	if err := d.r.SeekTo(valueOff); err != nil {
		return err
	}
	d.update()

	if isData && fieldLen <= uint64(d.r.Remaining()) {
		buf := make([]byte, fieldLen)
		if err := d.r.ReadFull(buf); err != nil {
			return err
		}
		d.collect(slot, isCount, d.decodeValues(buf, width))
	} else if err := d.r.Skip(int64(fieldLen)); err != nil {
		return err
	}
	d.update()

	_, err := d.r.Seek(cur, io.SeekStart)
	return err
}

func (d *tiffDecoder) dataSlot(tag uint16) (slot int, isCount bool, ok bool) {
	for i, dt := range tiffDataTags {
		switch tag {
		case dt.offset:
			return i, false, true
		case dt.count:
			return i, true, true
		}
	}
	return 0, false, false
}

func (d *tiffDecoder) collect(slot int, isCount bool, values []uint64) {
	if isCount {
		d.counts[slot] = append(d.counts[slot], values...)
	} else {
		d.offsets[slot] = append(d.offsets[slot], values...)
	}
}

func (d *tiffDecoder) decodeValues(buf []byte, width uint64) []uint64 {
	values := make([]uint64, 0, uint64(len(buf))/width)
	for i := uint64(0); i+width <= uint64(len(buf)); i += width {
		switch width {
		case 1:
			values = append(values, uint64(buf[i]))
		case 2:
			values = append(values, uint64(d.order.Uint16(buf[i:])))
		case 4:
			values = append(values, uint64(d.order.Uint32(buf[i:])))
		case 8:
			values = append(values, d.order.Uint64(buf[i:]))
		}
	}
	return values
}
