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
	"maps"
	"slices"
)

const xcfMagic = "gimp xcf "

var xcfFileHeader = FileHeader{
	Name:        "xcf",
	Ext:         "xcf",
	Description: "GIMP image",
	MIME:        []string{"x-xcf", "xcf"},
	Signatures:  [][]byte{[]byte(xcfMagic)},
	Parse:       ScanXCF,
}

// xcfDecoder follows the pointer graph of an XCF file. Every structure it
// visits extends the verified extent, whatever order it is stored in.
type xcfDecoder struct {
	r        *Reader
	lastGood uint64
}

func (d *xcfDecoder) update() {
	d.lastGood = max(d.lastGood, uint64(d.r.Offset()))
}

func (d *xcfDecoder) u32() (uint32, error) {
	return readU32(d.r, binary.BigEndian)
}

func (d *xcfDecoder) seek(off uint32) error {
	if err := d.r.SeekTo(int64(off)); err != nil {
		return err
	}
	d.update()
	return nil
}

func (d *xcfDecoder) skip(n uint32) error {
	if err := d.r.Skip(int64(n)); err != nil {
		return err
	}
	d.update()
	return nil
}

// pointers reads a zero terminated list of offsets.
func (d *xcfDecoder) pointers(into map[uint32]struct{}) error {
	for {
		p, err := d.u32()
		if err != nil {
			return err
		}
		if p == 0 {
			return nil
		}
		into[p] = struct{}{}
	}
}

func (d *xcfDecoder) str() error {
	n, err := d.u32()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := d.skip(n - 1); err != nil {
		return err
	}
	nul, err := readU8(d.r)
	if err != nil {
		return err
	}
	if nul != 0 {
		return violation("xcf", d.lastGood, "string not NUL terminated")
	}
	return nil
}

func (d *xcfDecoder) properties() error {
	for {
		typ, err := d.u32()
		if err != nil {
			return err
		}
		n, err := d.u32()
		if err != nil {
			return err
		}
		if err := d.skip(n); err != nil {
			return err
		}
		if typ == 0 {
			return nil
		}
	}
}

// ScanXCF visits the header, then every layer, channel, hierarchy, level and
// tile the pointers lead to. The offset is the furthest byte reached.
func ScanXCF(r *Reader) (uint64, error) {
	d := &xcfDecoder{r: r}
	off, err := d.scan()
	if err != nil {
		return d.lastGood, withLastGood(err, d.lastGood)
	}
	return off, nil
}

func (d *xcfDecoder) scan() (uint64, error) {
	var hdr [26]byte
	if err := d.r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}
	if string(hdr[:9]) != xcfMagic {
		return 0, violation("xcf", 0, "invalid signature")
	}
	// hdr[9:13] is the version, then a NUL and width, height, base type
	if hdr[13] != 0 {
		return 0, violation("xcf", 0, "version not NUL terminated")
	}
	if err := d.properties(); err != nil {
		return 0, err
	}

	layers := make(map[uint32]struct{})
	if err := d.pointers(layers); err != nil {
		return 0, err
	}
	channels := make(map[uint32]struct{})
	if err := d.pointers(channels); err != nil {
		return 0, err
	}
	d.update()

	hierarchies := make(map[uint32]struct{})

	for _, p := range slices.Sorted(maps.Keys(layers)) {
		if err := d.seek(p); err != nil {
			return 0, err
		}
		// width, height, type
		if err := d.r.Skip(12); err != nil {
			return 0, err
		}
		if err := d.str(); err != nil {
			return 0, err
		}
		if err := d.properties(); err != nil {
			return 0, err
		}
		hierarchy, err := d.u32()
		if err != nil {
			return 0, err
		}
		hierarchies[hierarchy] = struct{}{}

		mask, err := d.u32()
		if err != nil {
			return 0, err
		}
		if mask != 0 {
			channels[mask] = struct{}{}
		}
		d.update()
	}

	for _, p := range slices.Sorted(maps.Keys(channels)) {
		if err := d.seek(p); err != nil {
			return 0, err
		}
		// width, height
		if err := d.r.Skip(8); err != nil {
			return 0, err
		}
		if err := d.str(); err != nil {
			return 0, err
		}
		if err := d.properties(); err != nil {
			return 0, err
		}
		hierarchy, err := d.u32()
		if err != nil {
			return 0, err
		}
		hierarchies[hierarchy] = struct{}{}
		d.update()
	}

	levels := make(map[uint32]struct{})
	for _, p := range slices.Sorted(maps.Keys(hierarchies)) {
		if err := d.seek(p); err != nil {
			return 0, err
		}
		// width, height, bytes per pixel
		if err := d.r.Skip(12); err != nil {
			return 0, err
		}
		if err := d.pointers(levels); err != nil {
			return 0, err
		}
		d.update()
	}

	for _, p := range slices.Sorted(maps.Keys(levels)) {
		if err := d.seek(p); err != nil {
			return 0, err
		}
		// width, height
		if err := d.r.Skip(8); err != nil {
			return 0, err
		}
		tiles := make(map[uint32]struct{})
		if err := d.pointers(tiles); err != nil {
			return 0, err
		}
		d.update()

		for _, t := range slices.Sorted(maps.Keys(tiles)) {
			if err := d.seek(t); err != nil {
				return 0, err
			}
		}
	}
	return d.lastGood, nil
}
