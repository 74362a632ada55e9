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
	"bytes"
	"encoding/binary"
)

var pcxFileHeader = FileHeader{
	Name:        "pcx",
	Ext:         "pcx",
	Description: "Picture Exchange Format",
	MIME:        []string{"x-pcx", "vnd.zbrush.pcx"},
	Signatures: [][]byte{
		{0x0A},
	},
	Parse: ScanPCX,
}

// PCXHeader represents the ZSoft PCX file header (128 bytes).
type PCXHeader struct {
	Manufacturer byte   // Manufacturer (0x0A for ZSoft .PCX)
	Version      byte   // Version (0-5, e.g., 5 for PC Paintbrush Plus)
	Encoding     byte   // Encoding (0 for uncompressed, 1 for RLE)
	BitsPerPixel byte   // Bits per pixel per plane (e.g., 1, 2, 4, 8)
	XMin         uint16 // Image dimensions (min/max X, Y)
	YMin         uint16
	XMax         uint16
	YMax         uint16
	HRes         uint16   // Horizontal resolution (DPI)
	VRes         uint16   // Vertical resolution (DPI)
	ColorMap     [48]byte // 16-color EGA palette (only if palette not separate)
	Reserved     byte     // Must be 0
	NumPlanes    byte     // Number of color planes (e.g., 1 for grayscale/indexed, 3 for RGB)
	BytesPerLine uint16   // Bytes per scanline (uncompressed, for one plane)
	PaletteType  uint16   // Palette type (1 for color/grayscale, 2 for color only)
	HScreenSize  uint16   // Horizontal screen size (used for display, often 0)
	VScreenSize  uint16   // Vertical screen size (used for display, often 0)
	Filler       [54]byte // Filler (should be 0 for older versions, variable for newer)
}

const (
	pcxHeaderSize      = 128
	pcxPaletteMarker   = 0x0C
	pcxVGAPaletteBytes = 256 * 3
)

// skipRLEScanline consumes one RLE compressed scanline of a single plane.
// Runs may cross the end of the line, as some encoders ignore the rule that
// they must not.
func skipRLEScanline(r *Reader, bytesPerLine uint16) error {
	decoded := 0
	for decoded < int(bytesPerLine) {
		b, err := readU8(r)
		if err != nil {
			return err
		}
		if b&0xC0 != 0xC0 {
			decoded++
			continue
		}

		run := int(b & 0x3F)
		if run == 0 {
			return violation("pcx", 0, "RLE run length of 0")
		}
		if _, err := readU8(r); err != nil {
			return err
		}
		decoded += run
	}
	return nil
}

// ScanPCX validates the header, walks the image data and picks up the
// optional VGA palette of version 5, 8 bit images.
func ScanPCX(r *Reader) (uint64, error) {
	var buf [pcxHeaderSize]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}

	var header PCXHeader
	if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &header); err != nil {
		return 0, err
	}

	if header.Manufacturer != 0x0A {
		return 0, violation("pcx", 0, "invalid manufacturer id 0x%02X", header.Manufacturer)
	}
	if header.Encoding > 1 {
		return 0, violation("pcx", 0, "unsupported encoding %d", header.Encoding)
	}
	switch header.Version {
	case 0, 2, 3, 4, 5:
	default:
		return 0, violation("pcx", 0, "unsupported version %d", header.Version)
	}
	switch header.BitsPerPixel {
	case 1, 2, 4, 8:
	default:
		return 0, violation("pcx", 0, "unsupported bits per pixel %d", header.BitsPerPixel)
	}
	if header.NumPlanes == 0 || header.NumPlanes > 4 {
		return 0, violation("pcx", 0, "unsupported number of planes %d", header.NumPlanes)
	}
	if header.XMax < header.XMin || header.YMax < header.YMin {
		return 0, violation("pcx", 0, "XMax < XMin or YMax < YMin")
	}

	width := uint32(header.XMax) - uint32(header.XMin) + 1
	height := uint32(header.YMax) - uint32(header.YMin) + 1

	// scanlines are padded to an even number of bytes
	minBytesPerLine := (width*uint32(header.BitsPerPixel) + 7) / 8
	minBytesPerLine += minBytesPerLine % 2
	if uint32(header.BytesPerLine) < minBytesPerLine {
		return 0, violation("pcx", 0, "BytesPerLine %d is less than %d", header.BytesPerLine, minBytesPerLine)
	}

	if header.Encoding == 0 {
		size := int64(header.BytesPerLine) * int64(header.NumPlanes) * int64(height)
		if err := r.Skip(size); err != nil {
			return 0, err
		}
	} else {
		for y := uint32(0); y < height; y++ {
			for p := uint8(0); p < header.NumPlanes; p++ {
				if err := skipRLEScanline(r, header.BytesPerLine); err != nil {
					return 0, err
				}
			}
		}
	}
	end := uint64(r.Offset())

	if header.Version != 5 || header.BitsPerPixel != 8 || header.NumPlanes != 1 {
		return end, nil
	}

	marker, err := r.Peek(1)
	if err != nil || marker[0] != pcxPaletteMarker || r.Remaining() < 1+pcxVGAPaletteBytes {
		return end, nil
	}
	if err := r.Skip(1 + pcxVGAPaletteBytes); err != nil {
		return end, err
	}
	return uint64(r.Offset()), nil
}
