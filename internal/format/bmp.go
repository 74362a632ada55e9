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

var bmpFileHeader = FileHeader{
	Name:        "bmp",
	Ext:         "bmp",
	Description: "Bitmap Image File Format",
	MIME:        []string{"bmp", "x-bmp", "x-ms-bmp"},
	Signatures: [][]byte{
		[]byte("BM"),
	},
	Parse:    ScanBMP,
	Fallback: DecodeBMP,
}

// BMP Compression Types
const (
	BI_RGB            = 0  // No compression
	BI_RLE8           = 1  // RLE 8-bit/pixel
	BI_RLE4           = 2  // RLE 4-bit/pixel
	BI_BITFIELDS      = 3  // RGB bit field masks (for 16bpp and 32bpp)
	BI_JPEG           = 4  // JPEG compression (Windows 95/NT and later)
	BI_PNG            = 5  // PNG compression (Windows 95/NT and later)
	BI_ALPHABITFIELDS = 6  // Alpha bit field masks (often overlaps with BI_BITFIELDS in usage)
	BI_CMYK           = 11 // CMYK uncompressed
	BI_CMYKRLE8       = 12 // CMYK RLE 8-bit/pixel
	BI_CMYKRLE4       = 13 // CMYK RLE 4-bit/pixel
)

// BMPHeader represents the BITMAPFILEHEADER structure of a BMP file.
type BMPHeader struct {
	Signature  [2]byte // BM
	FileSize   uint32  // Size of the BMP file in bytes
	Reserved1  uint16  // Must be 0
	Reserved2  uint16  // Must be 0
	DataOffset uint32  // Offset to the start of the bitmap data
}

// DIBHeader (BITMAPINFOHEADER) is the most common DIB header.
// We'll use this for initial validation.
type DIBHeader struct {
	HeaderSize      uint32 // Size of this header (should be 40 for BITMAPINFOHEADER)
	Width           int32  // Bitmap width in pixels
	Height          int32  // Bitmap height in pixels
	Planes          uint16 // Number of color planes (must be 1)
	BitsPerPixel    uint16 // Number of bits per pixel (e.g., 1, 4, 8, 16, 24, 32)
	Compression     uint32 // Compression method
	ImageSize       uint32 // Size of the raw bitmap data (can be 0 for BI_RGB)
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32 // Number of colors in the color palette
	ColorsImportant uint32 // Number of important colors
}

// ScanBMP validates the file and DIB headers and returns the file size
// declared by the header, which must be present in full.
func ScanBMP(r *Reader) (uint64, error) {
	var (
		bmpHeader BMPHeader
		dibHeader DIBHeader
	)

	if err := binary.Read(r, binary.LittleEndian, &bmpHeader); err != nil {
		return 0, unexpected(err)
	}

	if bmpHeader.Signature[0] != 'B' || bmpHeader.Signature[1] != 'M' {
		return 0, violation("bmp", 0, "invalid signature")
	}
	if bmpHeader.Reserved1 != 0 || bmpHeader.Reserved2 != 0 {
		return 0, violation("bmp", 0, "reserved fields are not zero")
	}
	if bmpHeader.FileSize < 14+40 {
		return 0, violation("bmp", 0, "file size %d too small to contain basic headers", bmpHeader.FileSize)
	}
	if bmpHeader.DataOffset < 14 {
		return 0, violation("bmp", 0, "data offset is before the end of the file header")
	}

	var buf [124]byte // BITMAPV5HEADER is the largest
	if err := r.ReadFull(buf[:4]); err != nil {
		return 0, err
	}
	dibHeader.HeaderSize = binary.LittleEndian.Uint32(buf[:])

	switch dibHeader.HeaderSize {
	case 40, 64, 108, 124:
	case 12:
		// BITMAPCOREHEADER carries no compression or image size.
		return bmpExtent(r, bmpHeader)
	default:
		return 0, violation("bmp", 0, "unsupported DIB header size: %d", dibHeader.HeaderSize)
	}

	if err := r.ReadFull(buf[4:dibHeader.HeaderSize]); err != nil {
		return 0, err
	}
	if err := binary.Read(bytes.NewReader(buf[:40]), binary.LittleEndian, &dibHeader); err != nil {
		return 0, err
	}

	if dibHeader.Planes != 1 {
		return 0, violation("bmp", 0, "number of planes must be 1")
	}

	switch dibHeader.BitsPerPixel {
	case 1, 4, 8, 16, 24, 32:
	default:
		return 0, violation("bmp", 0, "unsupported bits per pixel: %d", dibHeader.BitsPerPixel)
	}

	switch dibHeader.Compression {
	case BI_RGB, BI_RLE8, BI_RLE4, BI_BITFIELDS, BI_JPEG, BI_PNG,
		BI_ALPHABITFIELDS, BI_CMYK, BI_CMYKRLE8, BI_CMYKRLE4:
	default:
		return 0, violation("bmp", 0, "unknown compression type: %d", dibHeader.Compression)
	}

	// Height is negative for top-down bitmaps.
	if dibHeader.Width <= 0 || dibHeader.Height == 0 {
		return 0, violation("bmp", 0, "invalid dimensions %dx%d", dibHeader.Width, dibHeader.Height)
	}

	minDataOffset := uint64(14) + uint64(dibHeader.HeaderSize)
	if dibHeader.BitsPerPixel <= 8 {
		colors := uint64(dibHeader.ColorsUsed)
		if colors == 0 {
			colors = 1 << dibHeader.BitsPerPixel
		}
		minDataOffset += colors * 4
	}
	if uint64(bmpHeader.DataOffset) < minDataOffset {
		return 0, violation("bmp", 0, "data offset %d is less than %d", bmpHeader.DataOffset, minDataOffset)
	}

	// Rows are padded to 4 bytes.
	rowSize := (uint64(dibHeader.Width)*uint64(dibHeader.BitsPerPixel) + 31) / 32 * 4
	height := int64(dibHeader.Height)
	if height < 0 {
		height = -height
	}
	pixelSize := rowSize * uint64(height)

	if dibHeader.Compression != BI_RGB {
		pixelSize = uint64(dibHeader.ImageSize)
	} else if dibHeader.ImageSize != 0 && uint64(dibHeader.ImageSize) < pixelSize {
		return 0, violation("bmp", 0, "image size %d is less than %d", dibHeader.ImageSize, pixelSize)
	}

	if want := uint64(bmpHeader.DataOffset) + pixelSize; uint64(bmpHeader.FileSize) < want {
		return 0, violation("bmp", 0, "file size %d is less than %d", bmpHeader.FileSize, want)
	}
	return bmpExtent(r, bmpHeader)
}

func bmpExtent(r *Reader, hdr BMPHeader) (uint64, error) {
	if err := r.SeekTo(int64(hdr.FileSize)); err != nil {
		return 0, err
	}
	return uint64(hdr.FileSize), nil
}
