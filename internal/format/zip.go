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
	"errors"
	"fmt"
	"math"
)

var zipFileHeader = FileHeader{
	Name:        "zip",
	Ext:         "zip",
	Description: "ZIP archive",
	MIME:        []string{"zip", "x-zip-compressed"},
	Signatures: [][]byte{
		{'P', 'K', 0x03, 0x04},
	},
	Parse: ScanZIP,
	Magic: true,
}

var ErrInvalidZip = errors.New("invalid zip file")

const (
	// Maximum file size of a zip entry.
	MaxZipFileSize = math.MaxUint32

	ZipFileEntryHeader       uint32 = 0x04034B50
	ZipCentralDirHeader      uint32 = 0x02014B50
	ZipEndCentralDirHeader   uint32 = 0x06054B50
	ZipCentralDir64Header    uint32 = 0x06064B50
	ZipEndCentralDir64Header uint32 = 0x07064B50
	ZipDataDescriptorHeader  uint32 = 0x08074B50

	zipCentralDirSize    = 46
	zipEndCentralDirSize = 22
	zipLocator64Size     = 20
)

// ZipFileEntry is the fixed part of a local file header, after the
// signature.
type ZipFileEntry struct {
	Version          uint16 // Version needed to extract
	Flags            uint16 // General purpose bit flag
	Compression      uint16 // Compression method
	LastModTime      uint16
	LastModDate      uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	FilenameLength   uint16
	ExtraLength      uint16
}

// ScanZIP walks the local file entries, the central directory and the end of
// central directory record, whose comment ends the archive.
func ScanZIP(r *Reader) (uint64, error) {
	var (
		entries  int
		lastGood uint64
	)
	for {
		sig, err := readU32(r, binary.LittleEndian)
		if err != nil {
			return lastGood, err
		}

		switch sig {
		case ZipFileEntryHeader:
			if err := parseZipFileEntry(r); err != nil {
				return lastGood, err
			}
			entries++
		case ZipCentralDirHeader, ZipCentralDir64Header, ZipEndCentralDir64Header:
			if entries == 0 {
				return lastGood, violation("zip", lastGood, "archive doesn't contain any file")
			}
			if err := skipZipCentralRecord(r, sig); err != nil {
				return lastGood, err
			}
		case ZipEndCentralDirHeader:
			return parseZipEndCentralDir(r, lastGood)
		default:
			return lastGood, fmt.Errorf("%w: unexpected signature %#08x", ErrInvalidZip, sig)
		}
		lastGood = uint64(r.Offset())
	}
}

// parseZipFileEntry skips a local file entry: the fixed header, the file name,
// the extra field, the file data and the optional data descriptor.
func parseZipFileEntry(r *Reader) error {
	var entry ZipFileEntry
	if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
		return unexpected(err)
	}

	if err := r.Skip(int64(entry.FilenameLength) + int64(entry.ExtraLength)); err != nil {
		return err
	}

	size := entry.CompressedSize

	// Bit 3: sizes are stored in a data descriptor after the data.
	if entry.Flags&0x0008 == 0 || size != 0 {
		if err := r.Skip(int64(size)); err != nil {
			return err
		}
		if entry.Flags&0x0008 == 0 {
			return nil
		}
	} else if err := seekToZIPDescriptor(r); err != nil {
		return err
	}

	return skipZIPDescriptor(r)
}

// seekToZIPDescriptor positions r at the next data descriptor signature.
func seekToZIPDescriptor(r *Reader) error {
	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], ZipDataDescriptorHeader)

	found, err := SeekAt(r, sig[:], MaxZipFileSize)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: entry descriptor not found", ErrInvalidZip)
	}
	return nil
}

// skipZIPDescriptor skips the CRC and sizes of a data descriptor, whose
// signature is optional.
func skipZIPDescriptor(r *Reader) error {
	buf, err := r.Peek(4)
	if err != nil {
		return unexpected(err)
	}

	n := int64(12)
	if binary.LittleEndian.Uint32(buf) == ZipDataDescriptorHeader {
		n += 4
	}
	return r.Skip(n)
}

func skipZipCentralRecord(r *Reader, sig uint32) error {
	switch sig {
	case ZipCentralDirHeader:
		var hdr [zipCentralDirSize - 4]byte
		if err := r.ReadFull(hdr[:]); err != nil {
			return err
		}
		nameLen := int64(binary.LittleEndian.Uint16(hdr[24:26]))
		extraLen := int64(binary.LittleEndian.Uint16(hdr[26:28]))
		commentLen := int64(binary.LittleEndian.Uint16(hdr[28:30]))
		return r.Skip(nameLen + extraLen + commentLen)

	case ZipCentralDir64Header:
		size, err := readU64(r, binary.LittleEndian)
		if err != nil {
			return err
		}
		if size > uint64(r.Remaining()) {
			return fmt.Errorf("%w: zip64 end record of %d bytes", ErrInvalidZip, size)
		}
		return r.Skip(int64(size))

	default:
		return r.Skip(zipLocator64Size - 4)
	}
}

// parseZipEndCentralDir reads the end of central directory record. The
// archive ends after its comment.
func parseZipEndCentralDir(r *Reader, lastGood uint64) (uint64, error) {
	var buf [zipEndCentralDirSize - 4]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return lastGood, err
	}

	commentLen := binary.LittleEndian.Uint16(buf[16:])
	if err := r.Skip(int64(commentLen)); err != nil {
		return lastGood, err
	}
	return uint64(r.Offset()), nil
}
