package format

import (
	"bytes"
	"encoding/binary"
)

var wmaFileHeader = FileHeader{
	Name:        "asf",
	Ext:         "wma",
	Description: "Advanced Systems Format (WMA/WMV)",
	MIME:        []string{"x-ms-asf", "x-ms-wma", "x-ms-wmv", "vnd.ms-asf"},
	Signatures:  [][]byte{asfHeaderGUID},
	Parse:       ScanWMA,
}

// GUIDs of the ASF objects, as they appear in the file.
var (
	// {75B22630-668E-11CF-A6D9-00AA0062CE6C}, always the first object
	asfHeaderGUID = []byte{
		0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
	}

	// {8CABDCA1-A947-11CF-8EE4-00C00C205365}
	asfFilePropGUID = []byte{
		0xA1, 0xDC, 0xAB, 0x8C, 0x47, 0xA9, 0xCF, 0x11,
		0x8E, 0xE4, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}

	// {75B22636-668E-11CF-A6D9-00AA0062CE6C}
	asfDataGUID = []byte{
		0x36, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
	}

	// {33000890-E5B1-11CF-89F4-00A0C90349CB}
	asfSimpleIndexGUID = []byte{
		0x90, 0x08, 0x00, 0x33, 0xB1, 0xE5, 0xCF, 0x11,
		0x89, 0xF4, 0x00, 0xA0, 0xC9, 0x03, 0x49, 0xCB,
	}

	// {D6E229D3-35DA-11D1-9034-00A0C90349BE}
	asfIndexGUID = []byte{
		0xD3, 0x29, 0xE2, 0xD6, 0xDA, 0x35, 0xD1, 0x11,
		0x90, 0x34, 0x00, 0xA0, 0xC9, 0x03, 0x49, 0xBE,
	}
)

const (
	// GUID, object size, object count and two reserved bytes
	asfHeaderObjectSize = 30
	// GUID and object size
	asfObjectHeaderSize = 24
	// offset of the file size in a File Properties object: GUID, size, file id
	asfFilePropFileSizeOffset = 40
)

// objects that may follow the header
var asfTopLevel = [][]byte{
	asfDataGUID,
	asfSimpleIndexGUID,
	asfIndexGUID,
}

// ScanWMA walks the top-level ASF objects: the header, the data object and
// the optional index objects. A non-zero file size in the File Properties
// object ends the walk once reached.
func ScanWMA(r *Reader) (uint64, error) {
	var hdr [asfHeaderObjectSize]byte
	if err := r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}
	if !bytes.Equal(hdr[:16], asfHeaderGUID) {
		return 0, violation("asf", 0, "header object not found")
	}

	headerSize := binary.LittleEndian.Uint64(hdr[16:24])
	count := binary.LittleEndian.Uint32(hdr[24:28])
	if headerSize < asfHeaderObjectSize || headerSize > uint64(r.Size()) {
		return 0, violation("asf", 0, "header object size %d", headerSize)
	}

	fileSize, err := asfFileSize(r, headerSize, count)
	if err != nil {
		return 0, err
	}
	if err := r.SeekTo(int64(headerSize)); err != nil {
		return 0, err
	}
	lastGood := headerSize

	var obj [asfObjectHeaderSize]byte
	for r.Remaining() >= asfObjectHeaderSize && (fileSize == 0 || lastGood < fileSize) {
		if err := r.ReadFull(obj[:]); err != nil {
			return lastGood, err
		}
		if !asfIsTopLevel(obj[:16]) {
			break
		}

		size := binary.LittleEndian.Uint64(obj[16:])
		if size < asfObjectHeaderSize || size-asfObjectHeaderSize > uint64(r.Remaining()) {
			return lastGood, violation("asf", lastGood, "object size %d", size)
		}
		if err := r.Skip(int64(size - asfObjectHeaderSize)); err != nil {
			return lastGood, err
		}
		lastGood = uint64(r.Offset())
	}
	return lastGood, nil
}

// asfFileSize looks for the File Properties object among the count children
// of the header object.
func asfFileSize(r *Reader, headerSize uint64, count uint32) (uint64, error) {
	var obj [asfObjectHeaderSize]byte
	for i := uint32(0); i < count; i++ {
		start := uint64(r.Offset())
		if start+asfObjectHeaderSize > headerSize {
			break
		}
		if err := r.ReadFull(obj[:]); err != nil {
			return 0, err
		}

		size := binary.LittleEndian.Uint64(obj[16:])
		if size < asfObjectHeaderSize || start+size > headerSize {
			return 0, violation("asf", 0, "header child %d has size %d", i, size)
		}

		if bytes.Equal(obj[:16], asfFilePropGUID) && size >= asfFilePropFileSizeOffset+8 {
			if err := r.Skip(asfFilePropFileSizeOffset - asfObjectHeaderSize); err != nil {
				return 0, err
			}
			return readU64(r, binary.LittleEndian)
		}
		if err := r.SeekTo(int64(start + size)); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func asfIsTopLevel(guid []byte) bool {
	for _, g := range asfTopLevel {
		if bytes.Equal(g, guid) {
			return true
		}
	}
	return false
}
