package format

import (
	"encoding/binary"
)

var auFileHeader = FileHeader{
	Name:        "au",
	Ext:         "au",
	Description: "Sun/NeXT audio",
	MIME:        []string{"basic", "x-au"},
	Signatures:  [][]byte{[]byte(".snd")},
	Parse:       ScanSunAudio,
}

const (
	// AU_MAGIC is the magic number for .au files: ".snd" in big-endian.
	AU_MAGIC uint32 = 0x2e736e64

	// MIN_AU_HEADER_SIZE is the minimum size of a valid AU header (6 * 4 bytes).
	MIN_AU_HEADER_SIZE = 24

	// AU_DATA_SIZE_UNKNOWN is the value used in the data_size field to indicate
	// that the data extends to the end of the file.
	AU_DATA_SIZE_UNKNOWN uint32 = 0xFFFFFFFF
)

// ScanSunAudio returns the header size plus the declared data size. With an
// unknown data size the audio runs to the end of the input.
func ScanSunAudio(r *Reader) (uint64, error) {
	var hdr [MIN_AU_HEADER_SIZE]byte
	if err := r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}

	if magic := binary.BigEndian.Uint32(hdr[0:4]); magic != AU_MAGIC {
		return 0, violation("au", 0, "invalid magic %#x", magic)
	}

	headerSize := binary.BigEndian.Uint32(hdr[4:8])
	if headerSize < MIN_AU_HEADER_SIZE {
		return 0, violation("au", 0, "header size %d is invalid", headerSize)
	}
	dataSize := binary.BigEndian.Uint32(hdr[8:12])

	if err := r.SeekTo(int64(headerSize)); err != nil {
		return 0, err
	}
	if dataSize == AU_DATA_SIZE_UNKNOWN {
		return uint64(r.Size()), nil
	}

	end := uint64(headerSize) + uint64(dataSize)
	if err := r.SeekTo(int64(end)); err != nil {
		return uint64(headerSize), err
	}
	return end, nil
}
