package format

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

var pngFileHeader = FileHeader{
	Name:        "png",
	Ext:         "png",
	Description: "Portable Network Graphics",
	MIME:        []string{"png", "apng"},
	Signatures:  [][]byte{[]byte(pngHeader)},
	Parse:       ScanPNG,
}

type pngDecoder struct {
	r        *Reader
	crc      hash.Hash32
	seenIHDR bool
	tmp      [4096]byte
}

// ScanPNG walks the chunk list up to IEND, verifying every chunk CRC. The
// first chunk must be IHDR.
func ScanPNG(r *Reader) (uint64, error) {
	d := &pngDecoder{
		r:   r,
		crc: crc32.NewIEEE(),
	}

	if err := r.ReadFull(d.tmp[:len(pngHeader)]); err != nil {
		return 0, err
	}
	if string(d.tmp[:len(pngHeader)]) != pngHeader {
		return 0, violation("png", 0, "invalid signature")
	}

	var lastGood uint64
	for {
		typ, err := d.parseChunk(lastGood)
		if err != nil {
			return lastGood, err
		}
		lastGood = uint64(r.Offset())

		if typ == "IEND" {
			return lastGood, nil
		}
	}
}

func (d *pngDecoder) parseChunk(lastGood uint64) (string, error) {
	// Read the length and chunk type.
	if err := d.r.ReadFull(d.tmp[:8]); err != nil {
		return "", err
	}
	length := binary.BigEndian.Uint32(d.tmp[:4])
	typ := string(d.tmp[4:8])

	if !d.seenIHDR && typ != "IHDR" {
		return "", violation("png", lastGood, "first chunk is %q, want IHDR", typ)
	}
	d.seenIHDR = true

	if length > 0x7fffffff {
		return "", violation("png", lastGood, "bad chunk length: %d", length)
	}

	d.crc.Reset()
	d.crc.Write(d.tmp[4:8])

	for length > 0 {
		n := min(len(d.tmp), int(length))
		if err := d.r.ReadFull(d.tmp[:n]); err != nil {
			return "", err
		}
		d.crc.Write(d.tmp[:n])
		length -= uint32(n)
	}

	if err := d.r.ReadFull(d.tmp[:4]); err != nil {
		return "", err
	}
	if binary.BigEndian.Uint32(d.tmp[:4]) != d.crc.Sum32() {
		return "", violation("png", lastGood, "invalid checksum for chunk %q", typ)
	}
	return typ, nil
}
