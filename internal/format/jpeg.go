package format

var jpegFileHeader = FileHeader{
	Name:        "jpeg",
	Ext:         "jpg",
	Description: "JPEG image",
	MIME:        []string{"jpeg", "jpg", "pjpeg"},
	Signatures: [][]byte{
		{0xFF, 0xD8, 0xFF},
	},
	Parse:    ScanJPEG,
	Fallback: DecodeJPEG,
	Trailers: [][]byte{{0xff, eoiMarker}},
}

const (
	sof0Marker = 0xc0 // Start Of Frame (Baseline Sequential).
	sof1Marker = 0xc1 // Start Of Frame (Extended Sequential).
	sof2Marker = 0xc2 // Start Of Frame (Progressive).
	dhtMarker  = 0xc4 // Define Huffman Table.
	rst0Marker = 0xd0 // ReSTart (0).
	rst7Marker = 0xd7 // ReSTart (7).
	soiMarker  = 0xd8 // Start Of Image.
	eoiMarker  = 0xd9 // End Of Image.
	sosMarker  = 0xda // Start Of Scan.
	dqtMarker  = 0xdb // Define Quantization Table.
	driMarker  = 0xdd // Define Restart Interval.
	comMarker  = 0xfe // COMment.
	// "APPlication specific" markers aren't part of the JPEG spec per se,
	// but in practice, their use is described at
	// https://www.sno.phy.queensu.ca/~phil/exiftool/TagNames/JPEG.html
	app0Marker  = 0xe0
	app14Marker = 0xee
	app15Marker = 0xef
)

// ScanJPEG walks the marker segments of a JPEG stream up to the first End Of
// Image marker, following the segment loop of image/jpeg. Entropy coded data
// is skipped byte-wise: stuffed 0xFF00 pairs, fill bytes and restart markers
// are tolerated as libjpeg does.
//
// The offset is that of the byte after EOI. Nothing is known before EOI is
// reached, so every failure reports offset 0.
func ScanJPEG(r *Reader) (uint64, error) {
	// Check for the Start Of Image marker.
	var tmp [2]byte

	if err := r.ReadFull(tmp[:]); err != nil {
		return 0, err
	}

	if tmp[0] != 0xff || tmp[1] != soiMarker {
		return 0, violation("jpeg", 0, "missing SOI marker")
	}

	// Process the remaining segments until the End Of Image marker.
	for {
		err := r.ReadFull(tmp[:])
		if err != nil {
			return 0, err
		}
		for tmp[0] != 0xff {
			// Extraneous bytes between segments are ignored, as libjpeg
			// does. Stuffed 0xFF bytes in scan data show up as "\xff\x00".
			tmp[0] = tmp[1]
			tmp[1], err = readU8(r)
			if err != nil {
				return 0, err
			}
		}
		marker := tmp[1]
		if marker == 0 {
			// Treat "\xff\x00" as extraneous data.
			continue
		}
		for marker == 0xff {
			// fill bytes (B.1.1.2)
			marker, err = readU8(r)
			if err != nil {
				return 0, err
			}
		}
		if marker == eoiMarker { // End Of Image.
			return uint64(r.Offset()), nil
		}
		if rst0Marker <= marker && marker <= rst7Marker {
			// Restart markers carry no length and may trail the last scan.
			continue
		}

		// The segment length includes its own 2 bytes.
		if err = r.ReadFull(tmp[:]); err != nil {
			return 0, err
		}
		n := int(tmp[0])<<8 + int(tmp[1]) - 2
		if n < 0 {
			return 0, violation("jpeg", 0, "short segment length")
		}

		switch {
		case marker == sof0Marker, marker == sof1Marker, marker == sof2Marker,
			marker == dhtMarker, marker == dqtMarker, marker == sosMarker,
			marker == driMarker:
		case app0Marker <= marker && marker <= app15Marker, marker == comMarker:
		case 0xc0 <= marker && marker <= 0xcf, 0xdc <= marker && marker <= 0xdf:
			// Other frame types and the DNL, DHP and EXP segments, which
			// image/jpeg refuses to decode but which still carry a length.
		default: // See Table B.1 "Marker code assignments".
			return 0, violation("jpeg", 0, "unknown marker 0x%.2x", marker)
		}
		if err := r.Skip(int64(n)); err != nil {
			return 0, err
		}
	}
}
