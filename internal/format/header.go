package format

// FileHeader describes one format known to the engine.
type FileHeader struct {
	Name        string   // Short name, e.g. "png", "rar5"
	Ext         string   // File extension, e.g. "png", "rar"
	Description string   // Human readable format name
	MIME        []string // MIME minor types dispatched to this parser, e.g. "png", "x-wav"
	Signatures  [][]byte

	// Parse walks the format grammar from the start of r and returns the
	// offset just past the last complete structure, even when it also
	// returns an error.
	Parse func(r *Reader) (uint64, error)

	// Fallback is tried on a fresh reader when Parse fails before its first
	// complete structure. Its result is always an estimate.
	Fallback func(r *Reader) (uint64, error)

	// Magic marks formats searched for at any position of the input rather
	// than parsed from its start.
	Magic bool

	// Estimated marks parsers whose offset is not machine-verified.
	Estimated bool

	// Trailers lists extra byte sequences that may legitimately follow the
	// end of the format, e.g. a repeated JPEG EOI marker.
	Trailers [][]byte
}

// Family returns the detection family of the header.
func (hdr *FileHeader) Family() string {
	if hdr.Magic {
		return "magic"
	}
	return "ending"
}

var DefaultHeaders = []FileHeader{
	pngFileHeader,
	tiffFileHeader,
	ebmlFileHeader,
	webpFileHeader,
	djvuFileHeader,
	midiFileHeader,
	wavFileHeader,
	xcfFileHeader,
	oggFileHeader,
	jpegFileHeader,
	gifFileHeader,
	bmpFileHeader,
	sqliteFileHeader,
	auFileHeader,
	mp3FileHeader,
	wmaFileHeader,
	pcxFileHeader,
	peFileHeader,

	rar5FileHeader,
	rar4FileHeader,
	rarOldFileHeader,
	sevenZipFileHeader,
	cabFileHeader,
	zipFileHeader,
}
