package mime

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/italypaleale/file-type-stream-go/pkg/filetype"
	"github.com/ostafen/trailscan/pkg/table"
)

const (
	// HeadSize is the number of leading bytes the local signatures look at.
	HeadSize = 4096

	// sniffLimit bounds what the filetype library may buffer. Its PDF check
	// alone reads ten megabytes past the header.
	sniffLimit = 16 << 20
)

// refineFunc inspects the input further once a signature matched. It reports
// false when the match was a coincidence.
type refineFunc func(head []byte, r io.ReaderAt, size int64) (MIME, bool)

// libraryTypes normalises the types reported by the filetype library to the
// names used by the format routes, with a file(1) style description.
var libraryTypes = map[string]MIME{
	"image/gif":                         {"image/gif", "GIF image data"},
	"image/jpeg":                        {"image/jpeg", "JPEG image data"},
	"image/png":                         {"image/png", "PNG image data"},
	"image/tiff":                        {"image/tiff", "TIFF image data"},
	"image/webp":                        {"image/webp", "RIFF (little-endian) data, Web/P image"},
	"image/x-xcf":                       {"image/x-xcf", "GIMP XCF image data"},
	"image/vnd.adobe.photoshop":         {"image/vnd.adobe.photoshop", "Adobe Photoshop Image"},
	"audio/midi":                        {"audio/midi", "Standard MIDI data"},
	"audio/x-flac":                      {"audio/flac", "FLAC audio bitstream data"},
	"audio/vnd.wave":                    {"audio/x-wav", "RIFF (little-endian) data, WAVE audio"},
	"audio/aiff":                        {"audio/x-aiff", "IFF data, AIFF audio"},
	"audio/mpeg":                        {"audio/mpeg", "MPEG ADTS, layer III"},
	"audio/ogg":                         {"audio/ogg", "Ogg data"},
	"audio/opus":                        {"audio/ogg", "Ogg data, Opus audio"},
	"video/ogg":                         {"video/ogg", "Ogg data"},
	"application/ogg":                   {"audio/ogg", "Ogg data"},
	"video/webm":                        {"video/webm", "WebM"},
	"video/x-matroska":                  {"video/x-matroska", "Matroska data"},
	"video/vnd.avi":                     {"video/x-msvideo", "RIFF (little-endian) data, AVI"},
	"video/mp4":                         {"video/mp4", "ISO Media, MP4"},
	"video/quicktime":                   {"video/quicktime", "ISO Media, Apple QuickTime movie"},
	"audio/x-ms-asf":                    {"video/x-ms-asf", "Microsoft ASF"},
	"video/x-ms-asf":                    {"video/x-ms-asf", "Microsoft ASF"},
	"application/vnd.ms-asf":            {"video/x-ms-asf", "Microsoft ASF"},
	"application/pdf":                   {"application/pdf", "PDF document"},
	"application/postscript":            {"application/postscript", "PostScript document text"},
	"application/x-sqlite3":             {"application/vnd.sqlite3", "SQLite 3.x database"},
	"application/x-msdownload":          {"application/x-dosexec", "MS-DOS executable"},
	"application/x-elf":                 {"application/x-executable", "ELF executable"},
	"application/x-rar-compressed":      {"application/x-rar", "RAR archive data"},
	"application/x-7z-compressed":       {"application/x-7z-compressed", "7-zip archive data"},
	"application/vnd.ms-cab-compressed": {"application/vnd.ms-cab-compressed", "Microsoft Cabinet archive data"},
	"application/gzip":                  {"application/gzip", "gzip compressed data"},
	"application/x-bzip2":               {"application/x-bzip2", "bzip2 compressed data"},
	"application/x-xz":                  {"application/x-xz", "XZ compressed data"},
	"application/zstd":                  {"application/zstd", "Zstandard compressed data"},
}

// libraryRefinements re-examine library matches that are either too weak to
// trust or too coarse for the routes. ZIP based types are always walked again.
var libraryRefinements = map[string]refineFunc{
	"image/bmp":        refineBMP,
	"application/xml":  refineXML,
	"video/webm":       refineEBML,
	"video/x-matroska": refineEBML,
}

type signature struct {
	magic  []byte
	mime   MIME
	refine refineFunc
}

// signatures covers the types the filetype library does not report.
var signatures = []signature{
	{magic: []byte("\x89PNG\r\n\x1a\n"), mime: MIME{"image/png", "PNG image data"}},
	{magic: []byte{0x0A}, refine: refinePCX},
	{magic: []byte("gimp xcf "), mime: MIME{"image/x-xcf", "GIMP XCF image data"}},
	{magic: []byte("AT&TFORM"), mime: MIME{"image/vnd.djvu", "DjVu image or single page document"}},
	{magic: []byte("RIFF"), refine: refineRIFF},
	{magic: []byte("RIFX"), refine: refineRIFF},
	{magic: []byte{0x1A, 0x45, 0xDF, 0xA3}, refine: refineEBML},
	{magic: []byte("OggS"), mime: MIME{"audio/ogg", "Ogg data"}},
	{magic: []byte(".snd"), mime: MIME{"audio/basic", "Sun/NeXT audio data"}},
	{magic: []byte("ID3"), mime: MIME{"audio/mpeg", "Audio file with ID3 version 2"}},
	{magic: []byte{0xFF, 0xFB}, mime: MIME{"audio/mpeg", "MPEG ADTS, layer III, v1"}},
	{magic: []byte{0xFF, 0xF3}, mime: MIME{"audio/mpeg", "MPEG ADTS, layer III, v2"}},
	{magic: []byte{0xFF, 0xF2}, mime: MIME{"audio/mpeg", "MPEG ADTS, layer III, v2"}},
	{
		magic: []byte{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11},
		mime:  MIME{"video/x-ms-asf", "Microsoft ASF"},
	},
	{magic: []byte("<?xml"), refine: refineXML},
	{magic: []byte("<svg"), mime: MIME{"image/svg+xml", "SVG Scalable Vector Graphics image"}},
	{magic: []byte("SQLite format 3\x00"), mime: MIME{"application/vnd.sqlite3", "SQLite 3.x database"}},
	{magic: []byte("\x7fELF"), mime: MIME{"application/x-executable", "ELF executable"}},
	{magic: []byte("PK\x05\x06"), mime: MIME{"application/zip", "Zip archive data (empty)"}},
	{magic: []byte("Rar!\x1a\x07\x01\x00"), mime: MIME{"application/x-rar", "RAR archive data, v5"}},
	{magic: []byte("Rar!\x1a\x07\x00"), mime: MIME{"application/x-rar", "RAR archive data, v4"}},
	{magic: []byte("RE~^"), mime: MIME{"application/x-rar", "RAR archive data (<v1.5)"}},
	{magic: []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}, mime: MIME{"application/x-7z-compressed", "7-zip archive data"}},
	{magic: []byte("MSCF\x00\x00\x00\x00"), mime: MIME{"application/vnd.ms-cab-compressed", "Microsoft Cabinet archive data"}},
	{magic: []byte("ArC\x01"), mime: MIME{"application/x-freearc", "FreeArc archive"}},
	{magic: []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, mime: MIME{"application/x-xz", "XZ compressed data"}},
	{magic: []byte{0x28, 0xB5, 0x2F, 0xFD}, mime: MIME{"application/zstd", "Zstandard compressed data"}},
}

// Sniffer is the builtin Classifier. It asks the filetype library first and
// falls back to a prefix table of the signatures the library lacks, refining
// ambiguous containers by looking inside them.
type Sniffer struct {
	table *table.PrefixTable[[]*signature]
}

func NewSniffer() *Sniffer {
	t := table.New[[]*signature]()
	for i := range signatures {
		sig := &signatures[i]
		sigs, _ := t.Get(sig.magic)
		t.Insert(sig.magic, append(sigs, sig))
	}
	return &Sniffer{table: t}
}

func (s *Sniffer) Classify(r io.ReaderAt, size int64) (MIME, error) {
	if size <= 0 {
		return Empty, nil
	}

	head := make([]byte, min(size, HeadSize))
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return MIME{}, err
	}
	head = head[:n]

	ext, typ, err := filetype.GetFileType(io.NewSectionReader(r, 0, min(size, sniffLimit)))
	if err != nil {
		return MIME{}, err
	}
	if m, ok := fromLibrary(ext, typ, head, r, size); ok {
		return m, nil
	}

	// longer signatures are more specific
	candidates := slices.Collect(s.table.Match(head))
	for _, sigs := range slices.Backward(candidates) {
		for _, sig := range sigs {
			if sig.refine == nil {
				return sig.mime, nil
			}
			if m, ok := sig.refine(head, r, size); ok {
				return m, nil
			}
		}
	}

	if isText(head) {
		return PlainText, nil
	}
	return OctetStream, nil
}

func fromLibrary(ext, typ string, head []byte, r io.ReaderAt, size int64) (MIME, bool) {
	if typ == "" {
		return MIME{}, false
	}
	if isZipFamily(typ) {
		return refineZIP(head, r, size)
	}
	if refine, ok := libraryRefinements[typ]; ok {
		return refine(head, r, size)
	}
	if m, ok := libraryTypes[typ]; ok {
		return m, true
	}
	return MIME{Type: typ, Description: strings.ToUpper(ext) + " data"}, true
}

func isText(head []byte) bool {
	// a cut in the middle of a rune is fine
	for len(head) > 0 {
		c, n := utf8.DecodeRune(head)
		if c == utf8.RuneError && n == 1 && len(head) >= utf8.UTFMax {
			return false
		}
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' && c != '\f' && c != 0x1b {
			return false
		}
		head = head[n:]
	}
	return true
}

func refineRIFF(head []byte, _ io.ReaderAt, _ int64) (MIME, bool) {
	if len(head) < 12 {
		return MIME{}, false
	}

	endian := "little-endian"
	if head[3] == 'X' {
		endian = "big-endian"
	}

	switch string(head[8:12]) {
	case "WEBP":
		return MIME{"image/webp", "RIFF (" + endian + ") data, Web/P image"}, true
	case "WAVE":
		return MIME{"audio/x-wav", "RIFF (" + endian + ") data, WAVE audio"}, true
	case "AVI ":
		return MIME{"video/x-msvideo", "RIFF (" + endian + ") data, AVI"}, true
	}
	return MIME{"application/x-riff", "RIFF (" + endian + ") data"}, true
}

func refineEBML(head []byte, _ io.ReaderAt, _ int64) (MIME, bool) {
	// DocType element id followed by a one byte size
	i := bytes.Index(head, []byte{0x42, 0x82})
	if i < 0 || i+3 > len(head) {
		return MIME{"application/x-ebml", "EBML file"}, true
	}

	n := int(head[i+2] & 0x7f)
	docType := head[i+3 : min(len(head), i+3+n)]
	switch string(docType) {
	case "webm":
		return MIME{"video/webm", "WebM"}, true
	case "matroska":
		return MIME{"video/x-matroska", "Matroska data"}, true
	}
	return MIME{"application/x-ebml", "EBML file, DocType " + string(docType)}, true
}

func refineXML(head []byte, _ io.ReaderAt, _ int64) (MIME, bool) {
	if bytes.Contains(head, []byte("<svg")) || bytes.Contains(head, []byte("<SVG")) {
		return MIME{"image/svg+xml", "SVG Scalable Vector Graphics image"}, true
	}
	return MIME{"text/xml", "XML document text"}, true
}

func refineBMP(head []byte, _ io.ReaderAt, _ int64) (MIME, bool) {
	// reserved words are zero and the DIB header size is a known one
	if len(head) < 18 || head[6] != 0 || head[7] != 0 || head[8] != 0 || head[9] != 0 {
		return MIME{}, false
	}
	switch head[14] {
	case 12, 40, 52, 56, 64, 108, 124:
		return MIME{"image/bmp", "PC bitmap"}, true
	}
	return MIME{}, false
}

func refinePCX(head []byte, _ io.ReaderAt, _ int64) (MIME, bool) {
	if len(head) < 128 {
		return MIME{}, false
	}
	version, encoding, bpp := head[1], head[2], head[3]
	if version > 5 || version == 1 || encoding > 1 {
		return MIME{}, false
	}
	switch bpp {
	case 1, 2, 4, 8:
		return MIME{"image/x-pcx", "PCX image data"}, true
	}
	return MIME{}, false
}
