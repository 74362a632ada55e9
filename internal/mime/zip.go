package mime

import (
	"encoding/binary"
	"io"
	"strings"
)

const (
	zipLocalHeaderSize = 30
	zipMaxEntries      = 32
)

var (
	zipArchive = MIME{"application/zip", "Zip archive data"}

	ooxmlTypes = map[string]MIME{
		"word": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "Microsoft Word 2007+"},
		"ppt":  {"application/vnd.openxmlformats-officedocument.presentationml.presentation", "Microsoft PowerPoint 2007+"},
		"xl":   {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "Microsoft Excel 2007+"},
	}

	odfTypes = map[string]MIME{
		"application/epub+zip":                           {"application/epub+zip", "EPUB document"},
		"application/vnd.oasis.opendocument.text":         {"application/vnd.oasis.opendocument.text", "OpenDocument Text"},
		"application/vnd.oasis.opendocument.spreadsheet":  {"application/vnd.oasis.opendocument.spreadsheet", "OpenDocument Spreadsheet"},
		"application/vnd.oasis.opendocument.presentation": {"application/vnd.oasis.opendocument.presentation", "OpenDocument Presentation"},
	}
)

// refineZIP walks the first local file headers looking for the entries that
// identify office documents and packages built on ZIP. Anything else is a
// plain archive.
func refineZIP(_ []byte, r io.ReaderAt, size int64) (MIME, bool) {
	var (
		hdr [zipLocalHeaderSize]byte
		off int64
	)
	for i := 0; i < zipMaxEntries && off+zipLocalHeaderSize <= size; i++ {
		if _, err := r.ReadAt(hdr[:], off); err != nil {
			break
		}
		if binary.LittleEndian.Uint32(hdr[0:4]) != 0x04034b50 {
			break
		}

		flags := binary.LittleEndian.Uint16(hdr[6:8])
		compressed := int64(binary.LittleEndian.Uint32(hdr[18:22]))
		uncompressed := int64(binary.LittleEndian.Uint32(hdr[22:26]))
		nameLen := int64(binary.LittleEndian.Uint16(hdr[26:28]))
		extraLen := int64(binary.LittleEndian.Uint16(hdr[28:30]))

		name := make([]byte, nameLen)
		if _, err := r.ReadAt(name, off+zipLocalHeaderSize); err != nil {
			break
		}
		dataOff := off + zipLocalHeaderSize + nameLen + extraLen

		if m, ok := zipEntryType(string(name)); ok {
			return m, true
		}
		if string(name) == "mimetype" && compressed == uncompressed && compressed < 128 {
			content := make([]byte, compressed)
			if _, err := r.ReadAt(content, dataOff); err == nil {
				if m, ok := odfTypes[strings.TrimSpace(string(content))]; ok {
					return m, true
				}
			}
		}

		// sizes are only known up front without a data descriptor
		if flags&0x08 != 0 {
			break
		}
		off = dataOff + compressed
	}
	return zipArchive, true
}

func zipEntryType(name string) (MIME, bool) {
	if name == "META-INF/mozilla.rsa" {
		return MIME{"application/x-xpinstall", "Mozilla XPInstall"}, true
	}

	dir, _, found := strings.Cut(name, "/")
	if !found {
		return MIME{}, false
	}
	m, ok := ooxmlTypes[dir]
	return m, ok
}

// isZipFamily reports whether typ is a ZIP archive or a format built on it.
func isZipFamily(typ string) bool {
	switch typ {
	case zipArchive.Type, "application/x-xpinstall", "model/3mf":
		return true
	}
	if _, ok := odfTypes[typ]; ok {
		return true
	}
	for _, m := range ooxmlTypes {
		if m.Type == typ {
			return true
		}
	}
	return false
}
