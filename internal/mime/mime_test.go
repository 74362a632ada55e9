package mime_test

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/ostafen/trailscan/internal/mime"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, data []byte) mime.MIME {
	t.Helper()

	m, err := mime.NewSniffer().Classify(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return m
}

func TestSnifferSignatures(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewGray(image.Rect(0, 0, 4, 4))))

	riff := func(form string) []byte {
		return append([]byte("RIFF\x10\x00\x00\x00"), form+"........"...)
	}

	cases := []struct {
		data []byte
		typ  string
	}{
		{pngBuf.Bytes(), "image/png"},
		{[]byte("GIF89a\x01\x00\x01\x00"), "image/gif"},
		{[]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10}, "image/jpeg"},
		{riff("WEBP"), "image/webp"},
		{riff("WAVE"), "audio/x-wav"},
		{[]byte("MThd\x00\x00\x00\x06"), "audio/midi"},
		{[]byte("OggS\x00\x02"), "audio/ogg"},
		{[]byte("fLaC\x00\x00\x00\x22"), "audio/flac"},
		{[]byte("%PDF-1.7\n"), "application/pdf"},
		{[]byte("<?xml version=\"1.0\"?>\n<svg xmlns=\"http://www.w3.org/2000/svg\"></svg>"), "image/svg+xml"},
		{[]byte("<?xml version=\"1.0\"?>\n<root/>"), "text/xml"},
		{[]byte("Rar!\x1a\x07\x01\x00rest"), "application/x-rar"},
		{[]byte("Rar!\x1a\x07\x00rest"), "application/x-rar"},
		{[]byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c, 0, 4}, "application/x-7z-compressed"},
		{[]byte("MSCF\x00\x00\x00\x00\x10\x00\x00\x00"), "application/vnd.ms-cab-compressed"},
		{[]byte("just some words\nand lines\n"), "text/plain"},
		{[]byte{0x00, 0x01, 0x02, 0x03, 0xfe}, "application/octet-stream"},
		{nil, "application/x-empty"},
	}

	for _, c := range cases {
		require.Equal(t, c.typ, classify(t, c.data).Type, "%q", c.data)
	}
}

func TestSnifferEBMLDocType(t *testing.T) {
	webm := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x87, 0x42, 0x82, 0x84, 'w', 'e', 'b', 'm'}
	require.Equal(t, "video/webm", classify(t, webm).Type)

	mkv := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x8b, 0x42, 0x82, 0x88, 'm', 'a', 't', 'r', 'o', 's', 'k', 'a'}
	m := classify(t, mkv)
	require.Equal(t, "video/x-matroska", m.Type)
	require.Equal(t, "x-matroska", m.Minor())
	require.Equal(t, "video", m.Major())
}

func TestSnifferRejectsWeakSignatures(t *testing.T) {
	// a leading newline is not a PCX header
	require.Equal(t, "text/plain", classify(t, []byte("\n\nhello\n")).Type)

	// "BM" followed by garbage is not a bitmap
	require.Equal(t, "text/plain", classify(t, []byte("BMW owners club meeting minutes")).Type)
}

func TestSnifferLibraryTypes(t *testing.T) {
	bmp := make([]byte, 64)
	copy(bmp, "BM")
	bmp[14] = 40

	cases := []struct {
		data []byte
		typ  string
		desc string
	}{
		{bmp, "image/bmp", "PC bitmap"},
		{[]byte("8BPS\x00\x01\x00\x00\x00\x00\x00\x00"), "image/vnd.adobe.photoshop", "Adobe Photoshop Image"},
		{[]byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00"), "application/x-dosexec", "MS-DOS executable"},
		{[]byte("wOFF\x00\x01\x00\x00\x00\x00\x00\x00"), "font/woff", "WOFF data"},
	}

	for _, c := range cases {
		m := classify(t, c.data)
		require.Equal(t, c.typ, m.Type, "%q", c.data)
		require.Equal(t, c.desc, m.Description, "%q", c.data)
	}
}

func TestSnifferLocalSignatures(t *testing.T) {
	djvu := classify(t, []byte("AT&TFORM\x00\x00\x10\x00DJVU"))
	require.Equal(t, "image/vnd.djvu", djvu.Type)

	pcx := make([]byte, 128)
	pcx[0], pcx[1], pcx[2], pcx[3] = 0x0a, 5, 1, 8
	require.Equal(t, "image/x-pcx", classify(t, pcx).Type)

	ebml := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x88, 0x42, 0x82, 0x85, 'o', 't', 'h', 'e', 'r'}
	m := classify(t, ebml)
	require.Equal(t, "application/x-ebml", m.Type)
	require.Equal(t, "EBML file, DocType other", m.Description)
}

func buildZip(t *testing.T, names ...string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Store}
		w, err := zw.CreateRaw(hdr)
		require.NoError(t, err)
		_, err = w.Write(nil)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSnifferZipRefinement(t *testing.T) {
	require.Equal(t, "application/zip", classify(t, buildZip(t, "a.txt", "b.txt")).Type)

	docx := classify(t, buildZip(t, "[Content_Types].xml", "_rels/.rels", "word/document.xml"))
	require.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", docx.Type)
	require.False(t, docx.IsArchive())

	xlsx := classify(t, buildZip(t, "[Content_Types].xml", "xl/workbook.xml"))
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsx.Type)
}

func TestSnifferODF(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	content := []byte("application/vnd.oasis.opendocument.text")
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "mimetype",
		Method:             zip.Store,
		CompressedSize64:   uint64(len(content)),
		UncompressedSize64: uint64(len(content)),
	})
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	require.Equal(t, "application/vnd.oasis.opendocument.text", classify(t, buf.Bytes()).Type)
}

func TestMIMEKinds(t *testing.T) {
	require.True(t, mime.OctetStream.IsUnknown())
	require.True(t, mime.PlainText.IsUnknown())
	require.False(t, mime.OctetStream.IsArchive())

	rar := mime.MIME{Type: "application/x-rar"}
	require.True(t, rar.IsArchive())
	require.Equal(t, "x-rar", rar.Minor())

	withParams := mime.MIME{Type: "text/plain; charset=us-ascii"}
	require.Equal(t, "plain", withParams.Minor())
	require.Equal(t, "text/plain; charset=us-ascii (ASCII text)", mime.MIME{Type: withParams.Type, Description: "ASCII text"}.String())
}

func TestClassifierFunc(t *testing.T) {
	var calls int
	var c mime.Classifier = mime.ClassifierFunc(func(r io.ReaderAt, size int64) (mime.MIME, error) {
		calls++
		return mime.OctetStream, nil
	})

	m, err := c.Classify(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	require.Equal(t, mime.OctetStream, m)
	require.Equal(t, 1, calls)
}
