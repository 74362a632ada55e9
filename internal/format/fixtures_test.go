package format_test

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/stretchr/testify/require"
)

func newReader(data []byte) *format.Reader {
	return format.NewReader(bytes.NewReader(data), int64(len(data)))
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(16, 16)))
	return buf.Bytes()
}

func pngChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

func iffChunk(order binary.ByteOrder, name string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(name)
	binary.Write(&buf, order, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// buildMIDI returns a format 1 MIDI file with the given number of tracks.
func buildMIDI(tracks int) []byte {
	hdr := []byte{0, 1, 0, byte(tracks), 0, 96}
	out := iffChunk(binary.BigEndian, "MThd", hdr)

	// a note on/off pair and end of track
	events := []byte{0x00, 0x90, 0x3c, 0x40, 0x60, 0x80, 0x3c, 0x40, 0x00, 0xff, 0x2f, 0x00}
	for i := 0; i < tracks; i++ {
		out = append(out, iffChunk(binary.BigEndian, "MTrk", events)...)
	}
	return out
}

func rar5Block(crc uint32, header []byte, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, crc)
	buf.Write(rarVint(uint64(len(header))))
	buf.Write(header)
	buf.Write(data)
	return buf.Bytes()
}

func rarVint(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// buildRAR5 returns a RAR 5 archive with one stored file of dataSize bytes.
func buildRAR5(dataSize int) []byte {
	out := bytes.Clone(format.RAR5Signature)
	out = append(out, rar5Block(0x11111111, []byte{1, 0, 0}, nil)...)

	file := append([]byte{2, 2}, rarVint(uint64(dataSize))...)
	file = append(file, make([]byte, 10)...)
	out = append(out, rar5Block(0x22222222, file, bytes.Repeat([]byte{0xAB}, dataSize))...)

	return append(out, rar5Block(0x33333333, []byte{5, 0, 0}, nil)...)
}

func buildEncryptedRAR5() []byte {
	out := bytes.Clone(format.RAR5Signature)

	// version, flags, kdf count, salt
	enc := append([]byte{4, 0, 0, 0, 15}, bytes.Repeat([]byte{0x5A}, 16)...)
	out = append(out, rar5Block(0x44444444, enc, nil)...)

	// the rest is encrypted
	return append(out, bytes.Repeat([]byte{0xC3}, 300)...)
}

func rar4Block(typ byte, flags uint16, head []byte, add []byte, data []byte) []byte {
	size := 7 + len(add) + len(head)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(0xBEEF))
	buf.WriteByte(typ)
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint16(size))
	buf.Write(add)
	buf.Write(head)
	buf.Write(data)
	return buf.Bytes()
}

// buildRAR4 returns a RAR 4 archive holding one file of dataSize bytes.
func buildRAR4(dataSize int, archiveFlags uint16) []byte {
	out := bytes.Clone(format.RAR4Signature)
	out = append(out, rar4Block(0x73, archiveFlags, make([]byte, 6), nil, nil)...)

	add := binary.LittleEndian.AppendUint32(nil, uint32(dataSize))
	out = append(out, rar4Block(0x74, 0x8000, make([]byte, 21), add, bytes.Repeat([]byte{0x7E}, dataSize))...)

	return append(out, rar4Block(0x7b, 0x4000, nil, nil, nil)...)
}

func build7z(packed, header int) []byte {
	out := make([]byte, 32)
	copy(out, format.SevenZipSignature)
	out[6], out[7] = 0, 4

	binary.LittleEndian.PutUint64(out[12:], uint64(packed))
	binary.LittleEndian.PutUint64(out[20:], uint64(header))
	binary.LittleEndian.PutUint32(out[28:], 0xCAFEBABE)
	binary.LittleEndian.PutUint32(out[8:], crc32.ChecksumIEEE(out[12:32]))

	out = append(out, bytes.Repeat([]byte{0x11}, packed)...)
	return append(out, bytes.Repeat([]byte{0x22}, header)...)
}

func buildCAB(size int) []byte {
	out := make([]byte, size)
	copy(out, format.CABSignature)
	binary.LittleEndian.PutUint32(out[8:], uint32(size))
	for i := 16; i < size; i++ {
		out[i] = byte(i)
	}
	return out
}

func oggPage(payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("OggS")
	buf.WriteByte(0)                 // version
	buf.WriteByte(0)                 // header type
	buf.Write(make([]byte, 8+4+4+4)) // granule, serial, sequence, crc

	var lacing []byte
	n := len(payload)
	for n >= 255 {
		lacing = append(lacing, 255)
		n -= 255
	}
	lacing = append(lacing, byte(n))

	buf.WriteByte(byte(len(lacing)))
	buf.Write(lacing)
	buf.Write(payload)
	return buf.Bytes()
}

// ebmlElement encodes a single element with a known size.
func ebmlElement(id uint32, payload ...[]byte) []byte {
	var body []byte
	for _, p := range payload {
		body = append(body, p...)
	}

	var out []byte
	switch {
	case id > 0xFFFFFF:
		out = binary.BigEndian.AppendUint32(nil, id)
	case id > 0xFFFF:
		out = []byte{byte(id >> 16), byte(id >> 8), byte(id)}
	case id > 0xFF:
		out = []byte{byte(id >> 8), byte(id)}
	default:
		out = []byte{byte(id)}
	}
	out = append(out, format.EncodeEBMLSize(uint64(len(body)))...)
	return append(out, body...)
}

func ebmlHeader() []byte {
	return ebmlElement(0x1A45DFA3,
		ebmlElement(0x4286, []byte{1}),
		ebmlElement(0x4282, []byte("webm")),
		ebmlElement(0x4287, []byte{2}),
	)
}

func ebmlSegmentChildren() [][]byte {
	return [][]byte{
		ebmlElement(0x1549A966,
			ebmlElement(0x2AD7B1, []byte{0x0F, 0x42, 0x40}),
			ebmlElement(0x4D80, []byte("trailscan")),
		),
		ebmlElement(0x1F43B675,
			ebmlElement(0xE7, []byte{0}),
			ebmlElement(0xA3, bytes.Repeat([]byte{0x81}, 64)),
		),
		ebmlElement(0xEC, make([]byte, 8)),
	}
}

func buildWebM() []byte {
	return append(ebmlHeader(), ebmlElement(0x18538067, ebmlSegmentChildren()...)...)
}

// buildWebMUnknownSize writes the Segment with the reserved all-ones size.
func buildWebMUnknownSize() []byte {
	out := append(ebmlHeader(), 0x18, 0x53, 0x80, 0x67, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	for _, c := range ebmlSegmentChildren() {
		out = append(out, c...)
	}
	return out
}

// buildZip returns a ZIP archive with n stored entries.
func buildZip(t *testing.T, n int) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := range n {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: fmt.Sprintf("entry%04d.txt", i), Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write([]byte("content"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
