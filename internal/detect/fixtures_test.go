package detect_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/format"
	"github.com/stretchr/testify/require"
)

// junk is binary filler the sniffer cannot identify and that contains no
// signature of any format.
func junk(n int) []byte {
	return bytes.Repeat([]byte{0xA5, 0x5A, 0x13, 0x37}, n/4+1)[:n]
}

func text(n int) []byte {
	return bytes.Repeat([]byte("lorem ipsum dolor sit amet\n"), n/27+1)[:n]
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func buildPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 0xff})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func iffChunk(name string, payload []byte) []byte {
	out := []byte(name)
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

// buildMIDI returns a MIDI file of 14 + 20*tracks bytes.
func buildMIDI(tracks int) []byte {
	out := iffChunk("MThd", []byte{0, 1, 0, byte(tracks), 0, 96})

	events := []byte{0x00, 0x90, 0x3c, 0x40, 0x60, 0x80, 0x3c, 0x40, 0x00, 0xff, 0x2f, 0x00}
	for i := 0; i < tracks; i++ {
		out = append(out, iffChunk("MTrk", events)...)
	}
	return out
}

func rar4Block(typ byte, flags uint16, head []byte, add []byte, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(0xBEEF))
	buf.WriteByte(typ)
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint16(7+len(add)+len(head)))
	buf.Write(add)
	buf.Write(head)
	buf.Write(data)
	return buf.Bytes()
}

// buildRAR4 returns a RAR 4 archive of 59+dataSize bytes holding one file.
func buildRAR4(dataSize int) []byte {
	out := bytes.Clone(format.RAR4Signature)
	out = append(out, rar4Block(0x73, 0, make([]byte, 6), nil, nil)...)

	add := binary.LittleEndian.AppendUint32(nil, uint32(dataSize))
	out = append(out, rar4Block(0x74, 0x8000, make([]byte, 21), add, bytes.Repeat([]byte{0x7E}, dataSize))...)

	return append(out, rar4Block(0x7b, 0x4000, nil, nil, nil)...)
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

// buildEncryptedRAR5 returns a RAR 5 archive whose headers are encrypted
// after the first 34 bytes.
func buildEncryptedRAR5() []byte {
	out := bytes.Clone(format.RAR5Signature)

	enc := append([]byte{4, 0, 0, 0, 15}, bytes.Repeat([]byte{0x5A}, 16)...)
	out = binary.LittleEndian.AppendUint32(out, 0x44444444)
	out = append(out, rarVint(uint64(len(enc)))...)
	out = append(out, enc...)

	return append(out, bytes.Repeat([]byte{0xC3}, 300)...)
}

func newEngine(t *testing.T, opts detect.Options, options ...detect.Option) *detect.Engine {
	t.Helper()

	e, err := detect.New(opts, options...)
	require.NoError(t, err)
	return e
}

func detectBytes(t *testing.T, e *detect.Engine, data []byte) []detect.Record {
	t.Helper()
	return e.DetectReader(context.Background(), bytes.NewReader(data), int64(len(data)))
}
