package reader

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiReadSeekerRandomSeek(t *testing.T) {
	testReadSeeker(t, func(data []byte) io.ReadSeeker {
		var segments []Segment

		for size := 0; size < len(data); {
			sz := min(rand.Intn(1024)+1, len(data)-size)

			segments = append(segments, Segment{
				R:    bytes.NewReader(data[size : size+sz]),
				Size: int64(sz),
			})
			size += sz
		}
		return NewMultiReadSeeker(segments...)
	})
}

func TestMultiReadSeekerSequential(t *testing.T) {
	r := NewMultiReadSeeker(
		Segment{R: bytes.NewReader([]byte("head")), Size: 4},
		Segment{R: bytes.NewReader(nil), Size: 0},
		Segment{R: bytes.NewReader(make([]byte, 3)), Size: 3},
		Segment{R: bytes.NewReader([]byte("tail")), Size: 4},
	)
	require.Equal(t, int64(11), r.Size())

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("head\x00\x00\x00tail"), data)

	pos, err := r.Seek(-4, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(7), pos)

	data, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("tail"), data)
}

func TestBufferedSeeker(t *testing.T) {
	testReadSeeker(t, func(data []byte) io.ReadSeeker {
		return NewBufferedReadSeeker(bytes.NewReader(data), 4096)
	})
}

func TestBufferedSeekerPeekAndReadByte(t *testing.T) {
	data := []byte("0123456789abcdef")
	r := NewBufferedReadSeeker(bytes.NewReader(data), 8)

	b, err := r.Peek(4)
	require.NoError(t, err)
	require.Equal(t, []byte("0123"), b)
	require.Equal(t, int64(0), r.Offset())

	c, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('0'), c)

	_, err = r.Seek(6, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(7), r.Offset())

	b, err = r.Peek(8)
	require.NoError(t, err)
	require.Equal(t, []byte("789abcde"), b)

	_, err = r.Peek(9)
	require.Error(t, err)

	_, err = r.Seek(14, io.SeekStart)
	require.NoError(t, err)

	b, err = r.Peek(4)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, []byte("ef"), b)
}
