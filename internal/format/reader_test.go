package format_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/stretchr/testify/require"
)

func TestReaderMark(t *testing.T) {
	testData := []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz") // 62 bytes

	r := format.NewReaderSize(bytes.NewReader(testData), int64(len(testData)), 10)

	buf := make([]byte, 5)
	require.NoError(t, r.ReadFull(buf))
	require.Equal(t, testData[:5], buf)
	require.Equal(t, int64(5), r.Mark())

	require.NoError(t, r.SeekTo(40))
	require.Equal(t, int64(40), r.Mark())

	// backward seeks never lower the mark
	require.NoError(t, r.SeekTo(2))
	require.Equal(t, int64(2), r.Offset())
	require.Equal(t, int64(40), r.Mark())

	b, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, testData[2], b)
	require.Equal(t, int64(40), r.Mark())

	// peeking does not move the mark
	peek, err := r.Peek(8)
	require.NoError(t, err)
	require.Equal(t, testData[3:11], peek)
	require.Equal(t, int64(40), r.Mark())

	_, err = r.ReadAt(buf, 50)
	require.NoError(t, err)
	require.Equal(t, testData[50:55], buf)
	require.Equal(t, int64(55), r.Mark())
	require.Equal(t, int64(3), r.Offset())
}

func TestReaderSeekPastEnd(t *testing.T) {
	data := make([]byte, 100)
	r := newReader(data)

	require.NoError(t, r.Skip(60))
	require.Equal(t, int64(40), r.Remaining())

	err := r.Skip(41)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, int64(100), r.Offset())
	require.Equal(t, int64(100), r.Mark())
	require.Zero(t, r.Remaining())

	_, err = r.ReadByte()
	require.ErrorIs(t, err, io.EOF)

	require.ErrorIs(t, r.ReadFull(make([]byte, 1)), io.ErrUnexpectedEOF)
}

func TestReaderShortReadFull(t *testing.T) {
	r := newReader([]byte("abc"))

	err := r.ReadFull(make([]byte, 4))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, int64(3), r.Mark())
}

func TestReaderRandomAccess(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	data := make([]byte, 4096)
	rnd.Read(data)

	r := format.NewReaderSize(bytes.NewReader(data), int64(len(data)), 64)
	want := bytes.NewReader(data)

	var mark int64
	for i := 0; i < 1000; i++ {
		switch rnd.Intn(3) {
		case 0:
			off := rnd.Int63n(int64(len(data)))
			require.NoError(t, r.SeekTo(off))
			_, err := want.Seek(off, io.SeekStart)
			require.NoError(t, err)
			mark = max(mark, off)
		case 1:
			n := rnd.Intn(200)
			got := make([]byte, n)
			exp := make([]byte, n)

			gn, _ := io.ReadFull(r, got)
			en, _ := io.ReadFull(want, exp)
			require.Equal(t, en, gn)
			require.Equal(t, exp[:en], got[:gn])
			mark = max(mark, r.Offset())
		case 2:
			n := rnd.Intn(64) + 1
			got, _ := r.Peek(n)

			pos, _ := want.Seek(0, io.SeekCurrent)
			end := min(pos+int64(n), int64(len(data)))
			require.Equal(t, data[pos:end], got)
		}

		pos, _ := want.Seek(0, io.SeekCurrent)
		require.Equal(t, pos, r.Offset())
		require.Equal(t, mark, r.Mark())
	}
}
