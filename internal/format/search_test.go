package format_test

import (
	"bytes"
	"testing"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/stretchr/testify/require"
)

func TestSeekAt(t *testing.T) {
	sig := []byte("%%EOF")
	data := append(bytes.Repeat([]byte{'x'}, 100), sig...)
	data = append(data, "tail"...)

	for _, bufSize := range []int{8, 16, 33, 4096} {
		r := format.NewReaderSize(bytes.NewReader(data), int64(len(data)), bufSize)

		found, err := format.SeekAt(r, sig, int64(len(data)))
		require.NoError(t, err)
		require.True(t, found, "buffer size %d", bufSize)
		require.Equal(t, int64(100), r.Offset())
	}
}

func TestSeekAtLimit(t *testing.T) {
	sig := []byte("PK\x07\x08")
	data := append(make([]byte, 50), sig...)

	r := format.NewReaderSize(bytes.NewReader(data), int64(len(data)), 16)
	found, err := format.SeekAt(r, sig, 40)
	require.NoError(t, err)
	require.False(t, found)

	r = format.NewReaderSize(bytes.NewReader(data), int64(len(data)), 16)
	found, err = format.SeekAt(r, sig, 51)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(50), r.Offset())
}

func TestSeekAtNotFound(t *testing.T) {
	r := format.NewReaderSize(bytes.NewReader(make([]byte, 100)), 100, 16)

	found, err := format.SeekAt(r, []byte("abc"), 1000)
	require.NoError(t, err)
	require.False(t, found)
}

func TestIndexAll(t *testing.T) {
	sig := []byte("abab")
	data := []byte("xxababab--abab-aba")

	for _, window := range []int{1, 3, 4, 5, 7, 64} {
		var got []int64
		for off, err := range format.IndexAll(bytes.NewReader(data), int64(len(data)), sig, window) {
			require.NoError(t, err)
			got = append(got, off)
		}
		require.Equal(t, []int64{2, 4, 10}, got, "window %d", window)
	}
}

func TestIndexAllEmpty(t *testing.T) {
	for range format.IndexAll(bytes.NewReader(nil), 0, []byte("x"), 16) {
		require.FailNow(t, "unexpected match")
	}
}
