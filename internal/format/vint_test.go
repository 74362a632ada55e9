package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEBMLSizeRoundTrip(t *testing.T) {
	cases := []struct {
		v     uint64
		width int
	}{
		{0, 1},
		{126, 1},
		{127, 2},
		{128, 2},
		{16382, 2},
		{16383, 3},
		{16384, 3},
		{1 << 40, 6},
	}

	for _, c := range cases {
		enc := EncodeEBMLSize(c.v)
		require.Len(t, enc, c.width, "value %d", c.v)

		got, err := ReadEBMLSize(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, c.v, got)
	}
}

func TestEBMLUnknownSize(t *testing.T) {
	for _, enc := range [][]byte{{0xff}, {0x7f, 0xff}, {0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}} {
		got, err := ReadEBMLSize(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, UnknownSize, got)
	}

	_, err := ReadEBMLSize(bytes.NewReader([]byte{0x00}))
	require.ErrorIs(t, err, ErrInvalidVint)
}

func TestReadEBMLID(t *testing.T) {
	id, err := ReadEBMLID(bytes.NewReader([]byte{0x1a, 0x45, 0xdf, 0xa3}))
	require.NoError(t, err)
	require.Equal(t, uint32(0x1a45dfa3), id)

	id, err = ReadEBMLID(bytes.NewReader([]byte{0xec}))
	require.NoError(t, err)
	require.Equal(t, uint32(0xec), id)

	_, err = ReadEBMLID(bytes.NewReader([]byte{0x08, 0, 0, 0, 0}))
	require.ErrorIs(t, err, ErrInvalidVint)
}

func TestReadRARVint(t *testing.T) {
	v, err := ReadRARVint(bytes.NewReader([]byte{0x05}))
	require.NoError(t, err)
	require.Equal(t, uint64(5), v)

	v, err = ReadRARVint(bytes.NewReader([]byte{0x80 | 0x2c, 0x02}))
	require.NoError(t, err)
	require.Equal(t, uint64(0x2c|2<<7), v)

	_, err = ReadRARVint(bytes.NewReader(bytes.Repeat([]byte{0xff}, 11)))
	require.ErrorIs(t, err, ErrInvalidVint)
}
