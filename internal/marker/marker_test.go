package marker_test

import (
	"bytes"
	"testing"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/ostafen/trailscan/internal/marker"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, s marker.Set, data string) (uint64, bool) {
	t.Helper()

	off, found, err := s.Scan(bytes.NewReader([]byte(data)), int64(len(data)))
	require.NoError(t, err)
	return off, found
}

func TestFindPDFContinues(t *testing.T) {
	doc := "%PDF-1.7\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"
	update := "2 0 obj\n<<>>\nendobj\n%%EOF"

	off, found := scan(t, marker.PDF, doc)
	require.True(t, found)
	require.Equal(t, uint64(len(doc)-1), off)

	// an incremental update moves the end to the last marker
	off, found = scan(t, marker.PDF, doc+update+"payload")
	require.True(t, found)
	require.Equal(t, uint64(len(doc)+len(update)), off)
}

func TestFindSVGLongestVariant(t *testing.T) {
	cases := []struct {
		doc  string
		want int
	}{
		{"<svg></svg>", 11},
		{"<svg></svg>\n", 12},
		{"<svg></svg>\r\nPAYLOAD", 13},
		{"<svg></svg>\rPAYLOAD", 12},
		{"<SVG></SVG>\n\n", 12},
	}

	for _, c := range cases {
		off, found := scan(t, marker.SVG, c.doc)
		require.True(t, found, c.doc)
		require.Equal(t, uint64(c.want), off, c.doc)
	}
}

func TestFindStopsAtFirstMatch(t *testing.T) {
	data := "<svg><g/></svg>\n<svg></svg>"

	off, found := scan(t, marker.SVG, data)
	require.True(t, found)
	require.Equal(t, uint64(16), off)
}

func TestFindNoMatch(t *testing.T) {
	off, found := scan(t, marker.PDF, "%PDF-1.4 truncated")
	require.False(t, found)
	require.Zero(t, off)
}

func TestFindFromOffset(t *testing.T) {
	data := []byte("%%EOF....%%EOF..")
	r := format.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, r.SeekTo(3))

	off, found, err := marker.Find(r, marker.PDF.Markers, false)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(14), off)
}

func TestNullEnd(t *testing.T) {
	cases := []struct {
		data []byte
		want uint64
	}{
		{nil, 0},
		{make([]byte, 10), 0},
		{[]byte("abc"), 3},
		{append([]byte("abc"), make([]byte, 100)...), 3},
		{append(append(make([]byte, 70000), 'x'), make([]byte, 140000)...), 70001},
	}

	for _, c := range cases {
		got, err := marker.NullEnd(bytes.NewReader(c.data), int64(len(c.data)))
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestSeekTrailers(t *testing.T) {
	data := []byte("IMAGE\x00\x00 \r\n\r\nPAYLOAD")

	pos, err := marker.SeekTrailers(bytes.NewReader(data), int64(len(data)), 5, marker.DefaultTrailers)
	require.NoError(t, err)
	require.Equal(t, uint64(12), pos)

	// nothing to consume
	pos, err = marker.SeekTrailers(bytes.NewReader(data), int64(len(data)), 12, marker.DefaultTrailers)
	require.NoError(t, err)
	require.Equal(t, uint64(12), pos)
}

func TestSeekTrailersToEnd(t *testing.T) {
	data := append([]byte("JPEG"), 0xff, 0xd9, 0x00, 0x00, 0xff, 0xd9)
	trailers := append(marker.DefaultTrailers, []byte{0xff, 0xd9})

	pos, err := marker.SeekTrailers(bytes.NewReader(data), int64(len(data)), 4, trailers)
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), pos)

	pos, err = marker.SeekTrailers(bytes.NewReader(data), int64(len(data)), 4, marker.DefaultTrailers)
	require.NoError(t, err)
	require.Equal(t, uint64(4), pos)
}
