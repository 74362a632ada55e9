package detect_test

import (
	"testing"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	rar := mime.MIME{Type: "application/x-rar", Description: "RAR archive data"}

	ending := []detect.Record{
		{Offset: 900, Exact: false, MIME: mime.OctetStream, Sources: []detect.Source{detect.SourceEnding}},
		{Offset: 300, Exact: true, MIME: mime.OctetStream, Sources: []detect.Source{detect.SourceEnding}},
	}
	magic := []detect.Record{
		{Offset: 900, Exact: true, MIME: rar, Sources: []detect.Source{detect.SourceMagic}, Span: 400},
	}
	middleware := []detect.Record{
		{Offset: 0, MIME: mime.MIME{Type: "application/x-ffc"}, Sources: []detect.Source{detect.SourceAntiFFC}},
		{Offset: 900, Sources: []detect.Source{detect.SourceMagic}},
	}

	merged := detect.Merge(ending, magic, middleware)
	require.Len(t, merged, 3)

	require.Equal(t, uint64(0), merged[0].Offset)
	require.Equal(t, uint64(300), merged[1].Offset)

	r := merged[2]
	require.Equal(t, uint64(900), r.Offset)
	require.True(t, r.Exact)
	require.Equal(t, rar, r.MIME)
	require.Equal(t, uint64(400), r.Span)
	require.Equal(t, []detect.Source{detect.SourceEnding, detect.SourceMagic}, r.Sources)
	require.Equal(t, "Ending,Magic", r.Via())

	// the inputs are left alone
	require.Equal(t, []detect.Source{detect.SourceEnding}, ending[0].Sources)
}

func TestMergeEmpty(t *testing.T) {
	require.Empty(t, detect.Merge())
	require.Empty(t, detect.Merge(nil, nil))
}

func TestRecordSummary(t *testing.T) {
	zip := detect.Record{
		Offset:  1536,
		Exact:   true,
		MIME:    mime.MIME{Type: "application/zip", Description: "Zip archive data"},
		Sources: []detect.Source{detect.SourceEnding, detect.SourceMagic},
	}
	require.Equal(t,
		"After 1.50KB (1536 bytes, via Ending,Magic): Identified type: application/zip (Zip archive data)",
		zip.Summary())

	tail := detect.Record{
		Offset:  17,
		MIME:    mime.OctetStream,
		Sources: []detect.Source{detect.SourceEnding},
	}
	require.Equal(t,
		"After about 17B (17 bytes, via Ending): Unidentified type (application/octet-stream, data)",
		tail.Summary())

	require.Equal(t, zip.Summary()+"; "+tail.Summary(), detect.Summarize([]detect.Record{zip, tail}))
}
