package detect_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/format"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/stretchr/testify/require"
)

func TestDetectAppendedData(t *testing.T) {
	carrier := buildPNG(t)
	data := concat(carrier, junk(1000))

	records := detectBytes(t, newEngine(t, detect.DefaultOptions()), data)
	require.Len(t, records, 1)

	r := records[0]
	require.Equal(t, uint64(len(carrier)), r.Offset)
	require.True(t, r.Exact)
	require.Equal(t, mime.OctetStream.Type, r.MIME.Type)
	require.Equal(t, []detect.Source{detect.SourceEnding}, r.Sources)
	require.False(t, r.Encrypted)
}

func TestDetectCleanFile(t *testing.T) {
	e := newEngine(t, detect.DefaultOptions())

	require.Empty(t, detectBytes(t, e, buildPNG(t)))
	require.Empty(t, detectBytes(t, e, buildMIDI(4)))
	require.Empty(t, detectBytes(t, e, nil))
}

func TestDetectTrailingPadding(t *testing.T) {
	e := newEngine(t, detect.DefaultOptions())

	// zeros, blanks and line breaks are consumed as trailers
	require.Empty(t, detectBytes(t, e, concat(buildPNG(t), make([]byte, 300))))
	require.Empty(t, detectBytes(t, e, concat(buildPNG(t), []byte("\r\n\n  \x00\x00"))))
}

func TestDetectDataAfterPadding(t *testing.T) {
	e := newEngine(t, detect.DefaultOptions())
	carrier := buildPNG(t)

	// the boundary is where the padding ends, not where the image does
	data := concat(carrier, make([]byte, 20), junk(1000))
	records := detectBytes(t, e, data)
	require.Len(t, records, 1)
	require.Equal(t, uint64(len(carrier)+20), records[0].Offset)
	require.True(t, records[0].Exact)

	for _, n := range []int{1, 8, 15} {
		require.Empty(t, detectBytes(t, e, concat(carrier, make([]byte, n))), "%d zero bytes", n)
	}
}

func TestDetectNullTolerance(t *testing.T) {
	const total = "application/x-test"

	classifier := mime.ClassifierFunc(func(_ io.ReaderAt, size int64) (mime.MIME, error) {
		if size >= 150 {
			return mime.MIME{Type: total}, nil
		}
		return mime.OctetStream, nil
	})

	registry := func(estimated bool) *format.FileRegistry {
		return format.BuildRegistry(format.FileHeader{
			Name:      "test",
			MIME:      []string{"x-test"},
			Estimated: estimated,
			Parse: func(r *format.Reader) (uint64, error) {
				return 100, nil
			},
		})
	}

	cases := []struct {
		estimated bool
		content   int
		want      int
	}{
		{estimated: true, content: 10, want: 0},
		{estimated: true, content: 16, want: 0},
		{estimated: true, content: 17, want: 1},
		{estimated: false, content: 1, want: 1},
	}

	for _, c := range cases {
		// 100 bytes of carrier, content bytes after it, then zero padding
		data := concat(bytes.Repeat([]byte{'A'}, 100), bytes.Repeat([]byte{'B'}, c.content), make([]byte, 64))

		e := newEngine(t, detect.DefaultOptions(), detect.WithRegistry(registry(c.estimated)), detect.WithClassifier(classifier))
		records := detectBytes(t, e, data)
		require.Len(t, records, c.want, "estimated=%v content=%d", c.estimated, c.content)

		if c.want > 0 {
			require.Equal(t, uint64(100), records[0].Offset)
			require.Equal(t, !c.estimated, records[0].Exact)
		}
	}
}

func TestDetectEmbeddedArchive(t *testing.T) {
	const k = 5000

	archive := buildRAR4(300)
	data := concat(text(k), archive)

	records := detectBytes(t, newEngine(t, detect.DefaultOptions()), data)
	require.Len(t, records, 1)

	r := records[0]
	require.Equal(t, uint64(k), r.Offset)
	require.Equal(t, uint64(k+len(archive)), r.Offset+r.Span)
	require.True(t, r.Exact)
	require.Equal(t, []detect.Source{detect.SourceMagic}, r.Sources)
	require.Equal(t, "application/x-rar", r.MIME.Type)
}

func TestDetectSmallArchiveIgnored(t *testing.T) {
	data := concat(text(2000), buildRAR4(10), text(100))
	require.Empty(t, detectBytes(t, newEngine(t, detect.DefaultOptions()), data))
}

func TestDetectEncryptedArchive(t *testing.T) {
	data := concat(text(700), buildEncryptedRAR5())

	records := detectBytes(t, newEngine(t, detect.DefaultOptions()), data)
	require.Len(t, records, 1)

	r := records[0]
	require.Equal(t, uint64(700), r.Offset)
	require.True(t, r.Encrypted)
	require.Equal(t, uint64(34), r.Span)
	require.Contains(t, r.Summary(), "encrypted")
}

func TestDetectBareEncryptedArchive(t *testing.T) {
	records := detectBytes(t, newEngine(t, detect.DefaultOptions()), buildEncryptedRAR5())
	require.Len(t, records, 1)

	r := records[0]
	require.Zero(t, r.Offset)
	require.True(t, r.Encrypted)
	require.True(t, r.Exact)
	require.Equal(t, []detect.Source{detect.SourceMagic}, r.Sources)
	require.Equal(t, "application/x-rar", r.MIME.Type)
}

func TestDetectBareArchive(t *testing.T) {
	require.Empty(t, detectBytes(t, newEngine(t, detect.DefaultOptions()), buildRAR4(300)))
}

func TestDetectPDFIncrementalUpdate(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\ntrailer\n<< >>\n%%EOF\n" +
		"2 0 obj\n<< >>\nendobj\ntrailer\n<< >>\n%%EOF\r\n")
	data := concat(pdf, junk(600))

	records := detectBytes(t, newEngine(t, detect.DefaultOptions()), data)
	require.Len(t, records, 1)
	require.Equal(t, uint64(len(pdf)), records[0].Offset)
	require.True(t, records[0].Exact)
}

func TestDetectNestedRemainders(t *testing.T) {
	carrier := buildPNG(t)
	midi := buildMIDI(26)
	data := concat(carrier, midi, junk(16))

	records := detectBytes(t, newEngine(t, detect.DefaultOptions()), data)
	require.Len(t, records, 2)

	require.Equal(t, uint64(len(carrier)), records[0].Offset)
	require.Equal(t, "audio/midi", records[0].MIME.Type)
	require.True(t, records[0].Exact)

	require.Equal(t, uint64(len(carrier)+len(midi)), records[1].Offset)
	require.Equal(t, mime.OctetStream.Type, records[1].MIME.Type)

	opts := detect.DefaultOptions()
	opts.MaxDepth = 1
	records = detectBytes(t, newEngine(t, opts), data)
	require.Len(t, records, 1)
	require.Equal(t, uint64(len(carrier)), records[0].Offset)
}

func TestDetectShortKnownRemainder(t *testing.T) {
	// an identified remainder below the minimum size is not reported
	data := concat(buildPNG(t), buildMIDI(4))
	require.Empty(t, detectBytes(t, newEngine(t, detect.DefaultOptions()), data))

	opts := detect.DefaultOptions()
	opts.MinKnownRemainder = 64
	require.Len(t, detectBytes(t, newEngine(t, opts), data), 1)
}

func TestDetectUnknownTailRatio(t *testing.T) {
	carrier := buildPNG(t)
	data := concat(carrier, junk(16))

	require.Len(t, detectBytes(t, newEngine(t, detect.DefaultOptions()), data), 1)

	opts := detect.DefaultOptions()
	opts.UnknownTailRatio = 0.8
	require.Empty(t, detectBytes(t, newEngine(t, opts), data))
}

type proberFunc func(ctx context.Context, path string) (uint64, error)

func (f proberFunc) Probe(ctx context.Context, path string) (uint64, error) {
	return f(ctx, path)
}

func TestDetectProbe(t *testing.T) {
	data := concat([]byte("fLaC"), bytes.Repeat([]byte{0x11}, 996), junk(1000))

	var probed string
	prober := proberFunc(func(_ context.Context, path string) (uint64, error) {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, data, content)

		probed = path
		return 1000, nil
	})

	records := detectBytes(t, newEngine(t, detect.DefaultOptions(), detect.WithProber(prober)), data)
	require.Len(t, records, 1)
	require.Equal(t, uint64(1000), records[0].Offset)
	require.False(t, records[0].Exact)

	// the scratch copy is gone
	require.NotEmpty(t, probed)
	_, err := os.Stat(probed)
	require.ErrorIs(t, err, os.ErrNotExist)

	// without a prober the type is skipped
	require.Empty(t, detectBytes(t, newEngine(t, detect.DefaultOptions()), data))
}

func TestDetectPath(t *testing.T) {
	data := concat(buildPNG(t), junk(1000))
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	e := newEngine(t, detect.DefaultOptions())
	require.Equal(t, detectBytes(t, e, data), e.Detect(context.Background(), path))

	require.Empty(t, e.Detect(context.Background(), filepath.Join(t.TempDir(), "missing")))
}

func TestDetectCancelled(t *testing.T) {
	data := concat(buildPNG(t), junk(1000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newEngine(t, detect.DefaultOptions())
	require.Empty(t, e.DetectReader(ctx, bytes.NewReader(data), int64(len(data))))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := detect.DefaultOptions()
	opts.Middleware = []string{"pdfminer"}
	_, err := detect.New(opts)
	require.Error(t, err)

	opts = detect.DefaultOptions()
	opts.MaxDepth = 0
	_, err = detect.New(opts)
	require.Error(t, err)

	opts = detect.DefaultOptions()
	opts.UnknownTailRatio = 1.5
	_, err = detect.New(opts)
	require.Error(t, err)
}

func TestRoutes(t *testing.T) {
	e := newEngine(t, detect.DefaultOptions())

	families := map[string]string{}
	for _, r := range e.Routes() {
		families[r.Name] = r.Family
	}

	require.Equal(t, detect.FamilyEnding, families["png"])
	require.Equal(t, detect.FamilyMagic, families["rar5"])
	require.Equal(t, detect.FamilyMarker, families["pdf"])
	require.Equal(t, detect.FamilyMarker, families["svg"])
	require.Equal(t, detect.FamilyProbe, families["flac"])
}
