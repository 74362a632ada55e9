package scan_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/scan"
	"github.com/ostafen/trailscan/internal/store"
	"github.com/ostafen/trailscan/pkg/dfxml"
	"github.com/stretchr/testify/require"
)

func buildPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 31), G: uint8(y * 31), B: 0x80, A: 0xff})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func junk(n int) []byte {
	return bytes.Repeat([]byte{0xA5, 0x5A, 0x13, 0x37}, n/4+1)[:n]
}

func writeFile(t *testing.T, path string, parts ...[]byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, bytes.Join(parts, nil), 0o644))
}

func newScanner(t *testing.T, opts scan.Options) *scan.Scanner {
	t.Helper()

	e, err := detect.New(detect.DefaultOptions())
	require.NoError(t, err)

	s, err := scan.New(e, opts)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s *scan.Scanner, paths ...string) (scan.Summary, map[string]scan.Result) {
	t.Helper()

	results := make(map[string]scan.Result)
	sum, err := s.Scan(context.Background(), paths, func(r scan.Result) {
		results[filepath.Base(r.Path)] = r
	})
	require.NoError(t, err)
	return sum, results
}

// populate creates a directory holding a flagged, a clean and an excluded
// file. It returns the directory and the size of the carrier.
func populate(t *testing.T) (string, int) {
	t.Helper()

	carrier := buildPNG(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "flagged.png"), carrier, junk(1000))
	writeFile(t, filepath.Join(dir, "clean.png"), carrier)
	writeFile(t, filepath.Join(dir, "sub", "skipped.tmp"), carrier, junk(1000))
	return dir, len(carrier)
}

func TestScan(t *testing.T) {
	dir, carrier := populate(t)

	s := newScanner(t, scan.Options{Workers: 2, Exclude: []string{"*.tmp"}})
	sum, results := collect(t, s, dir)

	require.Equal(t, 2, sum.Files)
	require.Equal(t, 1, sum.Flagged)
	require.Equal(t, 1, sum.Detections)
	require.Zero(t, sum.Failed)
	require.Equal(t, int64(2*carrier+1000), sum.Bytes)

	require.Empty(t, results["clean.png"].Records)

	flagged := results["flagged.png"]
	require.NoError(t, flagged.Err)
	require.Len(t, flagged.Records, 1)
	require.Equal(t, uint64(carrier), flagged.Records[0].Offset)
	require.True(t, flagged.Records[0].Exact)
}

func TestScanExplicitFile(t *testing.T) {
	dir, _ := populate(t)

	// files named on the command line bypass the filters
	s := newScanner(t, scan.Options{Include: []string{"*.png"}})
	sum, results := collect(t, s, filepath.Join(dir, "sub", "skipped.tmp"))

	require.Equal(t, 1, sum.Files)
	require.Len(t, results["skipped.tmp"].Records, 1)
}

func TestScanMissingPath(t *testing.T) {
	s := newScanner(t, scan.Options{})

	_, err := s.Scan(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, err)
}

func TestScanCache(t *testing.T) {
	dir, carrier := populate(t)

	st, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer st.Close()

	s := newScanner(t, scan.Options{Store: st, Exclude: []string{"*.tmp"}})

	sum, _ := collect(t, s, dir)
	require.Zero(t, sum.Cached)

	sum, results := collect(t, s, dir)
	require.Equal(t, 2, sum.Cached)
	require.Equal(t, 1, sum.Flagged)
	require.True(t, results["flagged.png"].Cached)
	require.Equal(t, uint64(carrier), results["flagged.png"].Records[0].Offset)

	flagged, err := st.Flagged()
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, filepath.Join(dir, "flagged.png"), flagged[0].Path)
}

func TestScanReport(t *testing.T) {
	dir, carrier := populate(t)

	var buf bytes.Buffer
	report, err := scan.NewReport(&buf, dir, 0)
	require.NoError(t, err)

	s := newScanner(t, scan.Options{Report: report, Exclude: []string{"*.tmp"}})
	collect(t, s, dir)
	require.NoError(t, report.Close())

	objs, err := dfxml.ReadFileObjects(&buf)
	require.NoError(t, err)
	require.Len(t, objs, 1)

	obj := objs[0]
	require.Equal(t, "flagged.png@"+strconv.Itoa(carrier), obj.Filename)
	require.Equal(t, filepath.Join(dir, "flagged.png"), obj.SourceFile)
	require.Equal(t, uint64(1000), obj.FileSize)
	require.Equal(t, "Ending", obj.Via)
	require.True(t, obj.Exact)
	require.Equal(t, []dfxml.ByteRun{{Offset: 0, ImgOffset: uint64(carrier), Length: 1000}}, obj.ByteRuns.Runs)
}

func TestScanFollowSymlinks(t *testing.T) {
	dir, _ := populate(t)

	root := t.TempDir()
	require.NoError(t, os.Symlink(dir, filepath.Join(root, "linked")))

	sum, _ := collect(t, newScanner(t, scan.Options{}), root)
	require.Zero(t, sum.Files)

	sum, results := collect(t, newScanner(t, scan.Options{FollowSymlinks: true}), root)
	require.Equal(t, 3, sum.Files)
	require.Len(t, results["flagged.png"].Records, 1)
}

func TestScanProgress(t *testing.T) {
	dir, _ := populate(t)

	var out bytes.Buffer
	collect(t, newScanner(t, scan.Options{Progress: &out}), dir)
	require.Contains(t, out.String(), "(3/3 files")
	require.Contains(t, out.String(), "Detections: 2")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	carrier := buildPNG(t)

	s := newScanner(t, scan.Options{Debounce: 50 * time.Millisecond, Exclude: []string{"*.part"}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan scan.Result, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- s.Watch(ctx, []string{dir}, func(r scan.Result) { results <- r })
	}()

	// let the watcher register the directory
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "ignored.part"), carrier, junk(500))
	writeFile(t, filepath.Join(dir, "new.png"), carrier, junk(500))

	select {
	case r := <-results:
		require.Equal(t, "new.png", filepath.Base(r.Path))
		require.Len(t, r.Records, 1)
		require.Equal(t, uint64(len(carrier)), r.Records[0].Offset)
	case <-time.After(5 * time.Second):
		t.Fatal("no result from watcher")
	}

	cancel()
	require.NoError(t, <-errc)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"no patterns", nil, nil, "/data/a.jpg", true},
		{"base name", []string{"*.jpg"}, nil, "/data/a.jpg", true},
		{"base name miss", []string{"*.jpg"}, nil, "/data/a.png", false},
		{"full path", []string{"/data/**"}, nil, "/data/x/a.png", true},
		{"excluded", nil, []string{"**/cache/**"}, "/data/cache/a.jpg", false},
		{"include and exclude", []string{"*.jpg"}, []string{"*_thumb.jpg"}, "/data/a_thumb.jpg", false},
		{"alternatives", []string{"*.{jpg,png}"}, nil, "/data/a.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := scan.NewFilter(tt.include, tt.exclude)
			require.NoError(t, err)
			require.Equal(t, tt.want, f.Match(tt.path))
		})
	}

	_, err := scan.NewFilter([]string{"[a-"}, nil)
	require.Error(t, err)
}

func TestFormatDurationHMS(t *testing.T) {
	require.Equal(t, "0.50s", scan.FormatDurationHMS(500*time.Millisecond))
	require.Equal(t, "01:01:05", scan.FormatDurationHMS(time.Hour+65*time.Second))
}
