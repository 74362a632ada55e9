package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/trailscan/pkg/dfxml"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCompose(t *testing.T) {
	dir := t.TempDir()

	carrier := writeTemp(t, dir, "carrier", []byte("CARRIER"))
	p1 := writeTemp(t, dir, "p1", []byte("one"))
	p2 := writeTemp(t, dir, "p2", []byte("two"))

	var buf bytes.Buffer
	n, err := compose(&buf, carrier, []string{p1, p2}, 2)
	require.NoError(t, err)
	require.Equal(t, int64(17), n)
	require.Equal(t, []byte("CARRIER\x00\x00one\x00\x00two"), buf.Bytes())

	buf.Reset()
	_, err = compose(&buf, carrier, []string{p1}, 0)
	require.NoError(t, err)
	require.Equal(t, "CARRIERone", buf.String())

	_, err = compose(&buf, carrier, []string{filepath.Join(dir, "missing")}, 0)
	require.Error(t, err)
}

func TestExtractSegment(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "cat.png", []byte("headPAYLOAD"))

	out := t.TempDir()
	obj := dfxml.FileObject{
		Filename:   "cat.png@4",
		SourceFile: src,
		ByteRuns:   dfxml.ByteRuns{Runs: []dfxml.ByteRun{{ImgOffset: 4, Length: 7}}},
	}
	require.NoError(t, extractSegment(out, obj))

	data, err := os.ReadFile(filepath.Join(out, "cat.png@4"))
	require.NoError(t, err)
	require.Equal(t, "PAYLOAD", string(data))

	obj.ByteRuns.Runs[0].Length = 100
	require.Error(t, extractSegment(out, obj))

	obj.ByteRuns.Runs = nil
	require.Error(t, extractSegment(out, obj))
}

func TestGetMountpoint(t *testing.T) {
	require.Equal(t, "report_1", getMountpoint("/tmp/report_1.xml"))
	require.Equal(t, "report_mnt", getMountpoint("report"))
}
