package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	require.Equal(t, slog.LevelInfo, ParseLevel("INFO"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, slog.LevelInfo)
	l.Debugf("hidden %d", 1)
	l.Infof("found %d records", 2)
	l.With("file", "a.png").Warn("unsupported type")

	require.Equal(t, "[INFO] found 2 records\n[WARN] unsupported type file=a.png\n", buf.String())
}

func TestOpen(t *testing.T) {
	l, f, err := Open("", slog.LevelInfo)
	require.NoError(t, err)
	require.Nil(t, f)
	l.Info("dropped")

	path := filepath.Join(t.TempDir(), "logs", "scan.log")
	l, f, err = Open(path, slog.LevelInfo)
	require.NoError(t, err)
	require.NotNil(t, f)

	l.Info("scanned", "records", 3)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "msg=scanned")
	require.Contains(t, string(data), "records=3")
}

func TestConsoleLoggerConcurrent(t *testing.T) {
	const workers, lines = 8, 200

	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			log := l.With("worker", w)
			for i := range lines {
				log.Info("scanned", "n", i)
			}
		}()
	}
	wg.Wait()

	out := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, out, workers*lines)
	for _, line := range out {
		require.Regexp(t, `^\[INFO\] scanned worker=\d+ n=\d+$`, line)
	}
}
