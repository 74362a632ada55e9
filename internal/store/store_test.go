package store_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/ostafen/trailscan/internal/store"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "cache", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutLookup(t *testing.T) {
	s := openStore(t)

	key := store.Key{Digest: 0xfedcba9876543210, Size: 4096, Config: 42}
	records := []detect.Record{
		{
			Offset:  1024,
			Exact:   true,
			MIME:    mime.MIME{Type: "application/x-rar", Description: "RAR archive data"},
			Sources: []detect.Source{detect.SourceEnding, detect.SourceMagic},
			Span:    300,
		},
		{
			Offset:    2048,
			MIME:      mime.OctetStream,
			Sources:   []detect.Source{detect.SourceAntiFFC},
			Encrypted: true,
		},
	}
	require.NoError(t, s.Put(key, "/data/a.png", records))

	got, ok, err := s.Lookup(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, records, got)

	// other settings miss
	_, ok, err = s.Lookup(store.Key{Digest: key.Digest, Size: key.Size, Config: 43})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutReplaces(t *testing.T) {
	s := openStore(t)

	key := store.Key{Digest: 1, Size: 10}
	require.NoError(t, s.Put(key, "/a", []detect.Record{{Offset: 5, MIME: mime.PlainText}}))
	require.NoError(t, s.Put(key, "/b", nil))

	got, ok, err := s.Lookup(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestFlagged(t *testing.T) {
	s := openStore(t)

	rec := detect.Record{Offset: 7, Exact: true, MIME: mime.PlainText, Sources: []detect.Source{detect.SourceEnding}}
	require.NoError(t, s.Put(store.Key{Digest: 1, Size: 10}, "/clean", nil))
	require.NoError(t, s.Put(store.Key{Digest: 2, Size: 20}, "/flagged", []detect.Record{rec}))

	entries, err := s.Flagged()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "/flagged", entries[0].Path)
	require.Equal(t, int64(20), entries[0].Size)
	require.Equal(t, []detect.Record{rec}, entries[0].Records)
}

func TestDigest(t *testing.T) {
	data := []byte("trailing data after the end of the image")

	d1, err := store.Digest(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	d2, err := store.Digest(bytes.NewReader(data), int64(len(data)-1))
	require.NoError(t, err)
	require.NotEqual(t, d1, d2)

	opts := detect.DefaultOptions()
	c1 := store.ConfigDigest(opts)
	opts.MaxDepth++
	require.NotEqual(t, c1, store.ConfigDigest(opts))
}
