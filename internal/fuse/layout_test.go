package fuse_test

import (
	"testing"

	"github.com/ostafen/trailscan/internal/fuse"
	"github.com/ostafen/trailscan/pkg/dfxml"
	"github.com/stretchr/testify/require"
)

func object(source, name string, offset, length uint64) dfxml.FileObject {
	return dfxml.FileObject{
		Filename:   name,
		FileSize:   length,
		SourceFile: source,
		ByteRuns:   dfxml.ByteRuns{Runs: []dfxml.ByteRun{{ImgOffset: offset, Length: length}}},
	}
}

func TestLayout(t *testing.T) {
	objs := []dfxml.FileObject{
		object("/a/cat.png", "cat.png@2000", 2000, 1000),
		object("/b/cat.png", "cat.png@10", 10, 5),
		object("/a/cat.png", "cat.png@1000", 1000, 2000),
		object("/a/cat.png", "cat.png@1000", 1000, 2000),
		{Filename: "no-runs", SourceFile: "/c/x"},
	}

	volumes := fuse.Layout(objs)
	require.Equal(t, []fuse.Volume{
		{
			Name:   "cat.png",
			Source: "/a/cat.png",
			Segments: []fuse.Segment{
				{Name: "cat.png", Offset: 0, Size: 1000},
				{Name: "cat.png@1000", Offset: 1000, Size: 2000},
				{Name: "cat.png@2000", Offset: 2000, Size: 1000},
			},
		},
		{
			Name:   "cat.png~1",
			Source: "/b/cat.png",
			Segments: []fuse.Segment{
				{Name: "cat.png~1", Offset: 0, Size: 10},
				{Name: "cat.png@10", Offset: 10, Size: 5},
			},
		},
	}, volumes)
}

func TestLayoutEmpty(t *testing.T) {
	require.Empty(t, fuse.Layout(nil))
}
