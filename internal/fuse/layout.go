// Package fuse exposes the segments listed in a report as a read-only
// filesystem.
package fuse

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/ostafen/trailscan/pkg/dfxml"
)

// Segment is a byte range of a source file, shown as a file of its own.
type Segment struct {
	Name   string
	Offset uint64
	Size   uint64
}

// Volume groups the segments of one source file. It is shown as a directory
// holding the carrier head, named after the source, and one file per
// appended segment.
type Volume struct {
	Name     string
	Source   string
	Segments []Segment
}

// Layout arranges the file objects of a report into volumes, in order of
// first appearance of their source files.
func Layout(objs []dfxml.FileObject) []Volume {
	var (
		volumes []Volume
		index   = make(map[string]int)
		names   = make(map[string]int)
	)

	for _, obj := range objs {
		if len(obj.ByteRuns.Runs) == 0 {
			continue
		}
		run := obj.ByteRuns.Runs[0]

		i, ok := index[obj.SourceFile]
		if !ok {
			i = len(volumes)
			index[obj.SourceFile] = i
			volumes = append(volumes, Volume{
				Name:   uniqueName(names, filepath.Base(obj.SourceFile)),
				Source: obj.SourceFile,
			})
		}

		volumes[i].Segments = append(volumes[i].Segments, Segment{
			Name:   obj.Filename,
			Offset: run.ImgOffset,
			Size:   run.Length,
		})
	}

	for i := range volumes {
		v := &volumes[i]
		slices.SortFunc(v.Segments, func(a, b Segment) int {
			return cmp.Compare(a.Offset, b.Offset)
		})
		v.Segments = slices.CompactFunc(v.Segments, func(a, b Segment) bool {
			return a.Offset == b.Offset
		})

		head := Segment{Name: v.Name, Offset: 0, Size: v.Segments[0].Offset}
		v.Segments = append([]Segment{head}, v.Segments...)
	}
	return volumes
}

func uniqueName(names map[string]int, name string) string {
	n := names[name]
	names[name]++
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s~%d", name, n)
}
