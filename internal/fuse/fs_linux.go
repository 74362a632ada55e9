//go:build linux

package fuse

import (
	"context"
	"io"
	"os"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

type segmentFS struct {
	root *rootDir
}

func (f *segmentFS) Root() (fs.Node, error) {
	return f.root, nil
}

type rootDir struct {
	volumes []*volumeDir
}

func (*rootDir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = 1
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *rootDir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	for _, v := range d.volumes {
		if v.name == name {
			return v, nil
		}
	}
	return nil, fuse.ENOENT
}

func (d *rootDir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	dirents := make([]fuse.Dirent, len(d.volumes))
	for i, v := range d.volumes {
		dirents[i] = fuse.Dirent{Inode: v.inode, Name: v.name, Type: fuse.DT_Dir}
	}
	return dirents, nil
}

// volumeDir holds the segments of one source file.
type volumeDir struct {
	name  string
	inode uint64
	files []*segmentFile
}

func (d *volumeDir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = d.inode
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *volumeDir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	for _, f := range d.files {
		if f.name == name {
			return f, nil
		}
	}
	return nil, fuse.ENOENT
}

func (d *volumeDir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	dirents := make([]fuse.Dirent, len(d.files))
	for i, f := range d.files {
		dirents[i] = fuse.Dirent{Inode: f.inode, Name: f.name, Type: fuse.DT_File}
	}
	return dirents, nil
}

type segmentFile struct {
	name  string
	inode uint64
	r     io.ReaderAt
	size  uint64
	mtime time.Time
}

func (f *segmentFile) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = f.inode
	a.Mode = 0444
	a.Size = f.size
	a.Mtime = f.mtime
	return nil
}

func (f *segmentFile) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	offset := req.Offset
	if offset >= int64(f.size) {
		resp.Data = []byte{}
		return nil
	}

	size := min(int64(req.Size), int64(f.size)-offset)
	buf := make([]byte, size)

	n, err := f.r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return err
	}
	resp.Data = buf[:n]
	return nil
}
