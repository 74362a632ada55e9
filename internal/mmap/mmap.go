package mmap

import (
	"fmt"
	"io"
	"os"
)

// File is a read-only view of a whole file, memory mapped where the platform
// allows it.
type File struct {
	data  []byte
	file  *os.File
	unmap func([]byte) error
}

// Open maps the file at path. Empty files are not mapped and yield a File of
// size zero.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info for %q: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%q is not a regular file", path)
	}
	if fi.Size() == 0 {
		return &File{file: f}, nil
	}
	if int64(int(fi.Size())) != fi.Size() {
		f.Close()
		return nil, fmt.Errorf("file %q is too large to map", path)
	}

	data, unmap, err := mapFile(f, int(fi.Size()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file %q: %w", path, err)
	}
	return &File{data: data, file: f, unmap: unmap}, nil
}

func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *File) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the mapped content. It must not be used after Close.
func (m *File) Bytes() []byte {
	return m.data
}

// Close unmaps the memory region and closes the underlying file.
func (m *File) Close() error {
	var err error
	if m.data != nil && m.unmap != nil {
		if err = m.unmap(m.data); err != nil {
			err = fmt.Errorf("failed to munmap: %w", err)
		}
	}
	m.data = nil

	if m.file != nil {
		if closeErr := m.file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
		m.file = nil
	}
	return err
}
