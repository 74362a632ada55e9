//go:build linux

// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package fuse

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ostafen/trailscan/internal/mmap"
	osutil "github.com/ostafen/trailscan/pkg/util/os"
)

const maxUnmountRetries = 3

// Mount serves volumes at mountpoint until the process receives an interrupt
// and the filesystem is unmounted.
func Mount(mountpoint string, volumes []Volume, log *slog.Logger) error {
	root, closers, err := openVolumes(volumes)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	if err != nil {
		return err
	}

	created, err := PrepareMountpoint(mountpoint)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(mountpoint,
		fuse.ReadOnly(),
		fuse.FSName("trailscan"),
		fuse.Subtype("trailscan"),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- fusefs.New(c, nil).Serve(&segmentFS{root: root})
	}()
	return waitForUnmount(mountpoint, errc, log)
}

func openVolumes(volumes []Volume) (*rootDir, []io.Closer, error) {
	var closers []io.Closer

	root := &rootDir{}
	inode := uint64(1)

	for _, v := range volumes {
		f, err := mmap.Open(v.Source)
		if err != nil {
			return nil, closers, fmt.Errorf("failed to open %s: %w", v.Source, err)
		}
		closers = append(closers, f)

		info, err := os.Stat(v.Source)
		if err != nil {
			return nil, closers, err
		}

		inode++
		dir := &volumeDir{name: v.Name, inode: inode}

		for _, s := range v.Segments {
			if s.Offset+s.Size > uint64(f.Size()) {
				return nil, closers, fmt.Errorf("segment %s exceeds the size of %s", s.Name, v.Source)
			}

			inode++
			dir.files = append(dir.files, &segmentFile{
				name:  s.Name,
				inode: inode,
				r:     io.NewSectionReader(f, int64(s.Offset), int64(s.Size)),
				size:  s.Size,
				mtime: info.ModTime(),
			})
		}
		root.volumes = append(root.volumes, dir)
	}
	return root, closers, nil
}

func waitForUnmount(mountpoint string, errc <-chan error, log *slog.Logger) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	log.Info("waiting for termination signal", "mountpoint", mountpoint)

	attempts := 0
	for {
		select {
		case err := <-errc:
			return err

		case sig := <-sigc:
			log.Info("signal received", "signal", sig)

			err := fuse.Unmount(mountpoint)
			if err == nil {
				log.Info("unmounted successfully")
				return <-errc
			}

			attempts++
			if attempts >= maxUnmountRetries {
				return fmt.Errorf("unable to unmount %s after %d attempts: %w", mountpoint, attempts, err)
			}
			log.Warn("unmount failed, waiting for another signal to retry", "err", err, "remaining", maxUnmountRetries-attempts)
		}
	}
}

// PrepareMountpoint ensures the given path is an empty directory, creating it
// if needed. It reports whether the directory was created.
func PrepareMountpoint(mountpoint string) (bool, error) {
	created, err := osutil.EnsureDir(mountpoint, true)
	if err != nil {
		return false, fmt.Errorf("invalid mountpoint: %w", err)
	}
	return created, nil
}
