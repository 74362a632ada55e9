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
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
)

type file struct {
	path string
	size int64
}

// collect lists the regular files to scan. Files named explicitly are always
// kept, files found while walking a directory go through the filter.
func (s *Scanner) collect(paths []string) ([]file, error) {
	var (
		files   []file
		seen    = make(map[string]bool)
		visited = make(map[string]bool)
	)

	add := func(path string, size int64) {
		if !seen[path] {
			seen[path] = true
			files = append(files, file{path: path, size: size})
		}
	}

	var walk func(root string) error
	walk = func(root string) error {
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			return err
		}
		if visited[resolved] {
			return nil
		}
		visited[resolved] = true

		// WalkDir does not descend into a link given as root
		if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
			root = resolved
		}

		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				s.log.Warn("skipping unreadable entry", "path", path, "err", err)
				return nil
			}

			mode := d.Type()
			if mode&fs.ModeSymlink != 0 {
				if !s.opts.FollowSymlinks {
					return nil
				}

				info, err := os.Stat(path)
				if err != nil {
					s.log.Warn("skipping broken link", "path", path, "err", err)
					return nil
				}
				if info.IsDir() {
					if err := walk(path); err != nil {
						s.log.Warn("skipping linked directory", "path", path, "err", err)
					}
					return nil
				}
				if info.Mode().IsRegular() && s.filter.Match(path) {
					add(path, info.Size())
				}
				return nil
			}

			if !mode.IsRegular() || !s.filter.Match(path) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				s.log.Warn("skipping unreadable entry", "path", path, "err", err)
				return nil
			}
			add(path, info.Size())
			return nil
		})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			if err := walk(p); err != nil {
				return nil, err
			}
			continue
		}
		if info.Mode().IsRegular() {
			add(p, info.Size())
		}
	}
	return files, nil
}
