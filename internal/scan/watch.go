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
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch scans the files created or written below dirs until ctx is done. A
// file is scanned once it has not changed for the debounce interval, so that
// files still being copied are not scanned half written.
func (s *Scanner) Watch(ctx context.Context, dirs []string, handle func(Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := s.watchTree(w, dir); err != nil {
			return err
		}
	}

	jobs := make(chan string)
	results := s.run(ctx, jobs)

	done := make(chan struct{})
	go func() {
		defer close(done)

		for res := range results {
			s.emit(res, handle)
		}
	}()

	defer func() {
		close(jobs)
		<-done
	}()

	tick := max(s.opts.Debounce/2, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}

			info, err := os.Stat(ev.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if ev.Has(fsnotify.Create) {
					if err := s.watchTree(w, ev.Name); err != nil {
						s.log.Warn("failed to watch directory", "path", ev.Name, "err", err)
					}
				}
				continue
			}
			if info.Mode().IsRegular() && s.filter.Match(ev.Name) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch error", "err", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < s.opts.Debounce {
					continue
				}
				delete(pending, path)

				select {
				case jobs <- path:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// watchTree adds dir and its subdirectories to w. fsnotify watches are not
// recursive.
func (s *Scanner) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			s.log.Warn("skipping unreadable entry", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}
