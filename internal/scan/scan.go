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

// Package scan runs the detection engine over many files at once.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/logger"
	"github.com/ostafen/trailscan/internal/mmap"
	"github.com/ostafen/trailscan/internal/store"
	"github.com/ostafen/trailscan/pkg/pbar"
)

const DefaultDebounce = 500 * time.Millisecond

type Options struct {
	// Workers is the number of files scanned in parallel. 0 means one per CPU.
	Workers        int
	Include        []string
	Exclude        []string
	FollowSymlinks bool
	Debounce       time.Duration

	// Store caches results by content. Nil disables caching.
	Store *store.Store

	// Report receives a file object per detection. Nil disables it.
	Report *Report

	// Progress receives the progress bar of Scan. Nil disables it.
	Progress io.Writer

	Log *slog.Logger
}

// Result is the outcome of scanning one file.
type Result struct {
	Path    string
	Size    int64
	Records []detect.Record
	Cached  bool
	Err     error
}

type Summary struct {
	Files      int
	Flagged    int
	Cached     int
	Failed     int
	Detections int
	Bytes      int64
	Duration   time.Duration
}

func (s *Summary) add(res Result) {
	s.Files++
	s.Bytes += res.Size
	s.Detections += len(res.Records)

	switch {
	case res.Err != nil:
		s.Failed++
	case len(res.Records) > 0:
		s.Flagged++
	}
	if res.Cached {
		s.Cached++
	}
}

type Scanner struct {
	engine *detect.Engine
	opts   Options
	filter *Filter
	config uint64
	log    *slog.Logger
}

func New(engine *detect.Engine, opts Options) (*Scanner, error) {
	filter, err := NewFilter(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}

	return &Scanner{
		engine: engine,
		opts:   opts,
		filter: filter,
		config: store.ConfigDigest(engine.Options()),
		log:    log,
	}, nil
}

// Scan looks for appended data in the given files and in every file below the
// given directories. handle, if not nil, is called from a single goroutine in
// completion order.
func (s *Scanner) Scan(ctx context.Context, paths []string, handle func(Result)) (Summary, error) {
	files, err := s.collect(paths)
	if err != nil {
		return Summary{}, err
	}

	var totalBytes int64
	for _, f := range files {
		totalBytes += f.size
	}

	var bar *pbar.ProgressBarState
	if s.opts.Progress != nil {
		bar = pbar.NewProgressBarState(s.opts.Progress, len(files), totalBytes)
	}

	start := time.Now()

	jobs := make(chan string)
	results := s.run(ctx, jobs)

	go func() {
		defer close(jobs)

		for _, f := range files {
			select {
			case jobs <- f.path:
			case <-ctx.Done():
				return
			}
		}
	}()

	var sum Summary
	for res := range results {
		sum.add(res)
		s.emit(res, handle)

		if bar != nil {
			bar.Add(res.Size, len(res.Records))
			bar.Render(false)
		}
	}

	if bar != nil {
		bar.Render(true)
		bar.Finish()
	}

	sum.Duration = time.Since(start)
	return sum, ctx.Err()
}

// run starts the worker pool. The returned channel is closed once jobs is
// closed and drained.
func (s *Scanner) run(ctx context.Context, jobs <-chan string) <-chan Result {
	results := make(chan Result)

	var wg sync.WaitGroup
	for range s.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for path := range jobs {
				results <- s.scanFile(ctx, path)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (s *Scanner) scanFile(ctx context.Context, path string) Result {
	res := Result{Path: path}

	f, err := mmap.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	res.Size = f.Size()

	var key store.Key
	if s.opts.Store != nil {
		digest, err := store.Digest(f, res.Size)
		if err != nil {
			res.Err = fmt.Errorf("failed to hash %s: %w", path, err)
			return res
		}

		key = store.Key{Digest: digest, Size: res.Size, Config: s.config}

		records, ok, err := s.opts.Store.Lookup(key)
		if err != nil {
			s.log.Warn("cache lookup failed", "path", path, "err", err)
		} else if ok {
			res.Records, res.Cached = records, true
			return res
		}
	}

	res.Records = s.engine.DetectOpened(ctx, path, f, res.Size)

	if s.opts.Store != nil && ctx.Err() == nil {
		if err := s.opts.Store.Put(key, path, res.Records); err != nil {
			s.log.Warn("failed to cache result", "path", path, "err", err)
		}
	}
	return res
}

func (s *Scanner) emit(res Result, handle func(Result)) {
	if res.Err != nil {
		s.log.Error("scan failed", "path", res.Path, "err", res.Err)
	}

	if s.opts.Report != nil && len(res.Records) > 0 {
		if err := s.opts.Report.Add(res); err != nil {
			s.log.Error("unable to write report entry", "path", res.Path, "err", err)
		}
	}

	if handle != nil {
		handle(res)
	}
}

// GenSessionID returns a name for a scan session, in the form
// YYYYMMDD_HHMMSS.
func GenSessionID() string {
	return time.Now().Format("20060102_150405")
}

// FormatDurationHMS formats d as HH:MM:SS, or as fractional seconds below one
// second.
func FormatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
