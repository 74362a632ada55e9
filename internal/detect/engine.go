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
package detect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/ostafen/trailscan/internal/logger"
	"github.com/ostafen/trailscan/internal/marker"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/ostafen/trailscan/internal/mmap"
	"github.com/ostafen/trailscan/internal/probe"
)

// Engine finds the offsets at which the legitimate content of a file ends.
// It holds no mutable state and may be shared between goroutines.
type Engine struct {
	opts       Options
	registry   *format.FileRegistry
	classifier mime.Classifier
	prober     probe.Prober
	remuxer    Remuxer
	scanner    *format.MagicScanner
	middleware []Middleware
	log        *slog.Logger

	routes    map[string]*route
	routeList []Route
}

type Option func(*Engine)

// WithClassifier sets the MIME classifier. The builtin sniffer is the default.
func WithClassifier(c mime.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithProber sets the prober used for formats without a native parser. A nil
// prober disables them.
func WithProber(p probe.Prober) Option {
	return func(e *Engine) { e.prober = p }
}

// WithRemuxer sets the tool used by the remux middleware.
func WithRemuxer(r Remuxer) Option {
	return func(e *Engine) { e.remuxer = r }
}

func WithRegistry(r *format.FileRegistry) Option {
	return func(e *Engine) { e.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMiddleware adds middleware on top of the ones named in the options.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) { e.middleware = append(e.middleware, mw...) }
}

func New(opts Options, options ...Option) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:       opts,
		registry:   format.DefaultRegistry(),
		classifier: mime.NewSniffer(),
		remuxer:    probe.NewRemux("", 0),
		log:        logger.Discard(),
	}
	for _, o := range options {
		o(e)
	}

	e.scanner = format.NewMagicScanner(e.registry, opts.WindowSize)
	e.buildRoutes()

	named := make([]Middleware, 0, len(opts.Middleware))
	for _, name := range opts.Middleware {
		named = append(named, e.newMiddleware(name))
	}
	e.middleware = append(named, e.middleware...)

	return e, nil
}

func (e *Engine) Options() Options { return e.opts }

// Detect runs every detector over the file at path. Failures are logged and
// yield no records.
func (e *Engine) Detect(ctx context.Context, path string) []Record {
	log := e.log.With("path", path)

	f, err := mmap.Open(path)
	if err != nil {
		log.Error("failed to open input", "err", err)
		return nil
	}
	defer f.Close()

	return e.detect(ctx, &Input{R: f, Size: f.Size(), path: path, log: log})
}

// DetectOpened is Detect for a file the caller already opened. r must hold
// the content of the file at path.
func (e *Engine) DetectOpened(ctx context.Context, path string, r io.ReaderAt, size int64) []Record {
	return e.detect(ctx, &Input{R: r, Size: size, path: path, log: e.log.With("path", path)})
}

// DetectReader is Detect for content that is not a file on disk.
func (e *Engine) DetectReader(ctx context.Context, r io.ReaderAt, size int64) []Record {
	in := &Input{R: r, Size: size, log: e.log}
	defer in.close()

	return e.detect(ctx, in)
}

func (e *Engine) detect(ctx context.Context, in *Input) []Record {
	if in.Size <= 0 {
		return nil
	}

	m, err := e.classifier.Classify(in.R, in.Size)
	if err != nil {
		in.log.Error("failed to classify input", "err", err)
		return nil
	}
	in.MIME = m

	ending := e.ending(ctx, in, 0)
	magic := e.magic(ctx, in)
	middleware := e.runMiddleware(ctx, in)

	records := Merge(ending, magic, middleware)
	return e.dropPadding(in, records)
}

// ending parses the input with the detector of its type, then repeats on
// whatever follows the detected end.
func (e *Engine) ending(ctx context.Context, in *Input, depth int) []Record {
	if ctx.Err() != nil {
		return nil
	}

	rt, err := e.route(in.MIME)
	if errors.Is(err, errTerminal) {
		return nil
	}
	if err != nil {
		in.log.Warn("unexpected mime", "mime", in.MIME.Type, "depth", depth)
		return nil
	}

	off, exact, err := rt.detect(ctx, in)
	if err != nil {
		in.log.Warn("detection failed", "format", rt.Name, "err", err)
		return nil
	}

	size := uint64(in.Size)
	if off >= size {
		return nil
	}
	if off == 0 {
		in.log.Warn("detection failed", "format", rt.Name)
		return nil
	}

	trailers := append(slices.Clone(marker.DefaultTrailers), rt.trailers...)
	off, err = marker.SeekTrailers(in.R, in.Size, off, trailers)
	if err != nil {
		in.log.Warn("failed to skip trailers", "format", rt.Name, "err", err)
		return nil
	}
	if off >= size {
		return nil
	}

	rem := in.Section(int64(off))
	defer rem.close()

	rem.MIME, err = e.classifier.Classify(rem.R, rem.Size)
	if err != nil {
		in.log.Warn("failed to classify remainder", "offset", off, "err", err)
		return nil
	}
	if !e.plausible(rt, rem.MIME, off, size) {
		in.log.Debug("implausible remainder", "format", rt.Name, "offset", off, "mime", rem.MIME.Type)
		return nil
	}

	records := []Record{{
		Offset:  off,
		Exact:   exact,
		MIME:    rem.MIME,
		Sources: []Source{SourceEnding},
	}}

	if depth+1 >= e.opts.MaxDepth {
		in.log.Debug("maximum depth reached", "offset", off)
		return records
	}
	for _, r := range e.ending(ctx, rem, depth+1) {
		r.Offset += off
		records = append(records, r)
	}
	return records
}

func (e *Engine) plausible(rt *route, rem mime.MIME, off, size uint64) bool {
	if rem.IsUnknown() {
		if float64(off) > e.opts.UnknownTailRatio*float64(size) {
			return false
		}
		if rt.Name == "jpeg" && float64(off) > e.opts.JPEGMinRatio*float64(size) {
			return false
		}
		return true
	}
	return size-off >= e.opts.MinKnownRemainder
}

// magic searches the input for embedded archives. An archive at offset 0 is
// the input itself and is reported only when it is encrypted, since its
// content cannot be verified.
func (e *Engine) magic(ctx context.Context, in *Input) []Record {
	var records []Record

	for hit, err := range e.scanner.Scan(in.R, in.Size) {
		if err != nil {
			in.log.Warn("magic scan failed", "err", err)
			break
		}
		if ctx.Err() != nil {
			break
		}

		out := hit.Outcome
		if hit.Start == 0 && !out.Encrypted {
			continue
		}
		if !out.Encrypted && hit.Span() < e.opts.MinMagicSpan {
			in.log.Debug("container too small", "format", hit.Header.Name, "offset", hit.Start, "span", hit.Span())
			continue
		}

		m, err := e.classifier.Classify(io.NewSectionReader(in.R, hit.Start, in.Size-hit.Start), in.Size-hit.Start)
		if err != nil {
			in.log.Warn("failed to classify container", "offset", hit.Start, "err", err)
			continue
		}

		records = append(records, Record{
			Offset:    uint64(hit.Start),
			Exact:     true,
			MIME:      m,
			Sources:   []Source{SourceMagic},
			Span:      hit.Span(),
			Encrypted: out.Encrypted,
		})
	}
	return records
}

func (e *Engine) runMiddleware(ctx context.Context, in *Input) []Record {
	var records []Record
	for _, mw := range e.middleware {
		if ctx.Err() != nil {
			break
		}
		if !mw.Accepts(in.MIME) {
			continue
		}

		found, err := mw.Detect(ctx, in)
		if err != nil {
			in.log.Warn("middleware failed", "middleware", mw.Source(), "err", err)
			continue
		}
		for _, r := range found {
			r.Sources = []Source{mw.Source()}
			records = append(records, r)
		}
	}
	return records
}

// dropPadding discards records pointing into the zero padding at the end of
// the input. Encrypted containers are kept regardless.
func (e *Engine) dropPadding(in *Input, records []Record) []Record {
	end, err := marker.NullEnd(in.R, in.Size)
	if err != nil {
		in.log.Warn("failed to locate padding", "err", err)
		return records
	}

	return slices.DeleteFunc(records, func(r Record) bool {
		switch {
		case r.Encrypted:
			return false
		case r.Exact:
			return r.Offset >= end
		}
		return r.Offset+e.opts.NullTolerance >= end
	})
}
