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
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrProbeFailed is returned when the external tool could not tell where
	// the input ends.
	ErrProbeFailed = errors.New("probe failed")

	ErrUnsupported = errors.New("probe not supported on this platform")
)

const (
	DefaultFFmpeg  = "ffmpeg"
	DefaultTimeout = 60 * time.Second

	// ffmpeg is run with -loglevel warning; more than this is not a warning
	// list but a runaway process.
	maxStderr = 1 << 20
)

// Prober estimates the end of the media stream in the file at path. The
// offset is never exact: remuxing may drop or rewrite container overhead.
type Prober interface {
	Probe(ctx context.Context, path string) (uint64, error)
}

// Remux copies the streams of the input into a new container with ffmpeg and
// reports the size of the result.
type Remux struct {
	FFmpeg  string
	Timeout time.Duration
}

func NewRemux(ffmpeg string, timeout time.Duration) *Remux {
	if ffmpeg == "" {
		ffmpeg = DefaultFFmpeg
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Remux{FFmpeg: ffmpeg, Timeout: timeout}
}

func (p *Remux) Probe(ctx context.Context, path string) (uint64, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = "mkv"
	}

	out, err := os.CreateTemp("", "trailscan-*."+ext)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	out.Close()
	defer os.Remove(out.Name())

	if err := p.RemuxTo(ctx, path, out.Name(), ""); err != nil {
		return 0, err
	}

	fi, err := os.Stat(out.Name())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	if fi.Size() == 0 {
		return 0, fmt.Errorf("%w: empty remux output", ErrProbeFailed)
	}
	return uint64(fi.Size()), nil
}

// RemuxTo writes a stream copy of in to out. An empty format lets ffmpeg pick
// the container from the output name.
func (p *Remux) RemuxTo(ctx context.Context, in, out, format string) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.FFmpeg, remuxArgs(in, out, format)...)

	var stderr bytes.Buffer
	cmd.Stderr = &limitedBuffer{buf: &stderr, limit: maxStderr}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrProbeFailed, p.FFmpeg, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func remuxArgs(in, out, format string) []string {
	args := []string{"-loglevel", "warning", "-y", "-i", in, "-c", "copy"}
	if format != "" {
		args = append(args, "-f", format)
	}
	return append(args, out)
}

type limitedBuffer struct {
	buf   *bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		b.buf.Write(p[:min(len(p), room)])
	}
	return len(p), nil
}

// Trace runs the same stream copy into /dev/null under ptrace and records
// the position in the input at every write to the output. It is only
// available on linux/amd64.
type Trace struct {
	FFmpeg  string
	Timeout time.Duration
}

func NewTrace(ffmpeg string, timeout time.Duration) *Trace {
	if ffmpeg == "" {
		ffmpeg = DefaultFFmpeg
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Trace{FFmpeg: ffmpeg, Timeout: timeout}
}

func (p *Trace) Probe(ctx context.Context, path string) (uint64, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	pos, err := trace(ctx, p.FFmpeg, abs)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	if pos == 0 {
		return 0, fmt.Errorf("%w: no output written", ErrProbeFailed)
	}
	return pos, nil
}

// New returns the prober for mode: "trace", "remux" or "off". Trace falls
// back to remux where tracing is unsupported.
func New(mode, ffmpeg string, timeout time.Duration) (Prober, error) {
	switch mode {
	case "trace":
		if !traceSupported {
			return NewRemux(ffmpeg, timeout), nil
		}
		return NewTrace(ffmpeg, timeout), nil
	case "remux":
		return NewRemux(ffmpeg, timeout), nil
	case "off", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown probe mode %q", mode)
}
