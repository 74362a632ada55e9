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
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/ostafen/trailscan/internal/mmap"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Names of the builtin middleware, as used in the configuration.
const (
	MiddlewareAntiFFC       = "anti_ffc"
	MiddlewareRemuxMatroska = "remux_matroska"
	MiddlewarePdfEmbedded   = "pdf_embedded"
)

func isMiddleware(name string) bool {
	switch name {
	case MiddlewareAntiFFC, MiddlewareRemuxMatroska, MiddlewarePdfEmbedded:
		return true
	}
	return false
}

// Middleware is a whole-file detector that runs next to the structural ones
// on every input of the types it accepts. The records it returns are tagged
// with its source by the engine.
type Middleware interface {
	Source() Source
	Accepts(m mime.MIME) bool
	Detect(ctx context.Context, in *Input) ([]Record, error)
}

// Remuxer copies the streams of a media file into a new container.
type Remuxer interface {
	RemuxTo(ctx context.Context, in, out, format string) error
}

func (e *Engine) newMiddleware(name string) Middleware {
	switch name {
	case MiddlewareRemuxMatroska:
		return &RemuxMatroska{Remuxer: e.remuxer, magic: e.magic}
	case MiddlewarePdfEmbedded:
		return &PdfEmbedded{Classifier: e.classifier}
	default:
		return &AntiFFC{WindowSize: e.opts.WindowSize}
	}
}

var (
	ffcMarker = []byte{0xff, 0xd9, 0xff, 0xd9}

	ffcMIME = mime.MIME{Type: "application/x-ffc", Description: "FFC Camouflaged File"}
)

const (
	ffcHeaderQuads  = 32
	ffcMinBodyQuads = 64
)

// AntiFFC recognises files produced by the FFC camouflage tool, which hides
// an archive behind a JPEG end marker pair followed by a base64 header line
// and a base64 body.
type AntiFFC struct {
	WindowSize int
}

func (*AntiFFC) Source() Source { return SourceAntiFFC }

func (*AntiFFC) Accepts(mime.MIME) bool { return true }

func (a *AntiFFC) Detect(_ context.Context, in *Input) ([]Record, error) {
	for pos, err := range format.IndexAll(in.R, in.Size, ffcMarker, a.WindowSize) {
		if err != nil {
			return nil, err
		}

		start := pos + int64(len(ffcMarker))
		r := format.NewReader(io.NewSectionReader(in.R, start, in.Size-start), in.Size-start)
		if isFFC(r) {
			return []Record{{Offset: 0, MIME: ffcMIME}}, nil
		}
	}
	return nil, nil
}

func isFFC(r *format.Reader) bool {
	var (
		length int64
		ended  bool
	)
	for i := 0; !ended; i++ {
		if i == ffcHeaderQuads {
			// too long for a header
			return false
		}
		switch readQuad(r) {
		case quadInvalid:
			ended = true
		case quadFinal:
			length += 4
			ended = true
		default:
			length += 4
		}
	}

	if length == 0 {
		return false
	}
	encoded := make([]byte, length)
	if _, err := r.ReadAt(encoded, 0); err != nil {
		return false
	}
	header, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil || len(header)%16 != 0 || len(header) <= 16 {
		return false
	}

	if !skipNewline(r) {
		return false
	}

	body := 0
	for readQuad(r) == quadValid {
		body++
	}
	return body > ffcMinBodyQuads
}

func skipNewline(r *format.Reader) bool {
	nl, err := r.Peek(2)
	if err == nil && nl[0] == '\r' && nl[1] == '\n' {
		return r.Skip(2) == nil
	}

	nl, err = r.Peek(1)
	if err != nil || (nl[0] != '\r' && nl[0] != '\n') {
		return false
	}
	return r.Skip(1) == nil
}

type quadKind int

const (
	quadInvalid quadKind = iota
	quadValid
	quadFinal // valid, with padding
)

// readQuad consumes the next four bytes if they are a base64 quantum.
func readQuad(r *format.Reader) quadKind {
	quad, err := r.Peek(4)
	if err != nil {
		return quadInvalid
	}

	padding := 0
	for padding < 2 && quad[3-padding] == '=' {
		padding++
	}
	for _, c := range quad[:4-padding] {
		if !isBase64(c) {
			return quadInvalid
		}
	}

	if r.Skip(4) != nil {
		return quadInvalid
	}
	if padding > 0 {
		return quadFinal
	}
	return quadValid
}

func isBase64(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '/'
}

// RemuxMatroska copies the streams of audio and video files into a Matroska
// container and searches the result for embedded archives. Containers such
// as OGG can carry arbitrary data in streams that survive the copy. The
// offsets refer to the remuxed stream and are reported as estimates.
type RemuxMatroska struct {
	Remuxer Remuxer

	magic func(ctx context.Context, in *Input) []Record
}

func (*RemuxMatroska) Source() Source { return SourceRemuxMatroska }

func (*RemuxMatroska) Accepts(m mime.MIME) bool {
	major, minor := m.Major(), m.Minor()
	if minor == "ogg" {
		return true
	}
	return (major == "audio" || major == "video") && minor != "midi" && minor != "mid"
}

func (m *RemuxMatroska) Detect(ctx context.Context, in *Input) ([]Record, error) {
	path, err := in.Path()
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "trailscan-*.mkv")
	if err != nil {
		return nil, fmt.Errorf("failed to create remux output: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := m.Remuxer.RemuxTo(ctx, path, tmp.Name(), ""); err != nil {
		return nil, err
	}

	f, err := mmap.Open(tmp.Name())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if f.Size() == 0 {
		return nil, nil
	}

	records := m.magic(ctx, &Input{R: f, Size: f.Size(), path: tmp.Name(), log: in.log})
	for i := range records {
		records[i].Exact = false
	}
	return records, nil
}

// pdfcpu keeps its configuration in the user config directory unless told
// otherwise.
var disablePdfConfig = sync.OnceFunc(api.DisableConfigDir)

// PdfEmbedded extracts the files embedded in a PDF document and reports each
// one at offset zero with its own type. A document carrying files is not what
// its type suggests, whatever the files are.
type PdfEmbedded struct {
	Classifier mime.Classifier
}

func (*PdfEmbedded) Source() Source { return SourcePdfEmbedded }

func (*PdfEmbedded) Accepts(m mime.MIME) bool {
	minor := m.Minor()
	return minor == "pdf" || minor == "x-pdf"
}

func (p *PdfEmbedded) Detect(ctx context.Context, in *Input) ([]Record, error) {
	disablePdfConfig()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	attachments, err := api.ExtractAttachmentsRaw(io.NewSectionReader(in.R, 0, in.Size), "", nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract attachments: %w", err)
	}

	var records []Record
	for _, a := range attachments {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if a.Reader == nil {
			continue
		}

		data, err := io.ReadAll(a.Reader)
		if err != nil {
			return records, fmt.Errorf("failed to read attachment %q: %w", a.FileName, err)
		}
		if len(data) == 0 {
			continue
		}

		m, err := p.Classifier.Classify(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return records, err
		}
		records = append(records, Record{Offset: 0, MIME: m})
	}
	return records, nil
}
