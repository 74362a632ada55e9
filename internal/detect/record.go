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
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ostafen/trailscan/internal/mime"
	"github.com/ostafen/trailscan/pkg/util/format"
)

// Source names the detector family that produced or confirmed an offset.
type Source string

const (
	SourceEnding        Source = "Ending"
	SourceMagic         Source = "Magic"
	SourceAntiFFC       Source = "Anti_FFC"
	SourceRemuxMatroska Source = "Remux_Matroska"
	SourcePdfEmbedded   Source = "Pdf_EmbeddedFile"
)

// Record is one place where the legitimate content of a file ends. For the
// magic family Offset is where the embedded container begins and Span is its
// verified length.
type Record struct {
	Offset    uint64
	Exact     bool
	MIME      mime.MIME
	Sources   []Source
	Span      uint64
	Encrypted bool
}

// Via joins the sources in the order they contributed.
func (r Record) Via() string {
	via := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		via[i] = string(s)
	}
	return strings.Join(via, ",")
}

// Summary renders the record as a single line, e.g.
// "After 1.50KB (1536 bytes, via Ending): Identified type: application/zip (Zip archive data)".
func (r Record) Summary() string {
	pos := fmt.Sprintf("%s (%d bytes, via %s)", format.FormatBytes(int64(r.Offset)), r.Offset, r.Via())
	if !r.Exact {
		pos = "about " + pos
	}

	var typ string
	if r.MIME.IsUnknown() {
		typ = fmt.Sprintf("Unidentified type (%s, %s)", r.MIME.Type, r.MIME.Description)
	} else {
		typ = fmt.Sprintf("Identified type: %s (%s)", r.MIME.Type, r.MIME.Description)
	}
	if r.Encrypted {
		typ += ", encrypted"
	}
	return fmt.Sprintf("After %s: %s", pos, typ)
}

// Summarize joins the summaries of all records.
func Summarize(records []Record) string {
	msgs := make([]string, len(records))
	for i, r := range records {
		msgs[i] = r.Summary()
	}
	return strings.Join(msgs, "; ")
}

// Merge folds records sharing an offset into one and sorts the result. Exact
// and Encrypted are OR-ed, sources are appended without duplicates, the MIME
// of the later contributor wins and the largest span is kept.
func Merge(groups ...[]Record) []Record {
	byOffset := make(map[uint64]int)

	var merged []Record
	for _, group := range groups {
		for _, r := range group {
			i, ok := byOffset[r.Offset]
			if !ok {
				byOffset[r.Offset] = len(merged)
				r.Sources = slices.Clone(r.Sources)
				merged = append(merged, r)
				continue
			}

			m := &merged[i]
			m.Exact = m.Exact || r.Exact
			m.Encrypted = m.Encrypted || r.Encrypted
			m.Span = max(m.Span, r.Span)
			if r.MIME.Type != "" {
				m.MIME = r.MIME
			}
			for _, s := range r.Sources {
				if !slices.Contains(m.Sources, s) {
					m.Sources = append(m.Sources, s)
				}
			}
		}
	}

	slices.SortFunc(merged, func(a, b Record) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return merged
}
