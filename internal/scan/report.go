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
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/ostafen/trailscan/internal/env"
	"github.com/ostafen/trailscan/pkg/dfxml"
)

// Report writes detections as DFXML file objects, one per appended segment.
type Report struct {
	mu sync.Mutex
	w  *dfxml.DFXMLWriter
}

// NewReport writes the document header to w. source names what is scanned.
func NewReport(w io.Writer, source string, size uint64) (*Report, error) {
	rw := dfxml.NewDFXMLWriter(w)

	err := rw.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: source,
			ImageSize:     size,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Report{w: rw}, nil
}

func (r *Report) Add(res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, obj := range FileObjects(res) {
		if err := r.w.WriteFileObject(obj); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.w.Close()
}

// FileObjects converts the records of res. Each object covers the bytes from
// the record offset to the end of the file.
func FileObjects(res Result) []dfxml.FileObject {
	objs := make([]dfxml.FileObject, 0, len(res.Records))
	for _, rec := range res.Records {
		length := uint64(res.Size) - rec.Offset

		objs = append(objs, dfxml.FileObject{
			Filename:    fmt.Sprintf("%s@%d", filepath.Base(res.Path), rec.Offset),
			FileSize:    length,
			SourceFile:  res.Path,
			MIME:        rec.MIME.Type,
			Description: rec.MIME.Description,
			Exact:       rec.Exact,
			Encrypted:   rec.Encrypted,
			Via:         rec.Via(),
			ByteRuns: dfxml.ByteRuns{
				Runs: []dfxml.ByteRun{{
					Offset:    0,
					ImgOffset: rec.Offset,
					Length:    length,
				}},
			},
		})
	}
	return objs
}
