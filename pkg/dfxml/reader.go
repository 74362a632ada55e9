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
package dfxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Report is the content of a DFXML document as read back.
type Report struct {
	Creator Creator
	Source  Source
	Objects []FileObject
}

// ReadReport decodes the creator, source and file objects of a document.
// Objects without a byte run are rejected.
func ReadReport(r io.Reader) (*Report, error) {
	dec := xml.NewDecoder(r)

	var rep Report
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "creator":
			err = dec.DecodeElement(&rep.Creator, &start)
		case "source":
			err = dec.DecodeElement(&rep.Source, &start)
		case "fileobject":
			var fo FileObject
			if err = dec.DecodeElement(&fo, &start); err == nil {
				if len(fo.ByteRuns.Runs) == 0 {
					return nil, fmt.Errorf("file object %q has no byte run", fo.Filename)
				}
				rep.Objects = append(rep.Objects, fo)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return &rep, nil
}

// ReadFileObjects returns the file objects of a document.
func ReadFileObjects(r io.Reader) ([]FileObject, error) {
	rep, err := ReadReport(r)
	if err != nil {
		return nil, err
	}
	return rep.Objects, nil
}
