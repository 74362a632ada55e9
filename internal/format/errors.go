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
package format

import (
	"errors"
	"fmt"
)

var (
	// ErrViolation reports input that does not follow the format grammar.
	ErrViolation = errors.New("structural violation")

	// ErrEncrypted reports a container whose extent cannot be verified
	// because its headers are encrypted.
	ErrEncrypted = errors.New("encrypted container")

	// ErrUnsupported is returned for types without an end-boundary detector.
	ErrUnsupported = errors.New("unsupported format")
)

// ViolationError carries the format, the last good offset and the reason of a
// structural violation.
type ViolationError struct {
	Format string
	Offset uint64
	Reason string
	Err    error
}

func (e *ViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: violation after offset %d: %s: %v", e.Format, e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: violation after offset %d: %s", e.Format, e.Offset, e.Reason)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrViolation
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}

func violation(format string, off uint64, reason string, args ...any) error {
	return &ViolationError{
		Format: format,
		Offset: off,
		Reason: fmt.Sprintf(reason, args...),
	}
}

// Outcome is the result of running one parser.
type Outcome struct {
	Offset    uint64
	Exact     bool
	Encrypted bool
	Err       error
}

// Parse runs the parser of hdr and converts its result into an Outcome.
// Every non-encryption error is reported as a *ViolationError carrying the
// last good offset.
func Parse(hdr *FileHeader, r *Reader) Outcome {
	off, err := hdr.Parse(r)

	out := Outcome{
		Offset: off,
		Exact:  !hdr.Estimated,
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrEncrypted):
		out.Encrypted = true
	default:
		var verr *ViolationError
		if !errors.As(err, &verr) {
			err = &ViolationError{
				Format: hdr.Name,
				Offset: off,
				Reason: "read failed",
				Err:    err,
			}
		}
		out.Err = err
	}
	return out
}

// withLastGood rewrites the offset of a violation raised below the level
// that tracks the last good offset.
func withLastGood(err error, off uint64) error {
	var verr *ViolationError
	if errors.As(err, &verr) {
		verr.Offset = off
	}
	return err
}
