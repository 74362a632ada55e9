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
	"fmt"
	"image/gif"
	"image/jpeg"
	"io"

	"golang.org/x/image/bmp"
)

// DecodeVia runs a full decoder over r and returns the highest offset the
// decoder read. The result is an estimate: decoders read ahead and may stop
// short of padding they do not need.
func DecodeVia(r *Reader, decode func(io.Reader) error) (uint64, error) {
	if err := decode(r); err != nil {
		return 0, err
	}
	return uint64(r.Mark()), nil
}

func DecodeJPEG(r *Reader) (uint64, error) {
	return DecodeVia(r, func(r io.Reader) error {
		_, err := jpeg.Decode(r)
		return err
	})
}

// DecodeGIF decodes every frame, since the stream only ends after the last
// one.
func DecodeGIF(r *Reader) (uint64, error) {
	return DecodeVia(r, func(r io.Reader) error {
		g, err := gif.DecodeAll(r)
		if err != nil {
			return err
		}
		if len(g.Image) == 0 {
			return fmt.Errorf("gif: no frames")
		}
		return nil
	})
}

func DecodeBMP(r *Reader) (uint64, error) {
	return DecodeVia(r, func(r io.Reader) error {
		_, err := bmp.Decode(r)
		return err
	})
}
