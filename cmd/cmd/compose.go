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
package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ostafen/trailscan/pkg/reader"
	utilformat "github.com/ostafen/trailscan/pkg/util/format"
	osutils "github.com/ostafen/trailscan/pkg/util/os"
	"github.com/spf13/cobra"
)

func DefineComposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <carrier> <payload> [payload...]",
		Short: "Append payloads to a carrier file",
		Long: `The 'compose' command writes a carrier file followed by one or more payloads, optionally separated by zero bytes.
This is useful for testing detection with known, reproducible data. Directories are expanded to the files they contain.`,
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE:         RunCompose,
	}

	cmd.Flags().StringP("output", "o", "", "path of the composed file (required)")
	cmd.Flags().String("padding", "0", "zero bytes inserted before each payload (e.g. 512, 4KB)")

	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func RunCompose(cmd *cobra.Command, args []string) error {
	payloads := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		paths, err := osutils.ListFiles(arg)
		if err != nil {
			return err
		}
		payloads = append(payloads, paths...)
	}

	out, _ := cmd.Flags().GetString("output")

	padFlag, _ := cmd.Flags().GetString("padding")
	padding, err := utilformat.ParseBytes(padFlag)
	if err != nil {
		return fmt.Errorf("invalid padding %q: %w", padFlag, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	console := newConsole()
	console.Infof("Composing %s with %d payloads into %s", args[0], len(payloads), out)

	n, err := compose(f, args[0], payloads, int64(padding))
	if err != nil {
		return err
	}

	console.Infof("Composition completed. %d bytes written, carrier ends at the first payload.", n)
	return nil
}

// compose writes the carrier, then each payload preceded by padding zero
// bytes, to w.
func compose(w io.Writer, carrier string, payloads []string, padding int64) (int64, error) {
	var (
		segments []reader.Segment
		files    []*os.File
	)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	zeros := make([]byte, padding)

	for i, path := range append([]string{carrier}, payloads...) {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		files = append(files, f)

		info, err := f.Stat()
		if err != nil {
			return 0, err
		}

		if i > 0 && padding > 0 {
			segments = append(segments, reader.Segment{R: bytes.NewReader(zeros), Size: padding})
		}
		segments = append(segments, reader.Segment{
			R:    reader.NewBufferedReadSeeker(f, 1024*1024),
			Size: info.Size(),
		})
	}

	bw := bufio.NewWriterSize(w, 1024*1024)

	n, err := io.Copy(bw, reader.NewMultiReadSeeker(segments...))
	if err != nil {
		return n, err
	}
	return n, bw.Flush()
}
