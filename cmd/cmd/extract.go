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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ostafen/trailscan/internal/mmap"
	"github.com/ostafen/trailscan/pkg/dfxml"
	osutils "github.com/ostafen/trailscan/pkg/util/os"
	"github.com/spf13/cobra"
)

func DefineExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <report_file>",
		Short: "Extract the appended segments listed in a scan report",
		Long: `The 'extract' command copies every segment listed in a scan report out of its source file.
Each segment is written to the output directory under the name it has in the report, <file>@<offset>.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunExtract,
	}
	cmd.Flags().StringP("output-dir", "d", "", "directory where extracted segments are placed (default <report>-dump)")
	return cmd
}

func RunExtract(cmd *cobra.Command, args []string) error {
	objects, err := readReport(args[0])
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		wdir, err := os.Getwd()
		if err != nil {
			return err
		}
		outDir = filepath.Join(wdir, trimExt(args[0])+"-dump")
	}

	if _, err := osutils.EnsureDir(outDir, true); err != nil {
		return err
	}

	console := newConsole()
	for _, obj := range objects {
		console.Infof("extracting segment %s", filepath.Join(outDir, obj.Filename))

		if err := extractSegment(outDir, obj); err != nil {
			console.Errorf("unable to extract segment %s: %s", obj.Filename, err)
		}
	}
	return nil
}

func readReport(path string) ([]dfxml.FileObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return dfxml.ReadFileObjects(bufio.NewReader(f))
}

// extractSegment copies the byte run of obj out of its source file.
func extractSegment(dir string, obj dfxml.FileObject) error {
	if len(obj.ByteRuns.Runs) == 0 {
		return fmt.Errorf("no byte run for %s", obj.Filename)
	}
	run := obj.ByteRuns.Runs[0]

	src, err := mmap.Open(obj.SourceFile)
	if err != nil {
		return err
	}
	defer src.Close()

	if run.ImgOffset+run.Length > uint64(src.Size()) {
		return fmt.Errorf("segment exceeds the size of %s, was it modified?", obj.SourceFile)
	}

	f, err := os.Create(filepath.Join(dir, filepath.Base(obj.Filename)))
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", obj.Filename, err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1024*1024)

	if _, err := io.Copy(w, io.NewSectionReader(src, int64(run.ImgOffset), int64(run.Length))); err != nil {
		return err
	}
	return w.Flush()
}

func trimExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
