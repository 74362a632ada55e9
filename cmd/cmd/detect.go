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
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/spf13/cobra"
)

func DefineDetectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file> [file...]",
		Short: "Report data appended after the end of files",
		Long: `The 'detect' command parses each file according to its type and reports the offsets at which its legitimate content ends.
Every offset is followed by the size and type of the data found past it.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunDetect,
	}

	addDetectFlags(cmd)
	return cmd
}

func RunDetect(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			s.console.Errorf("%s: %s", path, err)
			continue
		}

		records := s.engine.Detect(ctx, path)
		printRecords(path, records)
	}
	return ctx.Err()
}

func printRecords(path string, records []detect.Record) {
	if len(records) == 0 {
		fmt.Printf("%s: no appended data\n", path)
		return
	}
	for _, r := range records {
		fmt.Printf("%s: %s\n", path, r.Summary())
	}
}
