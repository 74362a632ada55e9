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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ostafen/trailscan/internal/scan"
	"github.com/spf13/cobra"
)

func DefineWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir> [dir...]",
		Short: "Scan files as they are created or modified",
		Long: `The 'watch' command monitors local directories and scans every file that is created or written below them,
once it has not changed for the debounce interval. It runs until interrupted.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunWatch,
	}

	addDetectFlags(cmd)
	addScanFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "append detections to this report file")
	return cmd
}

func RunWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := openStore(s)
	if err != nil {
		return err
	}

	var report *scan.Report
	if reportFileName, _ := cmd.Flags().GetString("output"); reportFileName != "" {
		outFile, err := os.Create(reportFileName)
		if err != nil {
			return err
		}
		defer outFile.Close()

		report, err = scan.NewReport(outFile, strings.Join(absPaths(args), ","), 0)
		if err != nil {
			return err
		}
		defer report.Close()
	}

	sc, err := scan.New(s.engine, scanOptions(s, st, report))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.console.Infof("Watching %d directories, press Ctrl+C to stop", len(args))

	return sc.Watch(ctx, args, func(r scan.Result) {
		if r.Err != nil {
			s.console.Errorf("%s: %s", r.Path, r.Err)
			return
		}
		if len(r.Records) > 0 {
			printRecords(r.Path, r.Records)
		}
	})
}
