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
	"path/filepath"
	"strings"
	"time"

	"github.com/ostafen/trailscan/internal/scan"
	"github.com/ostafen/trailscan/internal/store"
	"github.com/ostafen/trailscan/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <path> [path...]",
		Short: "Scan files and directories for appended data",
		Long: `The 'scan' command runs detection over every file below the given paths, in parallel.
Each detection is written to a DFXML report that the 'extract' and 'mount' commands accept.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunScan,
	}

	addDetectFlags(cmd)
	addScanFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "path of the report file (default report_<session>.xml)")
	cmd.Flags().Bool("no-progress", false, "do not show the progress bar")
	return cmd
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", 0, "number of files scanned in parallel (default one per CPU)")
	cmd.Flags().StringSlice("include", nil, "only scan files matching these glob patterns")
	cmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	cmd.Flags().Bool("follow-symlinks", false, "follow symbolic links while walking directories")
	cmd.Flags().String("store", "", "path of the result cache database")
}

func RunScan(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := openStore(s)
	if err != nil {
		return err
	}

	reportFileName, _ := cmd.Flags().GetString("output")
	if reportFileName == "" {
		reportFileName = fmt.Sprintf("report_%s.xml", scan.GenSessionID())
	}

	outFile, err := os.Create(reportFileName)
	if err != nil {
		return err
	}
	defer outFile.Close()

	report, err := scan.NewReport(outFile, strings.Join(absPaths(args), ","), 0)
	if err != nil {
		return err
	}

	opts := scanOptions(s, st, report)
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		opts.Progress = os.Stdout
	}

	sc, err := scan.New(s.engine, opts)
	if err != nil {
		return err
	}

	s.console.Infof("Starting scanning operation...")
	s.console.Infof("Sources: \t%s", strings.Join(absPaths(args), ", "))
	s.console.Infof("Workers: \t%d", s.cfg.Workers())
	s.console.Infof("Middleware: \t%s", strings.Join(s.cfg.Detect.Middleware, ","))
	if st != nil {
		s.console.Infof("Result cache: \t%s", absPath(s.cfg.Store.Path))
	}
	if s.cfg.Log.File != "" {
		s.console.Infof("Output Log: \t%s", absPath(s.cfg.Log.File))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var flagged []scan.Result
	sum, scanErr := sc.Scan(ctx, args, func(r scan.Result) {
		if len(r.Records) > 0 {
			flagged = append(flagged, r)
		}
	})

	if err := report.Close(); err != nil {
		return err
	}

	for _, r := range flagged {
		printRecords(r.Path, r.Records)
	}

	s.console.Infof("Scan completed!")
	s.console.Infof("Files scanned: \t%d (%d cached, %d failed)", sum.Files, sum.Cached, sum.Failed)
	s.console.Infof("Files flagged: \t%d", sum.Flagged)
	s.console.Infof("Detections: \t%d", sum.Detections)
	s.console.Infof("Total data: \t%s", format.FormatBytes(sum.Bytes))
	s.console.Infof("Duration: \t%s", scan.FormatDurationHMS(sum.Duration))
	s.console.Infof("Report saved to: \t%s", absPath(reportFileName))
	return scanErr
}

func scanOptions(s *session, st *store.Store, report *scan.Report) scan.Options {
	return scan.Options{
		Workers:        s.cfg.Workers(),
		Include:        s.cfg.Scan.Include,
		Exclude:        s.cfg.Scan.Exclude,
		FollowSymlinks: s.cfg.Scan.FollowSymlinks,
		Debounce:       time.Duration(s.cfg.Scan.Debounce),
		Store:          st,
		Report:         report,
		Log:            s.log,
	}
}

// openStore opens the result cache, if one is configured, and registers it
// for closing with the session.
func openStore(s *session) (*store.Store, error) {
	if s.cfg.Store.Path == "" {
		return nil, nil
	}

	st, err := store.Open(s.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, st)
	return st, nil
}

func absPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = absPath(p)
	}
	return out
}
