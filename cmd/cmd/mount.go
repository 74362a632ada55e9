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
	"path/filepath"

	"github.com/ostafen/trailscan/internal/fuse"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <report_file>",
		Short: "Mount the segments listed in a scan report",
		Long: `The 'mount' command exposes the files of a scan report as a read-only filesystem.
Each source file becomes a directory holding its legitimate content, named after the file, and one file per appended segment.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "directory where the filesystem will be mounted (default derived from the report name)")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	objects, err := readReport(args[0])
	if err != nil {
		return err
	}

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(args[0])
	}

	log := newConsole()
	log.Infof("Mounting %d segments at %s", len(objects), absPath(mountpoint))

	return fuse.Mount(mountpoint, fuse.Layout(objects), log.Logger)
}

// getMountpoint generates a mountpoint name from a report file name by
// stripping the extension. If the extension is empty, "_mnt" is added.
func getMountpoint(reportFileName string) string {
	mountpoint := trimExt(reportFileName)
	if filepath.Ext(reportFileName) == "" {
		mountpoint += "_mnt"
	}
	return mountpoint
}
