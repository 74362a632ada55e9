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
	"debug/pe"
)

var peFileHeader = FileHeader{
	Name:        "pe",
	Ext:         "exe",
	Description: "Portable Executable",
	MIME: []string{
		"x-dosexec",
		"x-msdownload",
		"vnd.microsoft.portable-executable",
		"x-ms-dos-executable",
	},
	Signatures: [][]byte{[]byte("MZ")},
	Parse:      ScanPE,
}

const peSecurityDirectory = 4

// ScanPE returns the end of the furthest section raw data, the headers or
// the attribute certificate table, whichever is last. The certificate table
// is the only data directory addressed by file offset.
func ScanPE(r *Reader) (uint64, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return 0, violation("pe", 0, "%v", err)
	}
	defer f.Close()

	var end uint64
	for _, s := range f.Sections {
		end = max(end, uint64(s.Offset)+uint64(s.Size))
	}

	var (
		headers uint64
		dirs    []pe.DataDirectory
	)
	switch opt := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		headers = uint64(opt.SizeOfHeaders)
		dirs = opt.DataDirectory[:min(int(opt.NumberOfRvaAndSizes), len(opt.DataDirectory))]
	case *pe.OptionalHeader64:
		headers = uint64(opt.SizeOfHeaders)
		dirs = opt.DataDirectory[:min(int(opt.NumberOfRvaAndSizes), len(opt.DataDirectory))]
	}
	end = max(end, headers)

	if len(dirs) > peSecurityDirectory {
		if sec := dirs[peSecurityDirectory]; sec.Size > 0 {
			end = max(end, uint64(sec.VirtualAddress)+uint64(sec.Size))
		}
	}

	if end > uint64(r.Size()) {
		return 0, violation("pe", 0, "image extends to %d, past the end of input", end)
	}
	return end, nil
}
