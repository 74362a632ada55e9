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
	"bytes"
	"encoding/binary"
)

const SQLiteSignature = "SQLite format 3\x00"

var sqliteFileHeader = FileHeader{
	Name:        "sqlite",
	Ext:         "sqlite",
	Description: "SQLite Database Format",
	MIME:        []string{"vnd.sqlite3", "x-sqlite3"},
	Signatures: [][]byte{
		[]byte(SQLiteSignature),
	},
	Parse: ScanSQLite,
}

// ScanSQLite returns page size times the in-header database size, which is
// only trusted when the version-valid-for number matches the change counter.
func ScanSQLite(r *Reader) (uint64, error) {
	// https://www.sqlite.org/fileformat2.html#the_database_header
	// 16: page size, 24: change counter, 28: size in pages, 92: version-valid-for
	var hdr [100]byte
	if err := r.ReadFull(hdr[:]); err != nil {
		return 0, err
	}

	if !bytes.Equal(hdr[:len(SQLiteSignature)], []byte(SQLiteSignature)) {
		return 0, violation("sqlite", 0, "invalid magic header %q", hdr[:16])
	}

	pageSize := int(binary.BigEndian.Uint16(hdr[16:18]))
	if pageSize == 1 {
		pageSize = 65536
	}
	if !isPowerOfTwo(uint32(pageSize)) || pageSize < 512 || pageSize > 65536 {
		return 0, violation("sqlite", 0, "invalid page size: %d", pageSize)
	}

	fileChangeCounter := binary.BigEndian.Uint32(hdr[24:28])
	pages := binary.BigEndian.Uint32(hdr[28:32])
	versionValidFor := binary.BigEndian.Uint32(hdr[92:96])

	if pages == 0 || fileChangeCounter != versionValidFor {
		return 0, violation("sqlite", 0, "stale in-header database size")
	}

	size := uint64(pages) * uint64(pageSize)
	if err := r.SeekTo(int64(size)); err != nil {
		return 0, err
	}
	return size, nil
}

func isPowerOfTwo(x uint32) bool {
	return x != 0 && (x&(x-1)) == 0
}
