package format

import (
	"bytes"
	"errors"
	"io"
	"iter"
)

// SeekAt searches for sig within the next n bytes of r and, when found,
// leaves r positioned at its first byte. Consecutive windows overlap by
// len(sig)-1 bytes so a signature crossing a buffer boundary is still found.
func SeekAt(r *Reader, sig []byte, n int64) (bool, error) {
	if len(sig) == 0 || len(sig) > r.BufferSize() {
		return false, errors.New("SeekAt: invalid signature length")
	}

	overlap := int64(len(sig) - 1)
	start := r.Offset()

	for r.Offset()-start < n {
		buf, err := r.Peek(r.BufferSize())
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}

		limit := min(int64(len(buf)), n-(r.Offset()-start)+overlap)
		if idx := bytes.Index(buf[:limit], sig); idx >= 0 {
			return true, r.Skip(int64(idx))
		}

		if errors.Is(err, io.EOF) || int64(len(buf)) <= overlap {
			return false, nil
		}
		if err := r.Skip(int64(len(buf)) - overlap); err != nil {
			return false, err
		}
	}
	return false, nil
}

// IndexAll yields the offset of every occurrence of sig in the first size
// bytes of src, reading windowSize bytes at a time. Occurrences may overlap.
func IndexAll(src io.ReaderAt, size int64, sig []byte, windowSize int) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		if len(sig) == 0 {
			return
		}

		overlap := len(sig) - 1
		buf := make([]byte, max(windowSize, len(sig))+overlap)

		for base := int64(0); base < size; {
			n, err := src.ReadAt(buf[:min(int64(len(buf)), size-base)], base)
			if err != nil && !errors.Is(err, io.EOF) {
				yield(0, err)
				return
			}

			window := buf[:n]
			for i := 0; ; {
				idx := bytes.Index(window[i:], sig)
				if idx < 0 {
					break
				}
				if !yield(base+int64(i+idx), nil) {
					return
				}
				i += idx + 1
			}

			if n <= overlap || base+int64(n) >= size {
				return
			}
			// no match starts in the last overlap bytes of a window
			base += int64(n - overlap)
		}
	}
}
