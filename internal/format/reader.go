package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ostafen/trailscan/pkg/reader"
)

const DefaultBufferSize = 64 * 1024

// Reader is the stream every parser consumes. It wraps a buffered view of a
// source of known size and records the highest position ever reached by a
// read or a seek (the mark). Backward seeks are allowed and never lower the
// mark.
type Reader struct {
	src  io.ReaderAt
	br   *reader.BufferedReadSeeker
	size int64
	mark int64
}

func NewReader(src io.ReaderAt, size int64) *Reader {
	return NewReaderSize(src, size, DefaultBufferSize)
}

func NewReaderSize(src io.ReaderAt, size int64, bufSize int) *Reader {
	return &Reader{
		src:  src,
		br:   reader.NewBufferedReadSeeker(io.NewSectionReader(src, 0, size), bufSize),
		size: size,
	}
}

func (r *Reader) update() {
	r.mark = max(r.mark, r.br.Offset())
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.br.Read(p)
	r.update()
	return n, err
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.br.ReadByte()
	r.update()
	return b, err
}

// ReadFull reads exactly len(p) bytes. A short read is reported as
// io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(p []byte) error {
	_, err := io.ReadFull(r, p)
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Seek moves the read position. A target past the end clamps to Size, moves
// the mark there and fails with io.ErrUnexpectedEOF.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.br.Offset() + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return -1, fmt.Errorf("Reader.Seek: invalid whence: %d", whence)
	}

	if abs < 0 {
		return -1, fmt.Errorf("Reader.Seek: negative position %d", abs)
	}

	var err error
	if abs > r.size {
		abs = r.size
		err = io.ErrUnexpectedEOF
	}

	if _, serr := r.br.Seek(abs, io.SeekStart); serr != nil {
		return -1, serr
	}
	r.update()
	return abs, err
}

// Skip advances the position by exactly n bytes.
func (r *Reader) Skip(n int64) error {
	_, err := r.Seek(n, io.SeekCurrent)
	return err
}

// SeekTo moves to the absolute offset off.
func (r *Reader) SeekTo(off int64) error {
	_, err := r.Seek(off, io.SeekStart)
	return err
}

// ReadAt reads from the underlying source without moving the read position.
// The mark still advances to the end of the bytes returned.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("Reader.ReadAt: negative offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}

	var err error
	if rem := r.size - off; int64(len(p)) > rem {
		p = p[:rem]
		err = io.EOF
	}

	n, rerr := r.src.ReadAt(p, off)
	r.mark = max(r.mark, off+int64(n))
	if rerr != nil {
		return n, rerr
	}
	return n, err
}

// Peek returns the next n bytes without advancing the position or the mark.
func (r *Reader) Peek(n int) ([]byte, error) {
	return r.br.Peek(n)
}

// Offset returns the current read position.
func (r *Reader) Offset() int64 {
	return r.br.Offset()
}

// Mark returns the highest position reached so far.
func (r *Reader) Mark() int64 {
	return r.mark
}

func (r *Reader) Size() int64 {
	return r.size
}

// Remaining returns the number of bytes between the position and the end.
func (r *Reader) Remaining() int64 {
	return r.size - r.br.Offset()
}

func (r *Reader) BufferSize() int {
	return r.br.BufferSize()
}

func readU8(r *Reader) (uint8, error) {
	b, err := r.ReadByte()
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return b, err
}

func readU16(r *Reader, order binary.ByteOrder) (uint16, error) {
	var buf [2]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint16(buf[:]), nil
}

func readU32(r *Reader, order binary.ByteOrder) (uint32, error) {
	var buf [4]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint32(buf[:]), nil
}

func readU64(r *Reader, order binary.ByteOrder) (uint64, error) {
	var buf [8]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint64(buf[:]), nil
}
