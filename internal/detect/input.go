package detect

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ostafen/trailscan/internal/mime"
)

// Input is the content handed to detectors and middleware. External tools
// need a path, so one is materialised on demand when the content is not a
// file on disk, e.g. the remainder of another file.
type Input struct {
	R    io.ReaderAt
	Size int64
	MIME mime.MIME

	path    string
	scratch string
	log     *slog.Logger
}

// Path returns a file holding exactly the input.
func (in *Input) Path() (string, error) {
	if in.path != "" {
		return in.path, nil
	}

	f, err := os.CreateTemp("", "trailscan-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.NewSectionReader(in.R, 0, in.Size)); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	in.path, in.scratch = f.Name(), f.Name()
	return in.path, nil
}

// Section returns the input from off to its end.
func (in *Input) Section(off int64) *Input {
	return &Input{
		R:    io.NewSectionReader(in.R, off, in.Size-off),
		Size: in.Size - off,
		log:  in.log.With("base", off),
	}
}

func (in *Input) close() {
	if in.scratch != "" {
		os.Remove(in.scratch)
		in.path, in.scratch = "", ""
	}
}
