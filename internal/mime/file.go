package mime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const maxFileOutput = 4096

var ErrFileCommand = errors.New("file command failed")

// FileCommand classifies input with the file(1) utility. The content is fed
// through stdin, so no path is needed.
type FileCommand struct {
	Path    string
	Timeout time.Duration
}

func NewFileCommand(path string, timeout time.Duration) *FileCommand {
	if path == "" {
		path = "file"
	}
	return &FileCommand{Path: path, Timeout: timeout}
}

func (c *FileCommand) Classify(r io.ReaderAt, size int64) (MIME, error) {
	if size <= 0 {
		return Empty, nil
	}

	typ, err := c.run(io.NewSectionReader(r, 0, size), "--brief", "--mime-type", "-")
	if err != nil {
		return MIME{}, err
	}
	desc, err := c.run(io.NewSectionReader(r, 0, size), "--brief", "-")
	if err != nil {
		return MIME{}, err
	}
	return MIME{Type: typ, Description: desc}, nil
}

func (c *FileCommand) run(stdin io.Reader, args ...string) (string, error) {
	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	// file stops reading once it has seen enough, which breaks the pipe
	if err := cmd.Run(); err != nil && out.Len() == 0 {
		return "", fmt.Errorf("%w: %s %s: %v: %s", ErrFileCommand, c.Path, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() > maxFileOutput {
		return "", fmt.Errorf("%w: output of %d bytes", ErrFileCommand, out.Len())
	}
	return strings.TrimSpace(out.String()), nil
}
