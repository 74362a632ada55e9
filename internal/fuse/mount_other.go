//go:build !linux

package fuse

import (
	"errors"
	"log/slog"
)

func Mount(mountpoint string, volumes []Volume, log *slog.Logger) error {
	return errors.New("FUSE mount is only supported on Linux")
}
