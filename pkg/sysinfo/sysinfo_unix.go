//go:build unix

package sysinfo

import (
	"golang.org/x/sys/unix"
)

func stat() (*SysInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}

	return &SysInfo{
		Name:    unix.ByteSliceToString(uts.Sysname[:]),
		Release: unix.ByteSliceToString(uts.Release[:]),
		Version: unix.ByteSliceToString(uts.Version[:]),
	}, nil
}
