//go:build !unix

package sysinfo

import (
	"os/exec"
	"runtime"
	"strings"
)

// stat falls back to "cmd /c ver" on Windows; other systems report unknown.
func stat() (*SysInfo, error) {
	if runtime.GOOS != "windows" {
		info := SysUnknown
		return &info, nil
	}

	output, err := exec.Command("cmd", "/c", "ver").Output()
	if err != nil {
		return &SysInfo{Name: "Windows", Release: "Windows", Version: "unknown"}, nil
	}
	return &SysInfo{
		Name:    "Windows",
		Release: "Windows",
		Version: strings.TrimSpace(string(output)),
	}, nil
}
