package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	_  = iota
	KB = 1 << (10 * iota)
	MB
	GB
	TB
)

// FormatBytes renders a byte count in binary units, dropping the decimals for
// whole numbers ("4MB", "1.50KB", "17B").
func FormatBytes(b int64) string {
	val := float64(b)
	var unit string

	abs := b
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= TB:
		val /= float64(TB)
		unit = "TB"
	case abs >= GB:
		val /= float64(GB)
		unit = "GB"
	case abs >= MB:
		val /= float64(MB)
		unit = "MB"
	case abs >= KB:
		val /= float64(KB)
		unit = "KB"
	default:
		return fmt.Sprintf("%dB", b)
	}

	if val == float64(int64(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}

// ParseBytes is the inverse of FormatBytes. It accepts an optional unit
// suffix (B, K/KB, M/MB, G/GB, T/TB, case-insensitive) and a fractional value.
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	i := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], strings.ToUpper(strings.TrimSpace(s[i:]))
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var mul float64
	switch unit {
	case "", "B":
		mul = 1
	case "K", "KB", "KIB":
		mul = KB
	case "M", "MB", "MIB":
		mul = MB
	case "G", "GB", "GIB":
		mul = GB
	case "T", "TB", "TIB":
		mul = TB
	default:
		return 0, fmt.Errorf("invalid size unit %q", unit)
	}
	return uint64(v * mul), nil
}
