//go:build !linux || !amd64

package probe

import "context"

const traceSupported = false

func trace(context.Context, string, string) (uint64, error) {
	return 0, ErrUnsupported
}
