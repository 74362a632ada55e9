package detect

import (
	"fmt"

	"github.com/ostafen/trailscan/internal/format"
)

// Options are the plausibility thresholds of the engine.
type Options struct {
	// MaxDepth bounds the recursion of the ending family into remainders.
	MaxDepth int

	// MinMagicSpan is the smallest verified length for which an embedded
	// container counts as found. Encrypted containers are always reported.
	MinMagicSpan uint64

	// NullTolerance is how close an estimated offset may come to the start of
	// the trailing zero padding before it is discarded.
	NullTolerance uint64

	// An unidentified remainder starting past UnknownTailRatio of the file is
	// ignored. 1.0 disables the check.
	UnknownTailRatio float64

	// Same as UnknownTailRatio, for JPEG carriers.
	JPEGMinRatio float64

	// MinKnownRemainder is the smallest identified remainder reported.
	MinKnownRemainder uint64

	WindowSize int
	Middleware []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:          8,
		MinMagicSpan:      128,
		NullTolerance:     16,
		UnknownTailRatio:  1.0,
		JPEGMinRatio:      0.5,
		MinKnownRemainder: 512,
		WindowSize:        format.DefaultWindowSize,
		Middleware:        []string{MiddlewareAntiFFC},
	}
}

func (o Options) Validate() error {
	if o.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", o.MaxDepth)
	}
	if o.UnknownTailRatio < 0 || o.UnknownTailRatio > 1 {
		return fmt.Errorf("unknown tail ratio must be in [0, 1], got %g", o.UnknownTailRatio)
	}
	if o.JPEGMinRatio < 0 || o.JPEGMinRatio > 1 {
		return fmt.Errorf("jpeg ratio must be in [0, 1], got %g", o.JPEGMinRatio)
	}
	if o.WindowSize < 1 {
		return fmt.Errorf("window size must be positive, got %d", o.WindowSize)
	}
	for _, name := range o.Middleware {
		if !isMiddleware(name) {
			return fmt.Errorf("unknown middleware %q", name)
		}
	}
	return nil
}
