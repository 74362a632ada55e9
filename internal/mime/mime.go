package mime

import (
	"io"
	"slices"
	"strings"
)

// MIME is a media type together with a human readable description of the
// content, in the style of file(1).
type MIME struct {
	Type        string
	Description string
}

var (
	OctetStream = MIME{Type: "application/octet-stream", Description: "data"}
	PlainText   = MIME{Type: "text/plain", Description: "ASCII text"}
	Empty       = MIME{Type: "application/x-empty", Description: "empty"}
)

// Types after which nothing is searched for: the remainder is either an
// archive, which the magic family already covers, or unstructured.
var (
	UnknownTypes = []string{"application/octet-stream", "text/plain"}
	ArchiveTypes = []string{
		"application/x-rar",
		"application/zip",
		"application/x-7z-compressed",
		"application/x-freearc",
		"application/vnd.ms-cab-compressed",
	}
)

// Major returns the part of the type before the slash.
func (m MIME) Major() string {
	major, _, _ := strings.Cut(m.Type, "/")
	return major
}

// Minor returns the part of the type after the slash, without parameters.
func (m MIME) Minor() string {
	_, minor, _ := strings.Cut(m.Type, "/")
	minor, _, _ = strings.Cut(minor, ";")
	return strings.TrimSpace(minor)
}

func (m MIME) IsUnknown() bool {
	return slices.Contains(UnknownTypes, m.Type)
}

func (m MIME) IsArchive() bool {
	return slices.Contains(ArchiveTypes, m.Type)
}

func (m MIME) String() string {
	if m.Description == "" {
		return m.Type
	}
	return m.Type + " (" + m.Description + ")"
}

// Classifier guesses the type of the first size bytes of r.
type Classifier interface {
	Classify(r io.ReaderAt, size int64) (MIME, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(r io.ReaderAt, size int64) (MIME, error)

func (f ClassifierFunc) Classify(r io.ReaderAt, size int64) (MIME, error) {
	return f(r, size)
}
