package format

import (
	"iter"
	"slices"

	"github.com/ostafen/trailscan/pkg/table"
)

// FileRegistry indexes headers by MIME minor type and keeps the signatures
// of the magic family in a prefix table.
type FileRegistry struct {
	headers []*FileHeader
	byMIME  map[string]*FileHeader
	magic   *table.PrefixTable[headers]
	maxSig  int
}

type headers []*FileHeader

func NewFileRegistry() *FileRegistry {
	return &FileRegistry{
		byMIME: make(map[string]*FileHeader),
		magic:  table.New[headers](),
	}
}

func (r *FileRegistry) Add(hdr FileHeader) {
	h := &hdr
	r.headers = append(r.headers, h)

	for _, minor := range hdr.MIME {
		if _, ok := r.byMIME[minor]; !ok {
			r.byMIME[minor] = h
		}
	}

	if !hdr.Magic {
		return
	}

	for _, sig := range hdr.Signatures {
		hdrs, _ := r.magic.Get(sig)
		r.magic.Insert(sig, append(hdrs, h))
		r.maxSig = max(r.maxSig, len(sig))
	}
}

// Lookup returns the ending-family header registered for a MIME minor type.
func (r *FileRegistry) Lookup(minor string) (*FileHeader, bool) {
	hdr, ok := r.byMIME[minor]
	if !ok || hdr.Magic {
		return nil, false
	}
	return hdr, true
}

// IsMagicType reports whether minor belongs to a magic-family format.
func (r *FileRegistry) IsMagicType(minor string) bool {
	hdr, ok := r.byMIME[minor]
	return ok && hdr.Magic
}

// Headers returns all registered headers in registration order.
func (r *FileRegistry) Headers() []*FileHeader {
	return slices.Clone(r.headers)
}

// SearchMagic yields the magic-family headers whose signature is a prefix of
// data, shortest signature first.
func (r *FileRegistry) SearchMagic(data []byte) iter.Seq[*FileHeader] {
	return func(yield func(*FileHeader) bool) {
		for hdrs := range r.magic.Match(data) {
			for _, hdr := range hdrs {
				if !yield(hdr) {
					return
				}
			}
		}
	}
}

// MaxMagicLen returns the length of the longest magic signature.
func (r *FileRegistry) MaxMagicLen() int {
	return r.maxSig
}

// Signatures returns the number of registered magic signatures.
func (r *FileRegistry) Signatures() int {
	return r.magic.Size()
}

func BuildRegistry(hdrs ...FileHeader) *FileRegistry {
	r := NewFileRegistry()
	for _, hdr := range hdrs {
		r.Add(hdr)
	}
	return r
}

var defaultRegistry = BuildRegistry(DefaultHeaders...)

// DefaultRegistry returns the registry of every built-in format. It must not
// be modified.
func DefaultRegistry() *FileRegistry {
	return defaultRegistry
}
