// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package table

import "iter"

// TableSize is the size of the prefix marker array; it matches the uint16 hash space.
const TableSize = 1 << 16

// PrefixTable stores values keyed by short byte strings (file signatures) and
// answers "which stored keys are prefixes of this data?" without hashing every
// candidate length into the map.
//
// A rolling 16-bit hash over the key bytes indexes a marker array. A walk over
// the input stops at the first prefix whose hash was never inserted, so most
// non-matching inputs are rejected after one or two bytes.
type PrefixTable[T any] struct {
	markers [TableSize]byte
	elems   map[string]T
	maxLen  int
}

const (
	none = iota
	// prefixMarker: some key continues past this prefix.
	prefixMarker
	// elemMarker: this prefix is itself a stored key.
	elemMarker
)

func New[T any]() *PrefixTable[T] {
	return &PrefixTable[T]{
		elems: make(map[string]T),
	}
}

func step(h uint16, b byte) uint16 {
	return (h << 2) + uint16(b)
}

// Insert stores v under key, replacing any previous value.
func (t *PrefixTable[T]) Insert(key []byte, v T) {
	var h uint16
	for _, b := range key {
		h = step(h, b)
		t.markers[h] = max(t.markers[h], prefixMarker)
	}
	t.markers[h] = elemMarker
	t.elems[string(key)] = v
	t.maxLen = max(t.maxLen, len(key))
}

func (t *PrefixTable[T]) Get(key []byte) (T, bool) {
	v, found := t.elems[string(key)]
	return v, found
}

// Match yields the values of every stored key that is a prefix of data,
// shortest key first.
func (t *PrefixTable[T]) Match(data []byte) iter.Seq[T] {
	return func(yield func(T) bool) {
		var h uint16
		for i, b := range data[:min(len(data), t.maxLen)] {
			h = step(h, b)

			switch t.markers[h] {
			case none:
				return
			case elemMarker:
				// hash collisions make the marker a hint only
				if v, ok := t.elems[string(data[:i+1])]; ok && !yield(v) {
					return
				}
			}
		}
	}
}

// Longest returns the value of the longest stored key that prefixes data.
func (t *PrefixTable[T]) Longest(data []byte) (T, bool) {
	var (
		last  T
		found bool
	)
	for v := range t.Match(data) {
		last, found = v, true
	}
	return last, found
}

// Size returns the number of stored keys.
func (t *PrefixTable[T]) Size() int {
	return len(t.elems)
}
