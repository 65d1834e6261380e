/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package path addresses leaf fields of a JSON document with dotted/bracketed
// paths such as "credentialSubject.address[0].street".
//
// Documents are the generic values produced by encoding/json: map[string]interface{},
// []interface{} and scalars. A nil array element is a leaf like any other null. Delete
// leaves the same nil behind, so callers that know which fields are salted use IsHole
// to tell a removed element from a null that was present at wrap time.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrInvalidPath is returned when a path string cannot be parsed.
var ErrInvalidPath = errors.New("invalid path")

// Segment is a single step of a Path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path is a parsed field path.
type Path []Segment

// Key creates an object key segment.
func Key(k string) Segment {
	return Segment{Key: k}
}

// Index creates an array index segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// Parse parses a path of the form a.b[0].c.
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	var (
		p   Path
		key strings.Builder
		// expectKey is set after a '.' and at the start, where a key must follow.
		expectKey = true
	)

	flushKey := func() error {
		if key.Len() == 0 {
			return fmt.Errorf("%w: empty key in %q", ErrInvalidPath, s)
		}

		p = append(p, Key(key.String()))
		key.Reset()

		return nil
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '.':
			if key.Len() > 0 {
				if err := flushKey(); err != nil {
					return nil, err
				}
			} else if expectKey {
				return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidPath, s)
			}

			expectKey = true
		case '[':
			switch {
			case key.Len() > 0:
				if err := flushKey(); err != nil {
					return nil, err
				}
			case len(p) == 0:
				return nil, fmt.Errorf("%w: %q must start with a key", ErrInvalidPath, s)
			case expectKey:
				return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidPath, s)
			}

			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, s)
			}

			idx, err := parseIndex(s[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("%w: bad index %q in %q", ErrInvalidPath, s[i+1:i+end], s)
			}

			p = append(p, Index(idx))
			i += end
			expectKey = false
		case ']':
			return nil, fmt.Errorf("%w: unexpected ']' in %q", ErrInvalidPath, s)
		default:
			if !expectKey {
				return nil, fmt.Errorf("%w: missing '.' before key in %q", ErrInvalidPath, s)
			}

			key.WriteByte(c)
		}
	}

	switch {
	case key.Len() > 0:
		p = append(p, Key(key.String()))
	case expectKey:
		return nil, fmt.Errorf("%w: trailing '.' in %q", ErrInvalidPath, s)
	}

	return p, nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidPath
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrInvalidPath
		}
	}

	return strconv.Atoi(s)
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return p
}

// String renders the path back into its textual form.
func (p Path) String() string {
	var sb strings.Builder

	for i, seg := range p {
		if seg.IsIndex {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteByte(']')

			continue
		}

		if i > 0 {
			sb.WriteByte('.')
		}

		sb.WriteString(seg.Key)
	}

	return sb.String()
}

// Child returns a copy of p extended by seg.
func (p Path) Child(seg Segment) Path {
	c := make(Path, len(p), len(p)+1)
	copy(c, p)

	return append(c, seg)
}

// Get returns the value at p. ok is false for missing keys and out of range indices.
func Get(doc interface{}, p Path) (interface{}, bool) {
	cur := doc

	for _, seg := range p {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}

func step(v interface{}, seg Segment) (interface{}, bool) {
	if seg.IsIndex {
		arr, ok := v.([]interface{})
		if !ok || seg.Index < 0 || seg.Index >= len(arr) {
			return nil, false
		}

		return arr[seg.Index], true
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}

	child, ok := obj[seg.Key]

	return child, ok
}

// Delete removes the value at p from doc in place and reports whether anything was removed.
// Object members are deleted; array elements are replaced by a hole so that the
// paths of their siblings stay valid. Emptied parents are left in place.
func Delete(doc interface{}, p Path) bool {
	if len(p) == 0 {
		return false
	}

	parent, ok := Get(doc, p[:len(p)-1])
	if !ok {
		return false
	}

	last := p[len(p)-1]

	if last.IsIndex {
		arr, ok := parent.([]interface{})
		if !ok || last.Index >= len(arr) || arr[last.Index] == nil {
			return false
		}

		arr[last.Index] = nil

		return true
	}

	obj, ok := parent.(map[string]interface{})
	if !ok {
		return false
	}

	if _, ok := obj[last.Key]; !ok {
		return false
	}

	delete(obj, last.Key)

	return true
}

// IsHole reports whether the leaf v at p may be an array element removed by Delete.
func IsHole(p Path, v interface{}) bool {
	return v == nil && len(p) > 0 && p[len(p)-1].IsIndex
}

// IsLeaf reports whether v is addressed as a single field: a scalar, null, or an empty container.
func IsLeaf(v interface{}) bool {
	switch t := v.(type) {
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	default:
		return true
	}
}

// Leaves enumerates the paths of all leaf fields of doc. Object keys are visited in
// lexicographic order and array elements by ascending index.
func Leaves(doc interface{}) []string {
	var out []string

	walk(doc, nil, func(p Path, _ interface{}) {
		out = append(out, p.String())
	})

	return out
}

// LeavesUnder enumerates the leaf paths below the node at p, or p itself when the
// node is a leaf. It returns nil if p does not resolve.
func LeavesUnder(doc interface{}, p Path) []string {
	node, ok := Get(doc, p)
	if !ok {
		return nil
	}

	var out []string

	walk(node, p, func(lp Path, _ interface{}) {
		out = append(out, lp.String())
	})

	return out
}

// WalkUnder calls fn for every leaf below the node at p, or for the node itself when it is a leaf.
func WalkUnder(doc interface{}, p Path, fn func(p Path, value interface{})) {
	node, ok := Get(doc, p)
	if !ok {
		return
	}

	walk(node, p, fn)
}

// Walk calls fn for every leaf of doc in the same order as Leaves.
func Walk(doc interface{}, fn func(p Path, value interface{})) {
	walk(doc, nil, fn)
}

func walk(v interface{}, prefix Path, fn func(Path, interface{})) {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) == 0 {
			if len(prefix) > 0 {
				fn(prefix, t)
			}

			return
		}

		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		for _, k := range keys {
			walk(t[k], prefix.Child(Key(k)), fn)
		}
	case []interface{}:
		if len(t) == 0 {
			if len(prefix) > 0 {
				fn(prefix, t)
			}

			return
		}

		for i, e := range t {
			walk(e, prefix.Child(Index(i)), fn)
		}
	default:
		if len(prefix) > 0 {
			fn(prefix, v)
		}
	}
}

// Clone deep copies a JSON value.
func Clone(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		c := make(map[string]interface{}, len(t))
		for k, e := range t {
			c[k] = Clone(e)
		}

		return c
	case []interface{}:
		c := make([]interface{}, len(t))
		for i, e := range t {
			c[i] = Clone(e)
		}

		return c
	default:
		return v
	}
}
