/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package salt generates the per-field salts of a credential and encodes them for
// transport inside the credential proof.
package salt

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/trustvc/vc-merkle/pkg/doc/path"
)

// Size is the number of random bytes in a salt value.
const Size = 16

// ErrDecode is returned when an encoded salt list cannot be decoded.
var ErrDecode = errors.New("salts decoding failed")

// Salt binds a random value to a single leaf field path.
type Salt struct {
	Value string `json:"value"`
	Path  string `json:"path"`
}

// Generator creates salts for every leaf of a document.
type Generator struct {
	reader io.Reader
}

// Opt configures a Generator.
type Opt func(g *Generator)

// WithRandReader sets the source of randomness. Defaults to crypto/rand.
func WithRandReader(r io.Reader) Opt {
	return func(g *Generator) {
		g.reader = r
	}
}

// NewGenerator returns a salt Generator.
func NewGenerator(opts ...Opt) *Generator {
	g := &Generator{reader: rand.Reader}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate returns one fresh salt per leaf of doc, in leaf enumeration order.
func (g *Generator) Generate(doc map[string]interface{}) ([]Salt, error) {
	leaves := path.Leaves(doc)
	salts := make([]Salt, 0, len(leaves))

	for _, p := range leaves {
		v, err := g.value()
		if err != nil {
			return nil, err
		}

		salts = append(salts, Salt{Value: v, Path: p})
	}

	return salts, nil
}

func (g *Generator) value() (string, error) {
	b := make([]byte, Size)

	if _, err := io.ReadFull(g.reader, b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// Generate creates salts for doc with the default generator.
func Generate(doc map[string]interface{}) ([]Salt, error) {
	return NewGenerator().Generate(doc)
}

// Encode serialises salts as base64 of their JSON array form.
func Encode(salts []Salt) (string, error) {
	if salts == nil {
		salts = []Salt{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(salts); err != nil {
		return "", fmt.Errorf("encode salts: %w", err)
	}

	return base64.StdEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Decode reverses Encode. Failures wrap ErrDecode.
func Decode(encoded string) ([]Salt, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}

	var salts []Salt

	if err := json.Unmarshal(raw, &salts); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}

	return salts, nil
}

// Find returns the salt registered for p.
func Find(salts []Salt, p string) (Salt, bool) {
	for _, s := range salts {
		if s.Path == p {
			return s, true
		}
	}

	return Salt{}, false
}

// Index maps salts by path.
func Index(salts []Salt) map[string]Salt {
	m := make(map[string]Salt, len(salts))

	for _, s := range salts {
		m[s.Path] = s
	}

	return m
}

// Remove returns salts without the entries whose path is in paths. The input is not modified.
func Remove(salts []Salt, paths ...string) []Salt {
	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		drop[p] = struct{}{}
	}

	out := make([]Salt, 0, len(salts))

	for _, s := range salts {
		if _, ok := drop[s.Path]; ok {
			continue
		}

		out = append(out, s)
	}

	return out
}
