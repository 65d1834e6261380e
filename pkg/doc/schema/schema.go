/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package schema validates wrapped credentials against the JSON schema of their variant.
package schema

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/trustvc/vc-merkle/pkg/doc/credential"
)

const (
	// DefaultCacheSize is the default number of compiled schemas kept in memory.
	DefaultCacheSize = 16

	rootField = "(root)"
)

var logger = log.New("vc-merkle/schema")

// ErrUnknownSchema is returned when no schema is registered for a variant.
var ErrUnknownSchema = errors.New("no schema for credential variant")

//go:embed schemas/*.json
var builtin embed.FS

// Validator checks credentials against per variant JSON schemas. Compiled schemas are cached.
// It is safe for concurrent use.
type Validator struct {
	sources map[credential.Variant][]byte
	size    int
	cache   gcache.Cache
}

// Opt configures a Validator.
type Opt func(v *Validator)

// WithCacheSize sets the number of compiled schemas kept in memory.
func WithCacheSize(size int) Opt {
	return func(v *Validator) {
		v.size = size
	}
}

// WithSchema replaces the schema used for variant.
func WithSchema(variant credential.Variant, raw []byte) Opt {
	return func(v *Validator) {
		v.sources[variant] = raw
	}
}

// New returns a Validator loaded with the built-in schemas.
func New(opts ...Opt) (*Validator, error) {
	v := &Validator{
		sources: map[credential.Variant][]byte{},
		size:    DefaultCacheSize,
	}

	for _, variant := range credential.Variants() {
		raw, err := builtin.ReadFile("schemas/" + variant.String() + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", variant, err)
		}

		v.sources[variant] = raw
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.size <= 0 {
		v.size = DefaultCacheSize
	}

	v.cache = gcache.New(v.size).LRU().LoaderFunc(v.compile).Build()

	return v, nil
}

// Validate checks doc against the schema of variant and returns every violation found.
// An error is returned only when the schema itself cannot be used.
func (v *Validator) Validate(doc credential.Document, variant credential.Variant) ([]credential.ValidationError, error) {
	compiled, err := v.cache.Get(variant)
	if err != nil {
		return nil, err
	}

	result, err := compiled.(*gojsonschema.Schema).Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s credential: %w", variant, err)
	}

	if result.Valid() {
		return nil, nil
	}

	verrs := make([]credential.ValidationError, 0, len(result.Errors()))

	for _, re := range result.Errors() {
		verrs = append(verrs, credential.ValidationError{
			Keyword:      re.Type(),
			InstancePath: instancePath(re.Field()),
			Message:      re.Description(),
			Value:        re.Value(),
		})
	}

	logger.Debugf("%s credential failed schema validation with %d errors", variant, len(verrs))

	return verrs, nil
}

func (v *Validator) compile(key interface{}) (interface{}, error) {
	variant, ok := key.(credential.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownSchema, key)
	}

	raw, ok := v.sources[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, variant)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", variant, err)
	}

	logger.Debugf("compiled schema %s for %s credentials", variant.SchemaID(), variant)

	return compiled, nil
}

// instancePath turns a dotted gojsonschema field into a JSON pointer.
func instancePath(field string) string {
	if field == rootField || field == "" {
		return ""
	}

	return "/" + strings.ReplaceAll(field, ".", "/")
}
