/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package digest computes salted field hashes and the order independent digest of a credential.
package digest

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/slices"

	"github.com/trustvc/vc-merkle/pkg/doc/path"
	"github.com/trustvc/vc-merkle/pkg/doc/salt"
)

// ErrSaltNotFound is returned when a visible field has no salt or a salt points to a missing field.
var ErrSaltNotFound = errors.New("salt not found")

// Keccak256 returns the legacy Keccak-256 hash of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()

	for _, d := range data {
		h.Write(d) //nolint:errcheck
	}

	return h.Sum(nil)
}

// Keccak256Hex returns the lowercase hex encoded Keccak-256 hash of data, without 0x prefix.
func Keccak256Hex(data []byte) string {
	return hex.EncodeToString(Keccak256(data))
}

// FieldHash hashes a single salted field as keccak256(JSON({path: "salt:value"})).
func FieldHash(fieldPath, saltValue string, value interface{}) (string, error) {
	s, err := Stringify(value)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", fieldPath, err)
	}

	obj := make([]byte, 0, len(fieldPath)+len(saltValue)+len(s)+8)
	obj = append(obj, '{')
	obj = appendQuoted(obj, fieldPath)
	obj = append(obj, ':')
	obj = appendQuoted(obj, saltValue+":"+s)
	obj = append(obj, '}')

	return Keccak256Hex(obj), nil
}

// Credential computes the digest of doc, which must not contain its proof.
// Every visible leaf needs a salt and every salt must resolve to a value in doc.
// The visible field hashes and the obfuscated hashes are sorted and hashed together.
//
// Obfuscation leaves two kinds of unsalted leaves behind: containers emptied of all their
// fields and nulls in place of removed array elements. Neither carries data, so they are
// skipped, but each one stems from at least one obfuscated field and their number may not
// exceed len(obfuscated). Within that bound an empty member or a null element added after
// wrapping cannot be told apart from one left by obfuscation.
func Credential(doc map[string]interface{}, salts []salt.Salt, obfuscated []string) (string, error) {
	salted := salt.Index(salts)

	var (
		missing  string
		unsalted int
	)

	path.Walk(doc, func(p path.Path, v interface{}) {
		if missing != "" {
			return
		}

		if _, ok := salted[p.String()]; ok {
			return
		}

		if isEmptyContainer(v) || path.IsHole(p, v) {
			unsalted++

			return
		}

		missing = p.String()
	})

	if missing != "" {
		return "", fmt.Errorf("%w: %s", ErrSaltNotFound, missing)
	}

	if unsalted > len(obfuscated) {
		return "", fmt.Errorf("%w: %d unsalted empty fields but only %d obfuscated fields",
			ErrSaltNotFound, unsalted, len(obfuscated))
	}

	hashes := make([]string, 0, len(salts)+len(obfuscated))
	hashes = append(hashes, obfuscated...)

	for _, s := range salts {
		p, err := path.Parse(s.Path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrSaltNotFound, s.Path, err)
		}

		v, ok := path.Get(doc, p)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrSaltNotFound, s.Path)
		}

		h, err := FieldHash(s.Path, s.Value, v)
		if err != nil {
			return "", err
		}

		hashes = append(hashes, h)
	}

	return Hashes(hashes)
}

// Hashes sorts the given hex hashes lexicographically and returns keccak256 of their JSON array.
func Hashes(hashes []string) (string, error) {
	sorted := slices.Clone(hashes)
	if sorted == nil {
		sorted = []string{}
	}

	slices.Sort(sorted)

	raw, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("marshal hashes: %w", err)
	}

	return Keccak256Hex(raw), nil
}

func isEmptyContainer(v interface{}) bool {
	switch t := v.(type) {
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	default:
		return false
	}
}
