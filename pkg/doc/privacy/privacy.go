/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package privacy implements selective disclosure of wrapped credentials.
//
// Obfuscating a field removes it from the credential, records the hash of its salted
// value in proof.privacy.obfuscated and drops its salt. The credential digest, and
// therefore its target hash and Merkle root, is unchanged.
package privacy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	"github.com/trustvc/vc-merkle/pkg/doc/digest"
	"github.com/trustvc/vc-merkle/pkg/doc/path"
	"github.com/trustvc/vc-merkle/pkg/doc/salt"
)

var logger = log.New("vc-merkle/privacy")

// ErrProofField is returned when asked to obfuscate the proof itself.
var ErrProofField = errors.New("the proof cannot be obfuscated")

// Obfuscate removes fields from a wrapped credential and returns the result. doc is not modified.
//
// A field naming an object or array removes every leaf below it, each contributing its
// own obfuscated hash. Object members are deleted; array elements leave a null in place so
// that the paths of the remaining elements are unchanged. Fields that are not present are skipped.
func Obfuscate(doc credential.Document, fields ...string) (credential.Document, error) {
	p, err := credential.ProofOf(doc)
	if err != nil {
		return nil, err
	}

	salts, err := salt.Decode(p.Salts)
	if err != nil {
		return nil, err
	}

	out := doc.Clone()
	body := map[string]interface{}(out.WithoutProof())
	salted := salt.Index(salts)
	obfuscated := append([]string{}, p.Privacy.Obfuscated...)

	for _, field := range fields {
		fp, err := path.Parse(field)
		if err != nil {
			return nil, err
		}

		if !fp[0].IsIndex && fp[0].Key == credential.ProofField {
			return nil, fmt.Errorf("%w: %s", ErrProofField, field)
		}

		if _, ok := path.Get(body, fp); !ok {
			logger.Debugf("obfuscate: field %s not present", field)

			continue
		}

		var (
			removed []string
			walkErr error
		)

		path.WalkUnder(body, fp, func(lp path.Path, v interface{}) {
			if walkErr != nil {
				return
			}

			leaf := lp.String()

			s, ok := salted[leaf]
			if !ok {
				// emptied containers and removed array elements carry no salt
				if !isEmptyContainer(v) && !path.IsHole(lp, v) {
					walkErr = fmt.Errorf("%w: %s", credential.ErrSaltNotFound, leaf)
				}

				return
			}

			h, err := digest.FieldHash(leaf, s.Value, v)
			if err != nil {
				walkErr = err

				return
			}

			obfuscated = append(obfuscated, h)
			removed = append(removed, leaf)

			delete(salted, leaf)
		})

		if walkErr != nil {
			return nil, walkErr
		}

		path.Delete(body, fp)
		salts = salt.Remove(salts, removed...)
	}

	encoded, err := salt.Encode(salts)
	if err != nil {
		return nil, err
	}

	p.Salts = encoded
	p.Privacy.Obfuscated = obfuscated

	return credential.Document(body).WithProof(p), nil
}

// IsObfuscated reports whether any field of doc has been obfuscated.
func IsObfuscated(doc credential.Document) (bool, error) {
	data, err := ObfuscatedData(doc)
	if err != nil {
		return false, err
	}

	return len(data) > 0, nil
}

// ObfuscatedData returns the hashes of the obfuscated fields of doc.
func ObfuscatedData(doc credential.Document) ([]string, error) {
	if _, kind, err := credential.Classify(doc); err != nil || kind == credential.KindRaw {
		return nil, fmt.Errorf("%w: can only read obfuscated data from wrapped or signed credentials",
			credential.ErrUnsupportedDocument)
	}

	p, err := credential.ProofOf(doc)
	if err != nil {
		return nil, err
	}

	if p.Privacy.Obfuscated == nil {
		return []string{}, nil
	}

	return p.Privacy.Obfuscated, nil
}

// Fields splits a comma separated list of field paths.
func Fields(list string) []string {
	var out []string

	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}

	return out
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
