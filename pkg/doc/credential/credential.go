/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential wraps verifiable credentials into salted Merkle proofs and verifies them.
//
// A raw credential is any JSON object. Wrapping salts every leaf field, digests the
// salted fields into a target hash, places the target hash into a Merkle tree with the
// other credentials of the batch and embeds the result as the "proof" member.
package credential

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/trustvc/vc-merkle/pkg/doc/path"
)

const (
	// ProofField is the reserved top level member holding the proof.
	ProofField = "proof"

	// ProofPurpose is the proof purpose of every wrapped credential.
	ProofPurpose = "assertionMethod"

	contextField = "@context"
	typeField    = "type"
	idField      = "id"
)

// Document is a credential in its generic JSON form.
type Document map[string]interface{}

// Privacy lists the hashes of fields removed from a credential.
type Privacy struct {
	Obfuscated []string `json:"obfuscated"`
}

// Proof is the proof member of a wrapped or signed credential.
type Proof struct {
	Type         string   `json:"type"`
	ProofPurpose string   `json:"proofPurpose"`
	TargetHash   string   `json:"targetHash"`
	Proofs       []string `json:"proofs"`
	MerkleRoot   string   `json:"merkleRoot"`
	Salts        string   `json:"salts"`
	Privacy      Privacy  `json:"privacy"`
	Key          string   `json:"key,omitempty"`
	Signature    string   `json:"signature,omitempty"`
}

// Parse decodes a JSON credential.
func Parse(raw []byte) (Document, error) {
	var doc Document

	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if doc == nil {
		return nil, fmt.Errorf("parse credential: %w", ErrUnsupportedDocument)
	}

	return doc, nil
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	c, _ := path.Clone(map[string]interface{}(d)).(map[string]interface{})

	return c
}

// WithoutProof returns a shallow copy of d without the proof member.
func (d Document) WithoutProof() Document {
	out := make(Document, len(d))

	for k, v := range d {
		if k == ProofField {
			continue
		}

		out[k] = v
	}

	return out
}

// HasProof reports whether d carries a proof member.
func (d Document) HasProof() bool {
	_, ok := d[ProofField]

	return ok
}

// ProofOf decodes the proof member of d.
func ProofOf(d Document) (*Proof, error) {
	raw, ok := d[ProofField]
	if !ok {
		return nil, ErrNoProof
	}

	if _, ok := raw.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("%w: proof is %T", ErrMalformedProof, raw)
	}

	var p Proof

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &p,
		TagName: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("create proof decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}

	return &p, nil
}

// TargetHash returns the target hash of a wrapped credential.
func TargetHash(d Document) (string, error) {
	p, err := ProofOf(d)
	if err != nil {
		return "", err
	}

	return p.TargetHash, nil
}

// MerkleRoot returns the Merkle root of a wrapped credential.
func MerkleRoot(d Document) (string, error) {
	p, err := ProofOf(d)
	if err != nil {
		return "", err
	}

	return p.MerkleRoot, nil
}

// ToMap renders the proof in the generic form stored inside a Document.
func (p *Proof) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"type":         p.Type,
		"proofPurpose": p.ProofPurpose,
		"targetHash":   p.TargetHash,
		"proofs":       stringsToAny(p.Proofs),
		"merkleRoot":   p.MerkleRoot,
		"salts":        p.Salts,
		"privacy": map[string]interface{}{
			"obfuscated": stringsToAny(p.Privacy.Obfuscated),
		},
	}

	if p.Key != "" {
		m["key"] = p.Key
	}

	if p.Signature != "" {
		m["signature"] = p.Signature
	}

	return m
}

// WithProof returns a shallow copy of d whose proof member is p.
func (d Document) WithProof(p *Proof) Document {
	out := d.WithoutProof()
	out[ProofField] = p.ToMap()

	return out
}

func stringsToAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}

	return out
}
