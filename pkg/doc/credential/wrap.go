/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"encoding/hex"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/trustvc/vc-merkle/pkg/doc/digest"
	"github.com/trustvc/vc-merkle/pkg/doc/merkle"
	"github.com/trustvc/vc-merkle/pkg/doc/salt"
)

var logger = log.New("vc-merkle/credential")

// Validator checks a wrapped credential against the schema of its variant.
// An empty result means the credential is valid.
type Validator interface {
	Validate(doc Document, variant Variant) ([]ValidationError, error)
}

// SaltGenerator produces the salts of a credential.
type SaltGenerator interface {
	Generate(doc map[string]interface{}) ([]salt.Salt, error)
}

// Wrapper wraps raw credentials.
type Wrapper struct {
	validator   Validator
	salts       SaltGenerator
	generateID  bool
	concurrency int
}

// Opt configures a Wrapper.
type Opt func(w *Wrapper)

// WithValidator sets the schema validator run on every wrapped credential.
func WithValidator(v Validator) Opt {
	return func(w *Wrapper) {
		w.validator = v
	}
}

// WithSaltGenerator replaces the default crypto/rand salt generator.
func WithSaltGenerator(g SaltGenerator) Opt {
	return func(w *Wrapper) {
		w.salts = g
	}
}

// WithGeneratedID assigns an urn:uuid id to credentials that have none.
func WithGeneratedID() Opt {
	return func(w *Wrapper) {
		w.generateID = true
	}
}

// WithConcurrency bounds the number of credentials wrapped in parallel by WrapBatch.
func WithConcurrency(n int) Opt {
	return func(w *Wrapper) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// NewWrapper returns a Wrapper.
func NewWrapper(opts ...Opt) *Wrapper {
	w := &Wrapper{
		salts:       salt.NewGenerator(),
		concurrency: runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Wrap wraps a single credential. The result carries a single leaf Merkle proof.
func (w *Wrapper) Wrap(ctx context.Context, doc Document, variant Variant) (Document, error) {
	wrapped, err := w.WrapBatch(ctx, []Document{doc}, variant)
	if err != nil {
		return nil, err
	}

	return wrapped[0], nil
}

// WrapBatch wraps docs as one batch: every credential is salted, digested and validated
// on its own, then all target hashes become the leaves of one Merkle tree in input order.
func (w *Wrapper) WrapBatch(ctx context.Context, docs []Document, variant Variant) ([]Document, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("%w: variant %d", ErrUnsupportedDocument, variant)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("wrap batch: no documents")
	}

	wrapped := make([]Document, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup

	sem := make(chan struct{}, w.concurrency)

	for i := range docs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()

				return
			}

			if err := ctx.Err(); err != nil {
				errs[i] = err

				return
			}

			wrapped[i], errs[i] = w.wrapOne(ctx, docs[i], variant)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("wrap document %d: %w", i, err)
		}
	}

	if len(wrapped) == 1 {
		return wrapped, nil
	}

	if err := attachBatchProofs(wrapped); err != nil {
		return nil, err
	}

	logger.Debugf("wrapped batch of %d %s credentials", len(wrapped), variant)

	return wrapped, nil
}

func (w *Wrapper) wrapOne(ctx context.Context, raw Document, variant Variant) (Document, error) {
	if raw.HasProof() {
		return nil, ErrAlreadyWrapped
	}

	doc := raw.Clone()
	normalize(doc, variant)

	if _, ok := doc[idField]; !ok && w.generateID {
		doc[idField] = "urn:uuid:" + uuid.NewString()
	}

	salts, err := w.salts.Generate(doc)
	if err != nil {
		return nil, err
	}

	targetHash, err := digest.Credential(doc, salts, nil)
	if err != nil {
		return nil, err
	}

	encoded, err := salt.Encode(salts)
	if err != nil {
		return nil, err
	}

	// A single leaf tree has the leaf as its root and an empty proof.
	wrapped := doc.WithProof(&Proof{
		Type:         variant.ProofType(),
		ProofPurpose: ProofPurpose,
		TargetHash:   targetHash,
		Proofs:       []string{},
		MerkleRoot:   targetHash,
		Salts:        encoded,
		Privacy:      Privacy{Obfuscated: []string{}},
	})

	if w.validator != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		verrs, err := w.validator.Validate(wrapped, variant)
		if err != nil {
			return nil, fmt.Errorf("validate: %w", err)
		}

		if len(verrs) > 0 {
			return nil, &SchemaValidationError{Errors: verrs, Document: wrapped}
		}
	}

	return wrapped, nil
}

func attachBatchProofs(docs []Document) error {
	targets := make([]string, len(docs))
	proofs := make([]*Proof, len(docs))

	for i, d := range docs {
		p, err := ProofOf(d)
		if err != nil {
			return err
		}

		proofs[i] = p
		targets[i] = p.TargetHash
	}

	tree, err := merkle.NewFromHex(targets)
	if err != nil {
		return fmt.Errorf("build merkle tree: %w", err)
	}

	root := tree.RootHex()

	for i, p := range proofs {
		leaf, err := hex.DecodeString(p.TargetHash)
		if err != nil {
			return fmt.Errorf("decode target hash: %w", err)
		}

		siblings, err := tree.Proof(leaf)
		if err != nil {
			return err
		}

		p.Proofs = make([]string, len(siblings))
		for j, s := range siblings {
			p.Proofs[j] = hex.EncodeToString(s)
		}

		p.MerkleRoot = root
		docs[i] = docs[i].WithProof(p)
	}

	return nil
}

// normalize puts the base and variant entries at the front of @context and type,
// keeping the caller's entries after them in their original order without duplicates.
func normalize(doc Document, variant Variant) {
	doc[contextField] = orderedSet([]string{BaseContext, variant.Context()}, doc[contextField])
	doc[typeField] = orderedSet([]string{BaseType, variant.CredentialType()}, doc[typeField])
}

func orderedSet(required []string, current interface{}) []interface{} {
	seen := make(map[string]struct{}, len(required))
	out := make([]interface{}, 0, len(required))

	add := func(v interface{}) {
		s, ok := v.(string)
		if !ok {
			out = append(out, v)

			return
		}

		if _, dup := seen[s]; dup {
			return
		}

		seen[s] = struct{}{}

		out = append(out, s)
	}

	for _, r := range required {
		add(r)
	}

	switch t := current.(type) {
	case string:
		add(t)
	case []interface{}:
		for _, e := range t {
			add(e)
		}
	case []string:
		for _, e := range t {
			add(e)
		}
	}

	return out
}
