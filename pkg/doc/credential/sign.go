/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"encoding/hex"
	"fmt"
)

// Signer signs the Merkle root of a wrapped credential. Key management lives outside this package.
type Signer interface {
	// Sign returns the verification method of the signing key and the signature over merkleRoot.
	Sign(ctx context.Context, merkleRoot []byte) (key, signature string, err error)
}

// Sign adds the signature of an external signer to a wrapped credential. doc is not modified.
func Sign(ctx context.Context, doc Document, signer Signer) (Document, error) {
	variant, kind, err := Classify(doc)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSigned:
		return nil, ErrAlreadySigned
	case KindRaw:
		return nil, fmt.Errorf("%w: %s credential must be wrapped before signing", ErrNoProof, variant)
	}

	p, err := ProofOf(doc)
	if err != nil {
		return nil, err
	}

	root, err := hex.DecodeString(p.MerkleRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: merkle root: %v", ErrMalformedProof, err)
	}

	key, signature, err := signer.Sign(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("sign merkle root: %w", err)
	}

	p.Key = key
	p.Signature = signature

	return doc.Clone().WithProof(p), nil
}
