/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"errors"

	"github.com/trustvc/vc-merkle/pkg/doc/digest"
	"github.com/trustvc/vc-merkle/pkg/doc/merkle"
	"github.com/trustvc/vc-merkle/pkg/doc/salt"
)

// Digest recomputes the target hash of a wrapped credential from its visible fields,
// salts and obfuscated hashes.
func Digest(doc Document) (string, error) {
	p, err := ProofOf(doc)
	if err != nil {
		return "", err
	}

	salts, err := salt.Decode(p.Salts)
	if err != nil {
		return "", err
	}

	return digest.Credential(doc.WithoutProof(), salts, p.Privacy.Obfuscated)
}

// Verify checks that the visible fields of doc still hash to its target hash and that
// the target hash belongs to its Merkle root. Tampering yields false, not an error.
func Verify(doc Document) (bool, error) {
	if !doc.HasProof() {
		return false, nil
	}

	p, err := ProofOf(doc)
	if err != nil {
		logger.Debugf("verify: %s", err)

		return false, nil
	}

	computed, err := Digest(doc)

	switch {
	case errors.Is(err, ErrDecode), errors.Is(err, ErrSaltNotFound):
		logger.Debugf("verify: %s", err)

		return false, nil
	case err != nil:
		return false, err
	}

	if computed != p.TargetHash {
		logger.Debugf("verify: digest %s does not match target hash %s", computed, p.TargetHash)

		return false, nil
	}

	ok, err := merkle.CheckProofHex(p.Proofs, p.MerkleRoot, p.TargetHash)
	if err != nil {
		logger.Debugf("verify: %s", err)

		return false, nil
	}

	return ok, nil
}
