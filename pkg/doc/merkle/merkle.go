/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package merkle implements a keccak256 Merkle tree with sorted pairwise hashing.
//
// Each parent is keccak256 of its two children concatenated in ascending byte order,
// so a proof is only the list of sibling hashes: verifiers never need left/right
// positions. An unpaired node at the end of a layer is promoted to the next layer as is.
package merkle

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/trustvc/vc-merkle/pkg/doc/digest"
)

var (
	// ErrNoLeaves is returned when building a tree without leaves.
	ErrNoLeaves = errors.New("merkle tree requires at least one leaf")

	// ErrLeafNotFound is returned when a proof is requested for a leaf outside the tree.
	ErrLeafNotFound = errors.New("leaf not found in merkle tree")
)

// Tree is an immutable Merkle tree. layers[0] holds the leaves and the last layer the root.
type Tree struct {
	layers [][][]byte
}

// New builds a tree over leaves in the given order.
func New(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	layer := make([][]byte, len(leaves))
	for i, l := range leaves {
		layer[i] = bytes.Clone(l)
	}

	layers := [][][]byte{layer}

	for len(layer) > 1 {
		next := make([][]byte, 0, (len(layer)+1)/2)

		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])

				continue
			}

			next = append(next, CombineHashes(layer[i], layer[i+1]))
		}

		layers = append(layers, next)
		layer = next
	}

	return &Tree{layers: layers}, nil
}

// NewFromHex builds a tree from hex encoded leaves.
func NewFromHex(leaves []string) (*Tree, error) {
	bufs := make([][]byte, len(leaves))

	for i, l := range leaves {
		b, err := hex.DecodeString(l)
		if err != nil {
			return nil, fmt.Errorf("decode leaf %d: %w", i, err)
		}

		bufs[i] = b
	}

	return New(bufs)
}

// CombineHashes returns keccak256 of a and b concatenated in ascending byte order.
func CombineHashes(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}

	return digest.Keccak256(a, b)
}

// Root returns the root hash.
func (t *Tree) Root() []byte {
	top := t.layers[len(t.layers)-1]

	return bytes.Clone(top[0])
}

// RootHex returns the hex encoded root hash.
func (t *Tree) RootHex() string {
	return hex.EncodeToString(t.Root())
}

// Leaves returns the number of leaves.
func (t *Tree) Leaves() int {
	return len(t.layers[0])
}

// Proof returns the sibling hashes needed to climb from leaf to the root, bottom up.
// Layers where the node is promoted without a sibling contribute nothing.
func (t *Tree) Proof(leaf []byte) ([][]byte, error) {
	idx := -1

	for i, l := range t.layers[0] {
		if bytes.Equal(l, leaf) {
			idx = i

			break
		}
	}

	if idx < 0 {
		return nil, ErrLeafNotFound
	}

	proof := make([][]byte, 0, len(t.layers)-1)

	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1

		if sibling < len(layer) {
			proof = append(proof, bytes.Clone(layer[sibling]))
		}

		idx /= 2
	}

	return proof, nil
}

// ProofHex is like Proof with hex encoded input and output.
func (t *Tree) ProofHex(leaf string) ([]string, error) {
	b, err := hex.DecodeString(leaf)
	if err != nil {
		return nil, fmt.Errorf("decode leaf: %w", err)
	}

	proof, err := t.Proof(b)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(proof))
	for i, p := range proof {
		out[i] = hex.EncodeToString(p)
	}

	return out, nil
}

// CheckProof recomputes the root from targetHash and proofs and compares it with root.
func CheckProof(proofs [][]byte, root, targetHash []byte) bool {
	cur := targetHash

	for _, p := range proofs {
		cur = CombineHashes(cur, p)
	}

	return bytes.Equal(cur, root)
}

// CheckProofHex is like CheckProof with hex encoded arguments.
func CheckProofHex(proofs []string, root, targetHash string) (bool, error) {
	bufs := make([][]byte, len(proofs))

	for i, p := range proofs {
		b, err := hex.DecodeString(p)
		if err != nil {
			return false, fmt.Errorf("decode proof %d: %w", i, err)
		}

		bufs[i] = b
	}

	r, err := hex.DecodeString(root)
	if err != nil {
		return false, fmt.Errorf("decode merkle root: %w", err)
	}

	h, err := hex.DecodeString(targetHash)
	if err != nil {
		return false, fmt.Errorf("decode target hash: %w", err)
	}

	return CheckProof(bufs, r, h), nil
}
