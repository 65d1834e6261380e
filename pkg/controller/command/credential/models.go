/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"

	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

// WrapRequest is model for wrapping a single raw credential.
type WrapRequest struct {
	// Credential is the raw credential.
	Credential json.RawMessage `json:"credential"`
	// Variant is "oa-v4" or "tt-v4". If omitted it is derived from the credential type.
	Variant string `json:"variant,omitempty"`
	// Save stores the wrapped credential.
	Save bool `json:"save,omitempty"`
}

// WrapBatchRequest is model for wrapping raw credentials under one Merkle root.
type WrapBatchRequest struct {
	Credentials []json.RawMessage `json:"credentials"`
	Variant     string            `json:"variant"`
	Save        bool              `json:"save,omitempty"`
}

// CredentialRequest is model for commands taking a single wrapped or signed credential.
type CredentialRequest struct {
	Credential json.RawMessage `json:"credential"`
}

// ObfuscateRequest is model for removing fields from a wrapped credential.
type ObfuscateRequest struct {
	Credential json.RawMessage `json:"credential"`
	// Fields are paths such as "credentialSubject.name" or "attachments[0]".
	Fields []string `json:"fields"`
}

// SignRequest is model for signing the Merkle root of a wrapped credential.
type SignRequest struct {
	Credential json.RawMessage `json:"credential"`
	Save       bool            `json:"save,omitempty"`
}

// IDArg model
//
// This is used for querying stored credentials by target hash.
type IDArg struct {
	// ID is the target hash of the credential.
	ID string `json:"id"`
}

// MerkleRootArg model
//
// This is used for querying the stored credentials of one batch.
type MerkleRootArg struct {
	MerkleRoot string `json:"merkleRoot"`
}

// CredentialResponse is model for a single credential result.
type CredentialResponse struct {
	Credential json.RawMessage `json:"credential"`
}

// BatchResponse is model for the credentials of one batch.
type BatchResponse struct {
	Credentials []json.RawMessage `json:"credentials"`
	MerkleRoot  string            `json:"merkleRoot,omitempty"`
}

// VerifyResponse is model for the verification result.
type VerifyResponse struct {
	Verified   bool   `json:"verified"`
	Variant    string `json:"variant,omitempty"`
	Kind       string `json:"kind,omitempty"`
	TargetHash string `json:"targetHash,omitempty"`
	MerkleRoot string `json:"merkleRoot,omitempty"`
}

// DigestResponse is model for a recomputed credential digest.
type DigestResponse struct {
	Digest     string `json:"digest"`
	TargetHash string `json:"targetHash"`
}

// RecordsResponse is model for listing stored credentials.
type RecordsResponse struct {
	Result []*credentialstore.Record `json:"result,omitempty"`
}

// Event is the notification published when a credential is wrapped, obfuscated or signed.
type Event struct {
	// Action is the command method that produced the credential.
	Action     string `json:"action"`
	Variant    string `json:"variant,omitempty"`
	Kind       string `json:"kind,omitempty"`
	TargetHash string `json:"targetHash,omitempty"`
	MerkleRoot string `json:"merkleRoot,omitempty"`
	// Count is the number of credentials, greater than one for a batch.
	Count int `json:"count"`
}
