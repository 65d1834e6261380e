/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credentialtest provides credential fixtures for tests.
package credentialtest

import (
	_ "embed"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustvc/vc-merkle/pkg/doc/credential"
)

var (
	//go:embed testdata/tt-raw.json
	rawTT []byte

	//go:embed testdata/oa-raw.json
	rawOA []byte
)

// RawTTJSON returns the raw TradeTrust credential fixture.
func RawTTJSON() []byte {
	return append([]byte(nil), rawTT...)
}

// RawOAJSON returns the raw OpenAttestation credential fixture.
func RawOAJSON() []byte {
	return append([]byte(nil), rawOA...)
}

// RawTT returns a fresh copy of the raw TradeTrust credential fixture.
func RawTT(t *testing.T) credential.Document {
	t.Helper()

	return Parse(t, rawTT)
}

// RawOA returns a fresh copy of the raw OpenAttestation credential fixture.
func RawOA(t *testing.T) credential.Document {
	t.Helper()

	return Parse(t, rawOA)
}

// Parse decodes raw into a Document.
func Parse(t *testing.T, raw []byte) credential.Document {
	t.Helper()

	doc, err := credential.Parse(raw)
	require.NoError(t, err)

	return doc
}

// MarshalCanonical marshals doc with sorted keys, suitable for byte comparisons.
func MarshalCanonical(t *testing.T, doc interface{}) string {
	t.Helper()

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	return string(raw)
}

// RoundTrip marshals doc to JSON and back, as a credential travelling over the wire would.
func RoundTrip(t *testing.T, doc credential.Document) credential.Document {
	t.Helper()

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	return Parse(t, raw)
}
