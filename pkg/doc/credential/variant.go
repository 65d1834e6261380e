/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"

	"github.com/tidwall/gjson"
	"golang.org/x/exp/slices"
)

const (
	// BaseContext is the W3C credentials context every credential starts with.
	BaseContext = "https://www.w3.org/2018/credentials/v1"

	// BaseType is the type every credential starts with.
	BaseType = "VerifiableCredential"
)

// Variant identifies the credential flavour. It fixes the context, type, proof type and schema.
type Variant int

const (
	// VariantUnknown is the zero Variant.
	VariantUnknown Variant = iota
	// VariantOAv4 is an OpenAttestation v4 credential.
	VariantOAv4
	// VariantTTv4 is a TradeTrust v4 credential.
	VariantTTv4
)

type variantInfo struct {
	name           string
	context        string
	credentialType string
	proofType      string
	schemaID       string
}

//nolint:gochecknoglobals
var variants = map[Variant]variantInfo{
	VariantOAv4: {
		name:           "oa-v4",
		context:        "https://schemata.openattestation.com/com/openattestation/4.0/alpha-context.json",
		credentialType: "OpenAttestationCredential",
		proofType:      "OpenAttestationMerkleProofSignature2018",
		schemaID:       "https://schemata.openattestation.com/com/openattestation/4.0/alpha-schema.json",
	},
	VariantTTv4: {
		name:           "tt-v4",
		context:        "https://schemata.tradetrust.io/io/tradetrust/4.0/alpha-context.json",
		credentialType: "TradeTrustCredential",
		proofType:      "TradeTrustMerkleProofSignature2018",
		schemaID:       "https://schemata.tradetrust.io/io/tradetrust/4.0/alpha-schema.json",
	},
}

// Variants lists the supported variants.
func Variants() []Variant {
	return []Variant{VariantOAv4, VariantTTv4}
}

// ParseVariant resolves a variant by name ("oa-v4" or "tt-v4").
func ParseVariant(name string) (Variant, error) {
	for v, info := range variants {
		if info.name == name {
			return v, nil
		}
	}

	return VariantUnknown, fmt.Errorf("%w: variant %q", ErrUnsupportedDocument, name)
}

func (v Variant) String() string {
	if info, ok := variants[v]; ok {
		return info.name
	}

	return "unknown"
}

// Valid reports whether v is a supported variant.
func (v Variant) Valid() bool {
	_, ok := variants[v]

	return ok
}

// Context is the variant specific @context entry.
func (v Variant) Context() string { return variants[v].context }

// CredentialType is the variant specific type entry.
func (v Variant) CredentialType() string { return variants[v].credentialType }

// ProofType is the proof type of wrapped credentials of this variant.
func (v Variant) ProofType() string { return variants[v].proofType }

// SchemaID identifies the JSON schema of this variant.
func (v Variant) SchemaID() string { return variants[v].schemaID }

// Kind is the lifecycle stage of a credential.
type Kind int

const (
	// KindRaw is a credential without proof.
	KindRaw Kind = iota
	// KindWrapped is a credential with a Merkle proof.
	KindWrapped
	// KindSigned is a wrapped credential whose Merkle root has been signed.
	KindSigned
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindWrapped:
		return "wrapped"
	case KindSigned:
		return "signed"
	default:
		return "unknown"
	}
}

// Classify determines the variant and lifecycle stage of doc.
func Classify(doc Document) (Variant, Kind, error) {
	types := stringValues(doc[typeField])

	var proofType, signature string

	if p, ok := doc[ProofField].(map[string]interface{}); ok {
		proofType, _ = p["type"].(string)     //nolint:errcheck
		signature, _ = p["signature"].(string) //nolint:errcheck
	}

	return classify(types, doc.HasProof(), proofType, signature)
}

// ClassifyJSON is like Classify but inspects raw JSON without decoding it.
func ClassifyJSON(raw []byte) (Variant, Kind, error) {
	if !gjson.ValidBytes(raw) {
		return VariantUnknown, KindRaw, fmt.Errorf("%w: invalid JSON", ErrUnsupportedDocument)
	}

	var types []string

	t := gjson.GetBytes(raw, typeField)
	if t.IsArray() {
		t.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String {
				types = append(types, value.String())
			}

			return true
		})
	} else if t.Type == gjson.String {
		types = append(types, t.String())
	}

	proof := gjson.GetBytes(raw, ProofField)

	return classify(types, proof.Exists(), proof.Get("type").String(), proof.Get("signature").String())
}

func classify(types []string, hasProof bool, proofType, signature string) (Variant, Kind, error) {
	variant := VariantUnknown

	for _, v := range Variants() {
		if slices.Contains(types, v.CredentialType()) || (proofType != "" && proofType == v.ProofType()) {
			variant = v

			break
		}
	}

	if variant == VariantUnknown {
		return VariantUnknown, KindRaw, fmt.Errorf("%w: no OpenAttestation or TradeTrust credential type", ErrUnsupportedDocument)
	}

	switch {
	case !hasProof:
		return variant, KindRaw, nil
	case proofType != variant.ProofType():
		return variant, KindRaw, fmt.Errorf("%w: unexpected proof type %q", ErrUnsupportedDocument, proofType)
	case signature != "":
		return variant, KindSigned, nil
	default:
		return variant, KindWrapped, nil
	}
}

func stringValues(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))

		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
