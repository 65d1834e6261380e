/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trustvc/vc-merkle/pkg/doc/digest"
	"github.com/trustvc/vc-merkle/pkg/doc/salt"
)

var (
	// ErrSaltNotFound is returned when a field and its salt do not match up.
	ErrSaltNotFound = digest.ErrSaltNotFound

	// ErrDecode is returned when the encoded salts of a proof cannot be decoded.
	ErrDecode = salt.ErrDecode

	// ErrUnsupportedDocument is returned for documents that are not a known credential variant.
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrAlreadySigned is returned when signing a credential that already carries a signature.
	ErrAlreadySigned = errors.New("Document has been signed") //nolint:stylecheck

	// ErrAlreadyWrapped is returned when wrapping a credential that already carries a proof.
	ErrAlreadyWrapped = errors.New("document has already been wrapped")

	// ErrNoProof is returned when a proof is required but missing.
	ErrNoProof = errors.New("document has no proof")

	// ErrMalformedProof is returned when the proof member cannot be decoded.
	ErrMalformedProof = errors.New("malformed proof")
)

// ValidationError is a single schema violation.
type ValidationError struct {
	Keyword      string      `json:"keyword"`
	InstancePath string      `json:"instancePath"`
	Message      string      `json:"message"`
	Value        interface{} `json:"value,omitempty"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.InstancePath, e.Message)
}

// SchemaValidationError is returned when a wrapped credential fails schema validation.
type SchemaValidationError struct {
	Errors   []ValidationError
	Document Document
}

func (e *SchemaValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.String()
	}

	return fmt.Sprintf("Invalid document: %s", strings.Join(msgs, "; "))
}
