/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	credentialcmd "github.com/trustvc/vc-merkle/pkg/controller/command/credential"
)

// wrapReq model
//
// swagger:parameters wrapReq
type wrapReq struct { // nolint: unused,deadcode
	// in: body
	Params credentialcmd.WrapRequest
}

// wrapBatchReq model
//
// swagger:parameters wrapBatchReq
type wrapBatchReq struct { // nolint: unused,deadcode
	// in: body
	Params credentialcmd.WrapBatchRequest
}

// verifyReq model
//
// swagger:parameters verifyReq
type verifyReq struct { // nolint: unused,deadcode
	// in: body
	Params credentialcmd.CredentialRequest
}

// digestReq model
//
// swagger:parameters digestReq
type digestReq struct { // nolint: unused,deadcode
	// in: body
	Params credentialcmd.CredentialRequest
}

// obfuscateReq model
//
// swagger:parameters obfuscateReq
type obfuscateReq struct { // nolint: unused,deadcode
	// in: body
	Params credentialcmd.ObfuscateRequest
}

// signReq model
//
// swagger:parameters signReq
type signReq struct { // nolint: unused,deadcode
	// in: body
	Params credentialcmd.SignRequest
}

// getCredentialReq model
//
// swagger:parameters getCredentialReq
type getCredentialReq struct { // nolint: unused,deadcode
	// Target hash of the credential.
	//
	// in: path
	// required: true
	ID string `json:"id"`
}

// getBatchReq model
//
// swagger:parameters getBatchReq
type getBatchReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	MerkleRoot string `json:"merkleRoot"`
}

// credentialRes model
//
// swagger:response credentialRes
type credentialRes struct { // nolint: unused,deadcode
	// in: body
	credentialcmd.CredentialResponse
}

// batchRes model
//
// swagger:response batchRes
type batchRes struct { // nolint: unused,deadcode
	// in: body
	credentialcmd.BatchResponse
}

// verifyRes model
//
// swagger:response verifyRes
type verifyRes struct { // nolint: unused,deadcode
	// in: body
	credentialcmd.VerifyResponse
}

// digestRes model
//
// swagger:response digestRes
type digestRes struct { // nolint: unused,deadcode
	// in: body
	credentialcmd.DigestResponse
}

// recordsRes model
//
// swagger:response recordsRes
type recordsRes struct { // nolint: unused,deadcode
	// in: body
	credentialcmd.RecordsResponse
}
