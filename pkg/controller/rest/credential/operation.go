/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	credentialcmd "github.com/trustvc/vc-merkle/pkg/controller/command/credential"
	"github.com/trustvc/vc-merkle/pkg/controller/internal/cmdutil"
	"github.com/trustvc/vc-merkle/pkg/controller/rest"
	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

// constants for the credential operations.
const (
	OperationID        = "/credential"
	WrapPath           = OperationID + "/wrap"
	WrapBatchPath      = OperationID + "/wrap-batch"
	VerifyPath         = OperationID + "/verify"
	ObfuscatePath      = OperationID + "/obfuscate"
	DigestPath         = OperationID + "/digest"
	SignPath           = OperationID + "/sign"
	GetCredentialsPath = OperationID + "/records"
	GetBatchPath       = OperationID + "/batch/{merkleRoot}"
	GetCredentialPath  = OperationID + "/{id}"
)

type provider interface {
	Wrapper() *credential.Wrapper
	Signer() credential.Signer
	CredentialStore() *credentialstore.Store
}

// Operation contains REST operations provided by the credential API.
type Operation struct {
	handlers []rest.Handler
	command  *credentialcmd.Command
}

// New returns a new instance of credential REST controller.
func New(p provider, opts ...credentialcmd.Option) *Operation {
	op := &Operation{command: credentialcmd.New(p, opts...)}
	op.registerHandlers()

	return op
}

// GetRESTHandlers gets all controller API handlers available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

func (o *Operation) registerHandlers() {
	// static GET paths are registered ahead of the {id} route so the router matches them first
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(WrapPath, http.MethodPost, o.Wrap),
		cmdutil.NewHTTPHandler(WrapBatchPath, http.MethodPost, o.WrapBatch),
		cmdutil.NewHTTPHandler(VerifyPath, http.MethodPost, o.Verify),
		cmdutil.NewHTTPHandler(ObfuscatePath, http.MethodPost, o.Obfuscate),
		cmdutil.NewHTTPHandler(DigestPath, http.MethodPost, o.Digest),
		cmdutil.NewHTTPHandler(SignPath, http.MethodPost, o.Sign),
		cmdutil.NewHTTPHandler(GetCredentialsPath, http.MethodGet, o.GetCredentials),
		cmdutil.NewHTTPHandler(GetBatchPath, http.MethodGet, o.GetBatch),
		cmdutil.NewHTTPHandler(GetCredentialPath, http.MethodGet, o.GetCredential),
	}
}

// Wrap swagger:route POST /credential/wrap credential wrapReq
//
// Salts, hashes and wraps a single raw credential.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (o *Operation) Wrap(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Wrap, rw, req.Body)
}

// WrapBatch swagger:route POST /credential/wrap-batch credential wrapBatchReq
//
// Wraps raw credentials of one variant under a shared Merkle root.
//
// Responses:
//    default: genericError
//        200: batchRes
func (o *Operation) WrapBatch(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.WrapBatch, rw, req.Body)
}

// Verify swagger:route POST /credential/verify credential verifyReq
//
// Recomputes the digest and Merkle root of a wrapped credential and compares them with its proof.
//
// Responses:
//    default: genericError
//        200: verifyRes
func (o *Operation) Verify(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Verify, rw, req.Body)
}

// Obfuscate swagger:route POST /credential/obfuscate credential obfuscateReq
//
// Removes fields from a wrapped credential, keeping their hashes in the proof.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (o *Operation) Obfuscate(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Obfuscate, rw, req.Body)
}

// Digest swagger:route POST /credential/digest credential digestReq
//
// Recomputes the digest of a wrapped credential.
//
// Responses:
//    default: genericError
//        200: digestRes
func (o *Operation) Digest(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Digest, rw, req.Body)
}

// Sign swagger:route POST /credential/sign credential signReq
//
// Signs the Merkle root of a wrapped credential.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (o *Operation) Sign(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Sign, rw, req.Body)
}

// GetCredential swagger:route GET /credential/{id} credential getCredentialReq
//
// Retrieves a stored credential by its target hash.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (o *Operation) GetCredential(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetCredential, rw, bytes.NewBufferString(fmt.Sprintf(`{
		"id":%q
	}`, mux.Vars(req)["id"])))
}

// GetCredentials swagger:route GET /credential/records credential getCredentialsReq
//
// Lists the records of every stored credential.
//
// Responses:
//    default: genericError
//        200: recordsRes
func (o *Operation) GetCredentials(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetCredentials, rw, req.Body)
}

// GetBatch swagger:route GET /credential/batch/{merkleRoot} credential getBatchReq
//
// Retrieves the stored credentials wrapped under one Merkle root.
//
// Responses:
//    default: genericError
//        200: batchRes
func (o *Operation) GetBatch(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetBatch, rw, bytes.NewBufferString(fmt.Sprintf(`{
		"merkleRoot":%q
	}`, mux.Vars(req)["merkleRoot"])))
}
