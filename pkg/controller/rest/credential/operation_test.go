/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	credentialcmd "github.com/trustvc/vc-merkle/pkg/controller/command/credential"
	"github.com/trustvc/vc-merkle/pkg/controller/rest"
	credentialrest "github.com/trustvc/vc-merkle/pkg/controller/rest/credential"
	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	"github.com/trustvc/vc-merkle/pkg/doc/schema"
	"github.com/trustvc/vc-merkle/internal/credentialtest"
	mockcredential "github.com/trustvc/vc-merkle/pkg/internal/gomocks/doc/credential"
	mockprovider "github.com/trustvc/vc-merkle/pkg/mock/provider"
	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

func TestNew(t *testing.T) {
	op := credentialrest.New(&mockprovider.Provider{})
	require.NotNil(t, op)
	require.Equal(t, 9, len(op.GetRESTHandlers()))
}

func TestOperation_WrapVerifyDigest(t *testing.T) {
	op := credentialrest.New(&mockprovider.Provider{})

	body, code := send(t, op, credentialrest.WrapPath, http.MethodPost, credentialrest.WrapPath,
		credentialcmd.WrapRequest{Credential: credentialtest.RawOAJSON()})
	require.Equal(t, http.StatusOK, code)

	var wrapped credentialcmd.CredentialResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &wrapped))
	require.Equal(t, "OpenAttestationMerkleProofSignature2018", gjson.GetBytes(wrapped.Credential, "proof.type").String())

	body, code = send(t, op, credentialrest.VerifyPath, http.MethodPost, credentialrest.VerifyPath,
		credentialcmd.CredentialRequest{Credential: wrapped.Credential})
	require.Equal(t, http.StatusOK, code)

	var verified credentialcmd.VerifyResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &verified))
	require.True(t, verified.Verified)
	require.Equal(t, credential.VariantOAv4.String(), verified.Variant)
	require.Equal(t, credential.KindWrapped.String(), verified.Kind)

	body, code = send(t, op, credentialrest.DigestPath, http.MethodPost, credentialrest.DigestPath,
		credentialcmd.CredentialRequest{Credential: wrapped.Credential})
	require.Equal(t, http.StatusOK, code)

	var digest credentialcmd.DigestResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &digest))
	require.Equal(t, verified.TargetHash, digest.Digest)
	require.Equal(t, digest.TargetHash, digest.Digest)
}

func TestOperation_Obfuscate(t *testing.T) {
	op := credentialrest.New(&mockprovider.Provider{})
	raw := wrap(t, op)

	body, code := send(t, op, credentialrest.ObfuscatePath, http.MethodPost, credentialrest.ObfuscatePath,
		credentialcmd.ObfuscateRequest{Credential: raw, Fields: []string{"key1"}})
	require.Equal(t, http.StatusOK, code)

	var response credentialcmd.CredentialResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &response))
	require.False(t, gjson.GetBytes(response.Credential, "key1").Exists())
	require.Len(t, gjson.GetBytes(response.Credential, "proof.privacy.obfuscated").Array(), 1)

	body, code = send(t, op, credentialrest.ObfuscatePath, http.MethodPost, credentialrest.ObfuscatePath,
		credentialcmd.ObfuscateRequest{Credential: raw})
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body.String(), "at least one field is required")
}

func TestOperation_WrapSchemaFailure(t *testing.T) {
	validator, err := schema.New()
	require.NoError(t, err)

	op := credentialrest.New(&mockprovider.Provider{
		WrapperValue: credential.NewWrapper(credential.WithValidator(validator)),
	})

	raw := strings.Replace(string(credentialtest.RawTTJSON()), `"issuer"`, `"issuedBy"`, 1)

	body, code := send(t, op, credentialrest.WrapPath, http.MethodPost, credentialrest.WrapPath,
		credentialcmd.WrapRequest{Credential: json.RawMessage(raw), Variant: credential.VariantTTv4.String()})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, int64(credentialcmd.SchemaValidationErrorCode), gjson.Get(body.String(), "code").Int())
	require.Equal(t, "required", gjson.Get(body.String(), "details.0.keyword").String())
}

func TestOperation_WrapBatchAndStore(t *testing.T) {
	store, err := credentialstore.New(&mockprovider.Provider{StorageProviderValue: mem.NewProvider()})
	require.NoError(t, err)

	op := credentialrest.New(&mockprovider.Provider{CredentialStoreValue: store})

	body, code := send(t, op, credentialrest.WrapBatchPath, http.MethodPost, credentialrest.WrapBatchPath,
		credentialcmd.WrapBatchRequest{
			Credentials: []json.RawMessage{credentialtest.RawTTJSON(), credentialtest.RawTTJSON()},
			Variant:     credential.VariantTTv4.String(),
			Save:        true,
		})
	require.Equal(t, http.StatusOK, code)

	var batch credentialcmd.BatchResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &batch))
	require.Len(t, batch.Credentials, 2)
	require.NotEmpty(t, batch.MerkleRoot)

	body, code = send(t, op, credentialrest.GetBatchPath, http.MethodGet,
		credentialrest.OperationID+"/batch/"+batch.MerkleRoot, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, gjson.Get(body.String(), "credentials").Array(), 2)

	body, code = send(t, op, credentialrest.GetCredentialsPath, http.MethodGet, credentialrest.GetCredentialsPath, nil)
	require.Equal(t, http.StatusOK, code)

	var records credentialcmd.RecordsResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &records))
	require.Len(t, records.Result, 2)

	id := records.Result[0].TargetHash

	body, code = send(t, op, credentialrest.GetCredentialPath, http.MethodGet, credentialrest.OperationID+"/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, id, gjson.Get(body.String(), "credential.proof.targetHash").String())

	body, code = send(t, op, credentialrest.GetCredentialPath, http.MethodGet, credentialrest.OperationID+"/abc", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body.String(), "credential not found")
}

func TestOperation_Sign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := mockcredential.NewMockSigner(ctrl)
	signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("did:ethr:0xabc#controller", "0x1234", nil)

	op := credentialrest.New(&mockprovider.Provider{SignerValue: signer})

	body, code := send(t, op, credentialrest.SignPath, http.MethodPost, credentialrest.SignPath,
		credentialcmd.SignRequest{Credential: wrap(t, op)})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "0x1234", gjson.Get(body.String(), "credential.proof.signature").String())
}

func TestOperation_InvalidRequest(t *testing.T) {
	op := credentialrest.New(&mockprovider.Provider{})

	for _, path := range []string{
		credentialrest.WrapPath,
		credentialrest.WrapBatchPath,
		credentialrest.VerifyPath,
		credentialrest.ObfuscatePath,
		credentialrest.DigestPath,
	} {
		handler := lookupHandler(t, op, path, http.MethodPost)

		body, code := sendRequestToHandler(t, handler, bytes.NewBufferString("--"), path)
		require.Equal(t, http.StatusBadRequest, code, path)
		require.Equal(t, int64(credentialcmd.InvalidRequestErrorCode), gjson.Get(body.String(), "code").Int(), path)
	}
}

func wrap(t *testing.T, op *credentialrest.Operation) json.RawMessage {
	t.Helper()

	body, code := send(t, op, credentialrest.WrapPath, http.MethodPost, credentialrest.WrapPath,
		credentialcmd.WrapRequest{Credential: credentialtest.RawTTJSON(), Variant: credential.VariantTTv4.String()})
	require.Equal(t, http.StatusOK, code)

	var response credentialcmd.CredentialResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &response))

	return response.Credential
}

func send(t *testing.T, op *credentialrest.Operation, path, method, url string, v interface{}) (*bytes.Buffer, int) {
	t.Helper()

	var reqBody io.Reader

	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)

		reqBody = bytes.NewReader(b)
	}

	return sendRequestToHandler(t, lookupHandler(t, op, path, method), reqBody, url)
}

func lookupHandler(t *testing.T, op *credentialrest.Operation, path, method string) rest.Handler {
	t.Helper()

	handlers := op.GetRESTHandlers()
	require.NotEmpty(t, handlers)

	for _, h := range handlers {
		if h.Path() == path && h.Method() == method {
			return h
		}
	}

	require.Fail(t, "unable to find handler")

	return nil
}

func sendRequestToHandler(t *testing.T, handler rest.Handler, requestBody io.Reader, path string) (*bytes.Buffer, int) {
	t.Helper()

	// prepare request
	req, err := http.NewRequestWithContext(context.Background(), handler.Method(), path, requestBody)
	require.NoError(t, err)

	// prepare router
	router := mux.NewRouter()

	router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())

	// create a ResponseRecorder (which satisfies http.ResponseWriter) to record the response.
	rr := httptest.NewRecorder()

	// serve http on given response and request
	router.ServeHTTP(rr, req)

	return rr.Body, rr.Code
}
