/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstore "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/trustvc/vc-merkle/pkg/controller/command"
	credentialcmd "github.com/trustvc/vc-merkle/pkg/controller/command/credential"
	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	"github.com/trustvc/vc-merkle/internal/credentialtest"
	mockcommand "github.com/trustvc/vc-merkle/pkg/internal/gomocks/controller/command"
	mockcredential "github.com/trustvc/vc-merkle/pkg/internal/gomocks/doc/credential"
	mockprovider "github.com/trustvc/vc-merkle/pkg/mock/provider"
	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

const (
	signerKey = "did:ethr:0xE712878f6E8d5d4F9e87E10DA604F9cB564C9a89#controller"
	signature = "0x5a8a6f3d"
)

func newStore(t *testing.T) *credentialstore.Store {
	t.Helper()

	s, err := credentialstore.New(&mockprovider.Provider{StorageProviderValue: mem.NewProvider()})
	require.NoError(t, err)

	return s
}

func request(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(b)
}

func wrapTT(t *testing.T, cmd *credentialcmd.Command) json.RawMessage {
	t.Helper()

	var rw bytes.Buffer

	cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{
		Credential: credentialtest.RawTTJSON(),
		Variant:    credential.VariantTTv4.String(),
	}))
	require.NoError(t, cmdErr)

	var response credentialcmd.CredentialResponse
	require.NoError(t, json.Unmarshal(rw.Bytes(), &response))

	return response.Credential
}

func verify(t *testing.T, cmd *credentialcmd.Command, raw json.RawMessage) credentialcmd.VerifyResponse {
	t.Helper()

	var rw bytes.Buffer

	cmdErr := cmd.Verify(&rw, request(t, credentialcmd.CredentialRequest{Credential: raw}))
	require.NoError(t, cmdErr)

	var response credentialcmd.VerifyResponse
	require.NoError(t, json.Unmarshal(rw.Bytes(), &response))

	return response
}

func TestCommand_GetHandlers(t *testing.T) {
	cmd := credentialcmd.New(&mockprovider.Provider{})
	require.Equal(t, 9, len(cmd.GetHandlers()))

	for _, h := range cmd.GetHandlers() {
		require.Equal(t, credentialcmd.CommandName, h.Name())
		require.NotEmpty(t, h.Method())
		require.NotNil(t, h.Handle())
	}
}

func TestCommand_Notify(t *testing.T) {
	decodeEvent := func(t *testing.T, msg []byte) credentialcmd.Event {
		t.Helper()

		var event credentialcmd.Event
		require.NoError(t, json.Unmarshal(msg, &event))

		return event
	}

	t.Run("wrap, obfuscate and sign events", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var events []credentialcmd.Event

		notifier := mockcommand.NewMockNotifier(ctrl)
		notifier.EXPECT().Notify(credentialcmd.Topic, gomock.Any()).DoAndReturn(func(_ string, msg []byte) error {
			events = append(events, decodeEvent(t, msg))

			return nil
		}).Times(3)

		signer := mockcredential.NewMockSigner(ctrl)
		signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signerKey, signature, nil)

		cmd := credentialcmd.New(&mockprovider.Provider{SignerValue: signer}, credentialcmd.WithNotifier(notifier))
		raw := wrapTT(t, cmd)

		var rw bytes.Buffer
		cmdErr := cmd.Obfuscate(&rw, request(t, credentialcmd.ObfuscateRequest{Credential: raw, Fields: []string{"key1"}}))
		require.NoError(t, cmdErr)

		rw.Reset()
		cmdErr = cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: raw}))
		require.NoError(t, cmdErr)

		require.Len(t, events, 3)
		require.Equal(t, credentialcmd.WrapCommandMethod, events[0].Action)
		require.Equal(t, credentialcmd.ObfuscateCommandMethod, events[1].Action)
		require.Equal(t, credentialcmd.SignCommandMethod, events[2].Action)

		targetHash := gjson.GetBytes(raw, "proof.targetHash").String()

		for i, event := range events {
			require.Equal(t, credential.VariantTTv4.String(), event.Variant)
			require.Equal(t, targetHash, event.TargetHash)
			require.Equal(t, targetHash, event.MerkleRoot)
			require.Equal(t, 1, event.Count)

			if i < 2 {
				require.Equal(t, credential.KindWrapped.String(), event.Kind)
			}
		}

		require.Equal(t, credential.KindSigned.String(), events[2].Kind)
	})

	t.Run("batch event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		done := make(chan credentialcmd.Event, 1)

		notifier := mockcommand.NewMockNotifier(ctrl)
		notifier.EXPECT().Notify(credentialcmd.Topic, gomock.Any()).DoAndReturn(func(_ string, msg []byte) error {
			done <- decodeEvent(t, msg)

			return nil
		})

		cmd := credentialcmd.New(&mockprovider.Provider{}, credentialcmd.WithNotifier(notifier))

		var rw bytes.Buffer
		cmdErr := cmd.WrapBatch(&rw, request(t, credentialcmd.WrapBatchRequest{
			Credentials: []json.RawMessage{credentialtest.RawTTJSON(), credentialtest.RawTTJSON()},
			Variant:     credential.VariantTTv4.String(),
		}))
		require.NoError(t, cmdErr)

		event := <-done
		require.Equal(t, credentialcmd.WrapBatchCommandMethod, event.Action)
		require.Equal(t, 2, event.Count)
		require.Empty(t, event.TargetHash)
		require.Equal(t, gjson.GetBytes(rw.Bytes(), "merkleRoot").String(), event.MerkleRoot)
	})

	t.Run("notifier failure does not fail the command", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		notifier := mockcommand.NewMockNotifier(ctrl)
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("webhook down"))

		cmd := credentialcmd.New(&mockprovider.Provider{}, credentialcmd.WithNotifier(notifier))
		require.True(t, verify(t, cmd, wrapTT(t, cmd)).Verified)
	})
}

func TestCommand_Wrap(t *testing.T) {
	t.Run("wrap with explicit variant", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		raw := wrapTT(t, cmd)
		require.Equal(t, "TradeTrustMerkleProofSignature2018", gjson.GetBytes(raw, "proof.type").String())
		require.True(t, verify(t, cmd, raw).Verified)
	})

	t.Run("wrap with variant derived from type", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{Credential: credentialtest.RawTTJSON()}))
		require.NoError(t, cmdErr)
		require.Equal(t, "TradeTrustMerkleProofSignature2018",
			gjson.GetBytes(rw.Bytes(), "credential.proof.type").String())
	})

	t.Run("wrap and save", func(t *testing.T) {
		store := newStore(t)
		cmd := credentialcmd.New(&mockprovider.Provider{CredentialStoreValue: store})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{
			Credential: credentialtest.RawOAJSON(),
			Variant:    credential.VariantOAv4.String(),
			Save:       true,
		}))
		require.NoError(t, cmdErr)

		targetHash := gjson.GetBytes(rw.Bytes(), "credential.proof.targetHash").String()

		doc, err := store.Get(targetHash)
		require.NoError(t, err)
		require.Equal(t, "https://w3id.org/traceability/v1", doc["@context"].([]interface{})[2])
	})

	t.Run("variant cannot be derived", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{Credential: credentialtest.RawOAJSON()}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ValidationError, cmdErr.Type())
		require.Equal(t, credentialcmd.InvalidRequestErrorCode, cmdErr.Code())
		require.True(t, errors.Is(cmdErr, credential.ErrUnsupportedDocument))
	})

	t.Run("invalid requests", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		tests := []struct {
			name string
			req  string
			err  string
		}{
			{"not json", "--", "request decode"},
			{"no credential", `{"variant":"tt-v4"}`, "credential is mandatory"},
			{"credential not an object", `{"credential":[1,2]}`, "parse credential"},
			{"unknown variant", `{"credential":{"a":1},"variant":"oa-v3"}`, `variant "oa-v3"`},
			{"save without store", `{"credential":{"a":1},"variant":"tt-v4","save":true}`, "not configured"},
		}

		for _, tc := range tests {
			var rw bytes.Buffer
			cmdErr := cmd.Wrap(&rw, strings.NewReader(tc.req))
			require.Error(t, cmdErr, tc.name)
			require.Contains(t, cmdErr.Error(), tc.err, tc.name)
			require.Equal(t, command.ValidationError, cmdErr.Type(), tc.name)
		}
	})

	t.Run("already wrapped", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{Credential: wrapTT(t, cmd)}))
		require.Error(t, cmdErr)
		require.Equal(t, credentialcmd.WrapCredentialErrorCode, cmdErr.Code())
		require.True(t, errors.Is(cmdErr, credential.ErrAlreadyWrapped))
	})

	t.Run("schema validation failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		violations := []credential.ValidationError{
			{Keyword: "required", InstancePath: "", Message: "issuer is required"},
		}

		validator := mockcredential.NewMockValidator(ctrl)
		validator.EXPECT().Validate(gomock.Any(), credential.VariantTTv4).Return(violations, nil)

		cmd := credentialcmd.New(&mockprovider.Provider{
			WrapperValue: credential.NewWrapper(credential.WithValidator(validator)),
		})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{Credential: credentialtest.RawTTJSON()}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ValidationError, cmdErr.Type())
		require.Equal(t, credentialcmd.SchemaValidationErrorCode, cmdErr.Code())
		require.Contains(t, cmdErr.Error(), "issuer is required")

		detailed, ok := cmdErr.(interface{ Details() interface{} })
		require.True(t, ok)
		require.Equal(t, violations, detailed.Details())
	})

	t.Run("validator failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		validator := mockcredential.NewMockValidator(ctrl)
		validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("schema unavailable"))

		cmd := credentialcmd.New(&mockprovider.Provider{
			WrapperValue: credential.NewWrapper(credential.WithValidator(validator)),
		})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{Credential: credentialtest.RawTTJSON()}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Contains(t, cmdErr.Error(), "schema unavailable")
	})
}

func TestCommand_WrapBatch(t *testing.T) {
	t.Run("wrap, save and get batch", func(t *testing.T) {
		store := newStore(t)
		cmd := credentialcmd.New(&mockprovider.Provider{CredentialStoreValue: store})

		raws := make([]json.RawMessage, 3)
		for i := range raws {
			raw, err := sjson.SetBytes(credentialtest.RawTTJSON(), "key1", fmt.Sprintf("value-%d", i))
			require.NoError(t, err)

			raws[i] = raw
		}

		var rw bytes.Buffer
		cmdErr := cmd.WrapBatch(&rw, request(t, credentialcmd.WrapBatchRequest{
			Credentials: raws,
			Variant:     credential.VariantTTv4.String(),
			Save:        true,
		}))
		require.NoError(t, cmdErr)

		var response credentialcmd.BatchResponse
		require.NoError(t, json.Unmarshal(rw.Bytes(), &response))
		require.Len(t, response.Credentials, 3)
		require.Regexp(t, "^[0-9a-f]{64}$", response.MerkleRoot)

		for i, raw := range response.Credentials {
			require.Equal(t, fmt.Sprintf("value-%d", i), gjson.GetBytes(raw, "key1").String())
			require.Equal(t, response.MerkleRoot, gjson.GetBytes(raw, "proof.merkleRoot").String())
			require.NotEmpty(t, gjson.GetBytes(raw, "proof.proofs").Array())
			require.True(t, verify(t, cmd, raw).Verified)
		}

		rw.Reset()
		cmdErr = cmd.GetBatch(&rw, request(t, credentialcmd.MerkleRootArg{MerkleRoot: response.MerkleRoot}))
		require.NoError(t, cmdErr)

		var batch credentialcmd.BatchResponse
		require.NoError(t, json.Unmarshal(rw.Bytes(), &batch))
		require.Len(t, batch.Credentials, 3)
		require.Equal(t, response.MerkleRoot, batch.MerkleRoot)
	})

	t.Run("store batch failure", func(t *testing.T) {
		store, err := credentialstore.New(&mockprovider.Provider{
			StorageProviderValue: mockstore.NewCustomMockStoreProvider(&mockstore.MockStore{
				Store:    make(map[string]mockstore.DBEntry),
				ErrBatch: errors.New("batch error"),
			}),
		})
		require.NoError(t, err)

		cmd := credentialcmd.New(&mockprovider.Provider{CredentialStoreValue: store})

		var rw bytes.Buffer
		cmdErr := cmd.WrapBatch(&rw, request(t, credentialcmd.WrapBatchRequest{
			Credentials: []json.RawMessage{credentialtest.RawTTJSON()},
			Variant:     credential.VariantTTv4.String(),
			Save:        true,
		}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Equal(t, credentialcmd.SaveCredentialErrorCode, cmdErr.Code())
		require.Contains(t, cmdErr.Error(), "batch error")
		require.Empty(t, rw.Bytes())
	})

	t.Run("invalid requests", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		tests := []struct {
			name string
			req  string
			err  string
		}{
			{"not json", "--", "request decode"},
			{"no credentials", `{"variant":"tt-v4"}`, "credential is mandatory"},
			{"no variant", `{"credentials":[{"a":1}]}`, "variant"},
			{"save without store", `{"credentials":[{"a":1}],"variant":"tt-v4","save":true}`, "not configured"},
			{"bad credential", `{"credentials":[{"a":1},"x"],"variant":"tt-v4"}`, "parse credential"},
		}

		for _, tc := range tests {
			var rw bytes.Buffer
			cmdErr := cmd.WrapBatch(&rw, strings.NewReader(tc.req))
			require.Error(t, cmdErr, tc.name)
			require.Contains(t, cmdErr.Error(), tc.err, tc.name)
		}
	})
}

func TestCommand_Verify(t *testing.T) {
	cmd := credentialcmd.New(&mockprovider.Provider{})
	raw := wrapTT(t, cmd)

	t.Run("untouched", func(t *testing.T) {
		response := verify(t, cmd, raw)
		require.True(t, response.Verified)
		require.Equal(t, "tt-v4", response.Variant)
		require.Equal(t, "wrapped", response.Kind)
		require.Equal(t, gjson.GetBytes(raw, "proof.targetHash").String(), response.TargetHash)
		require.Equal(t, response.TargetHash, response.MerkleRoot)
	})

	t.Run("tampered", func(t *testing.T) {
		for p, v := range map[string]interface{}{
			"credentialSubject.name":   "Forged",
			"credentialSubject.amount": 1,
			"key1":                     nil,
			"proof.merkleRoot":         strings.Repeat("a", 64),
		} {
			modified, err := sjson.SetBytes(raw, p, v)
			require.NoError(t, err)
			require.False(t, verify(t, cmd, modified).Verified, p)
		}
	})

	t.Run("raw credential", func(t *testing.T) {
		response := verify(t, cmd, credentialtest.RawTTJSON())
		require.False(t, response.Verified)
		require.Equal(t, "raw", response.Kind)
		require.Empty(t, response.TargetHash)
	})

	t.Run("invalid request", func(t *testing.T) {
		var rw bytes.Buffer
		cmdErr := cmd.Verify(&rw, strings.NewReader(`{}`))
		require.Error(t, cmdErr)
		require.Contains(t, cmdErr.Error(), "credential is mandatory")
	})
}

func TestCommand_Obfuscate(t *testing.T) {
	cmd := credentialcmd.New(&mockprovider.Provider{})
	raw := wrapTT(t, cmd)

	t.Run("success", func(t *testing.T) {
		var rw bytes.Buffer
		cmdErr := cmd.Obfuscate(&rw, request(t, credentialcmd.ObfuscateRequest{
			Credential: raw,
			Fields:     []string{"key1", "credentialSubject.arrayOfObject[0]"},
		}))
		require.NoError(t, cmdErr)

		var response credentialcmd.CredentialResponse
		require.NoError(t, json.Unmarshal(rw.Bytes(), &response))
		require.False(t, gjson.GetBytes(response.Credential, "key1").Exists())
		require.Len(t, gjson.GetBytes(response.Credential, "proof.privacy.obfuscated").Array(), 3)
		require.Equal(t, gjson.GetBytes(raw, "proof.targetHash").String(),
			gjson.GetBytes(response.Credential, "proof.targetHash").String())
		require.True(t, verify(t, cmd, response.Credential).Verified)
	})

	t.Run("invalid requests", func(t *testing.T) {
		tests := []struct {
			name string
			req  credentialcmd.ObfuscateRequest
			err  string
		}{
			{"no fields", credentialcmd.ObfuscateRequest{Credential: raw}, "at least one field"},
			{"proof field", credentialcmd.ObfuscateRequest{Credential: raw, Fields: []string{"proof.salts"}}, "proof"},
			{"bad path", credentialcmd.ObfuscateRequest{Credential: raw, Fields: []string{"a..b"}}, "invalid path"},
			{
				"raw credential",
				credentialcmd.ObfuscateRequest{Credential: credentialtest.RawTTJSON(), Fields: []string{"key1"}},
				"no proof",
			},
		}

		for _, tc := range tests {
			var rw bytes.Buffer
			cmdErr := cmd.Obfuscate(&rw, request(t, tc.req))
			require.Error(t, cmdErr, tc.name)
			require.Contains(t, cmdErr.Error(), tc.err, tc.name)
			require.Equal(t, command.ValidationError, cmdErr.Type(), tc.name)
		}

		var rw bytes.Buffer
		require.Error(t, cmd.Obfuscate(&rw, strings.NewReader("--")))
	})
}

func TestCommand_Digest(t *testing.T) {
	cmd := credentialcmd.New(&mockprovider.Provider{})
	raw := wrapTT(t, cmd)

	var rw bytes.Buffer
	cmdErr := cmd.Digest(&rw, request(t, credentialcmd.CredentialRequest{Credential: raw}))
	require.NoError(t, cmdErr)

	var response credentialcmd.DigestResponse
	require.NoError(t, json.Unmarshal(rw.Bytes(), &response))
	require.Equal(t, response.TargetHash, response.Digest)

	modified, err := sjson.SetBytes(raw, "key1", "changed")
	require.NoError(t, err)

	rw.Reset()
	cmdErr = cmd.Digest(&rw, request(t, credentialcmd.CredentialRequest{Credential: modified}))
	require.NoError(t, cmdErr)
	require.NoError(t, json.Unmarshal(rw.Bytes(), &response))
	require.NotEqual(t, response.TargetHash, response.Digest)

	modified, err = sjson.SetBytes(raw, "unsalted", "x")
	require.NoError(t, err)

	rw.Reset()
	cmdErr = cmd.Digest(&rw, request(t, credentialcmd.CredentialRequest{Credential: modified}))
	require.Error(t, cmdErr)
	require.True(t, errors.Is(cmdErr, credential.ErrSaltNotFound))

	rw.Reset()
	cmdErr = cmd.Digest(&rw, request(t, credentialcmd.CredentialRequest{Credential: credentialtest.RawTTJSON()}))
	require.Error(t, cmdErr)
	require.True(t, errors.Is(cmdErr, credential.ErrNoProof))
}

func TestCommand_Sign(t *testing.T) {
	t.Run("sign and save", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		signer := mockcredential.NewMockSigner(ctrl)
		signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signerKey, signature, nil)

		store := newStore(t)
		cmd := credentialcmd.New(&mockprovider.Provider{SignerValue: signer, CredentialStoreValue: store})
		raw := wrapTT(t, cmd)

		var rw bytes.Buffer
		cmdErr := cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: raw, Save: true}))
		require.NoError(t, cmdErr)

		var response credentialcmd.CredentialResponse
		require.NoError(t, json.Unmarshal(rw.Bytes(), &response))
		require.Equal(t, signerKey, gjson.GetBytes(response.Credential, "proof.key").String())
		require.Equal(t, signature, gjson.GetBytes(response.Credential, "proof.signature").String())
		require.Equal(t, "signed", verify(t, cmd, response.Credential).Kind)

		rw.Reset()
		cmdErr = cmd.GetCredentials(&rw, nil)
		require.NoError(t, cmdErr)
		require.Equal(t, "signed", gjson.GetBytes(rw.Bytes(), "result.0.kind").String())

		rw.Reset()
		cmdErr = cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: response.Credential}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ValidationError, cmdErr.Type())
		require.Contains(t, cmdErr.Error(), "Document has been signed")
	})

	t.Run("signer not configured", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		var rw bytes.Buffer
		cmdErr := cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: wrapTT(t, cmd)}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Contains(t, cmdErr.Error(), "signer is not configured")
	})

	t.Run("signer failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		signer := mockcredential.NewMockSigner(ctrl)
		signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("", "", fmt.Errorf("wallet locked"))

		cmd := credentialcmd.New(&mockprovider.Provider{SignerValue: signer})

		var rw bytes.Buffer
		cmdErr := cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: wrapTT(t, cmd)}))
		require.Error(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Contains(t, cmdErr.Error(), "wallet locked")
	})

	t.Run("invalid requests", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cmd := credentialcmd.New(&mockprovider.Provider{SignerValue: mockcredential.NewMockSigner(ctrl)})

		var rw bytes.Buffer
		require.Error(t, cmd.Sign(&rw, strings.NewReader("--")))
		require.Error(t, cmd.Sign(&rw, request(t, credentialcmd.SignRequest{})))

		cmdErr := cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: wrapTT(t, cmd), Save: true}))
		require.Error(t, cmdErr)
		require.Contains(t, cmdErr.Error(), "not configured")

		cmdErr = cmd.Sign(&rw, request(t, credentialcmd.SignRequest{Credential: credentialtest.RawTTJSON()}))
		require.Error(t, cmdErr)
		require.True(t, errors.Is(cmdErr, credential.ErrNoProof))
	})
}

func TestCommand_GetCredential(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := newStore(t)
		cmd := credentialcmd.New(&mockprovider.Provider{CredentialStoreValue: store})

		var rw bytes.Buffer
		cmdErr := cmd.Wrap(&rw, request(t, credentialcmd.WrapRequest{Credential: credentialtest.RawTTJSON(), Save: true}))
		require.NoError(t, cmdErr)

		targetHash := gjson.GetBytes(rw.Bytes(), "credential.proof.targetHash").String()

		rw.Reset()
		cmdErr = cmd.GetCredential(&rw, request(t, credentialcmd.IDArg{ID: targetHash}))
		require.NoError(t, cmdErr)
		require.Equal(t, targetHash, gjson.GetBytes(rw.Bytes(), "credential.proof.targetHash").String())

		rw.Reset()
		cmdErr = cmd.GetCredentials(&rw, nil)
		require.NoError(t, cmdErr)

		var records credentialcmd.RecordsResponse
		require.NoError(t, json.Unmarshal(rw.Bytes(), &records))
		require.Len(t, records.Result, 1)
		require.Equal(t, targetHash, records.Result[0].TargetHash)
		require.Equal(t, "tt-v4", records.Result[0].Variant)
	})

	t.Run("not found", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{CredentialStoreValue: newStore(t)})

		var rw bytes.Buffer
		cmdErr := cmd.GetCredential(&rw, request(t, credentialcmd.IDArg{ID: "abc"}))
		require.Error(t, cmdErr)
		require.Equal(t, credentialcmd.GetCredentialErrorCode, cmdErr.Code())
		require.True(t, errors.Is(cmdErr, credentialstore.ErrNotFound))
	})

	t.Run("invalid requests", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{CredentialStoreValue: newStore(t)})

		var rw bytes.Buffer
		require.Error(t, cmd.GetCredential(&rw, strings.NewReader("--")))
		require.Error(t, cmd.GetCredential(&rw, request(t, credentialcmd.IDArg{})))
		require.Error(t, cmd.GetBatch(&rw, strings.NewReader("--")))
		require.Error(t, cmd.GetBatch(&rw, request(t, credentialcmd.MerkleRootArg{})))
	})

	t.Run("store not configured", func(t *testing.T) {
		cmd := credentialcmd.New(&mockprovider.Provider{})

		var rw bytes.Buffer

		for _, cmdErr := range []command.Error{
			cmd.GetCredential(&rw, request(t, credentialcmd.IDArg{ID: "abc"})),
			cmd.GetCredentials(&rw, nil),
			cmd.GetBatch(&rw, request(t, credentialcmd.MerkleRootArg{MerkleRoot: "abc"})),
		} {
			require.Error(t, cmdErr)
			require.Equal(t, command.ExecuteError, cmdErr.Type())
			require.Contains(t, cmdErr.Error(), "credential store is not configured")
		}
	})
}
