/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package provider

import (
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

// Provider mocks the context provider needed by the credential commands.
type Provider struct {
	StorageProviderValue storage.Provider
	ValidatorValue       credential.Validator
	SignerValue          credential.Signer
	WrapperValue         *credential.Wrapper
	CredentialStoreValue *credentialstore.Store
}

// StorageProvider returns the storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.StorageProviderValue
}

// Validator returns the schema validator.
func (p *Provider) Validator() credential.Validator {
	return p.ValidatorValue
}

// Signer returns the Merkle root signer.
func (p *Provider) Signer() credential.Signer {
	return p.SignerValue
}

// Wrapper returns the credential wrapper, a default one when none is set.
func (p *Provider) Wrapper() *credential.Wrapper {
	if p.WrapperValue == nil {
		return credential.NewWrapper()
	}

	return p.WrapperValue
}

// CredentialStore returns the credential store.
func (p *Provider) CredentialStore() *credentialstore.Store {
	return p.CredentialStoreValue
}
