/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context creates a Provider holding the services shared by the credential commands
// and provides simple accessor methods to those same services.
package context

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

// Provider supplies the service configuration to client objects.
type Provider struct {
	storeProvider   storage.Provider
	validator       credential.Validator
	signer          credential.Signer
	wrapperOpts     []credential.Opt
	wrapper         *credential.Wrapper
	credentialStore *credentialstore.Store
}

// ProviderOption configures the framework.
type ProviderOption func(opts *Provider) error

// New instantiates a new context provider.
func New(opts ...ProviderOption) (*Provider, error) {
	ctxProvider := Provider{}

	for _, opt := range opts {
		err := opt(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("option failed: %w", err)
		}
	}

	wrapperOpts := ctxProvider.wrapperOpts
	if ctxProvider.validator != nil {
		wrapperOpts = append(wrapperOpts, credential.WithValidator(ctxProvider.validator))
	}

	ctxProvider.wrapper = credential.NewWrapper(wrapperOpts...)

	if ctxProvider.storeProvider != nil {
		store, err := credentialstore.New(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("initialize context credential store: %w", err)
		}

		ctxProvider.credentialStore = store
	}

	return &ctxProvider, nil
}

// StorageProvider returns the storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.storeProvider
}

// Validator returns the schema validator run when wrapping, or nil.
func (p *Provider) Validator() credential.Validator {
	return p.validator
}

// Signer returns the Merkle root signer, or nil when signing is not configured.
func (p *Provider) Signer() credential.Signer {
	return p.signer
}

// Wrapper returns the credential wrapper configured on this context.
func (p *Provider) Wrapper() *credential.Wrapper {
	return p.wrapper
}

// CredentialStore returns the wrapped credential store, or nil without a storage provider.
func (p *Provider) CredentialStore() *credentialstore.Store {
	return p.credentialStore
}

// WithStorageProvider injects a storage provider into the context.
func WithStorageProvider(s storage.Provider) ProviderOption {
	return func(opts *Provider) error {
		opts.storeProvider = s
		return nil
	}
}

// WithValidator injects the schema validator run on every wrapped credential.
func WithValidator(v credential.Validator) ProviderOption {
	return func(opts *Provider) error {
		opts.validator = v
		return nil
	}
}

// WithSigner injects a Merkle root signer into the context.
func WithSigner(s credential.Signer) ProviderOption {
	return func(opts *Provider) error {
		opts.signer = s
		return nil
	}
}

// WithBatchConcurrency limits the number of credentials of a batch prepared in parallel.
func WithBatchConcurrency(n int) ProviderOption {
	return func(opts *Provider) error {
		if n < 0 {
			return fmt.Errorf("invalid batch concurrency %d", n)
		}

		if n > 0 {
			opts.wrapperOpts = append(opts.wrapperOpts, credential.WithConcurrency(n))
		}

		return nil
	}
}

// WithGeneratedIDs assigns a urn:uuid id to wrapped credentials that have none.
func WithGeneratedIDs() ProviderOption {
	return func(opts *Provider) error {
		opts.wrapperOpts = append(opts.wrapperOpts, credential.WithGeneratedID())
		return nil
	}
}
