/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/pkg/errors"

	"github.com/trustvc/vc-merkle/pkg/doc/credential"
)

const (
	// NameSpace for the wrapped credential store.
	NameSpace = "credential"

	variantTag    = "variant"
	merkleRootTag = "merkleRoot"
	kindTag       = "kind"
)

var logger = log.New("vc-merkle/store/credential")

// ErrNotFound signals that no credential is stored under the given target hash.
var ErrNotFound = errors.New("credential not found")

// Record describes a stored credential without loading it.
type Record struct {
	TargetHash string `json:"targetHash"`
	MerkleRoot string `json:"merkleRoot"`
	Variant    string `json:"variant"`
	Kind       string `json:"kind"`
}

// Store keeps wrapped and signed credentials keyed by their target hash.
type Store struct {
	store storage.Store
}

type provider interface {
	StorageProvider() storage.Provider
}

// New returns a new credential store.
func New(ctx provider) (*Store, error) {
	store, err := ctx.StorageProvider().OpenStore(NameSpace)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open credential store")
	}

	err = ctx.StorageProvider().SetStoreConfig(NameSpace,
		storage.StoreConfiguration{TagNames: []string{variantTag, merkleRootTag, kindTag}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to set store configuration")
	}

	return &Store{store: store}, nil
}

// Save stores a wrapped or signed credential and returns its target hash.
// Saving a credential again replaces the stored copy, e.g. after it was signed or obfuscated.
func (s *Store) Save(doc credential.Document) (string, error) {
	op, err := operation(doc)
	if err != nil {
		return "", err
	}

	err = s.store.Put(op.Key, op.Value, op.Tags...)
	if err != nil {
		return "", errors.Wrap(err, "failed to put credential")
	}

	logger.Debugf("stored credential %s", op.Key)

	return op.Key, nil
}

// SaveBatch stores the credentials of a batch in a single storage operation and returns their target hashes.
func (s *Store) SaveBatch(docs []credential.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	ops := make([]storage.Operation, len(docs))
	ids := make([]string, len(docs))

	for i, doc := range docs {
		op, err := operation(doc)
		if err != nil {
			return nil, fmt.Errorf("credential %d: %w", i, err)
		}

		ops[i] = op
		ids[i] = op.Key
	}

	if err := s.store.Batch(ops); err != nil {
		return nil, errors.Wrap(err, "failed to store credential batch")
	}

	logger.Debugf("stored batch of %d credentials", len(docs))

	return ids, nil
}

func operation(doc credential.Document) (storage.Operation, error) {
	variant, kind, err := credential.Classify(doc)
	if err != nil {
		return storage.Operation{}, err
	}

	if kind == credential.KindRaw {
		return storage.Operation{}, fmt.Errorf("save credential: %w", credential.ErrNoProof)
	}

	p, err := credential.ProofOf(doc)
	if err != nil {
		return storage.Operation{}, err
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return storage.Operation{}, errors.Wrap(err, "failed to marshal credential")
	}

	return storage.Operation{
		Key:   p.TargetHash,
		Value: docBytes,
		Tags: []storage.Tag{
			{Name: variantTag, Value: variant.String()},
			{Name: merkleRootTag, Value: p.MerkleRoot},
			{Name: kindTag, Value: kind.String()},
		},
	}, nil
}

// Get retrieves a credential by target hash.
func (s *Store) Get(targetHash string) (credential.Document, error) {
	docBytes, err := s.store.Get(targetHash)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, targetHash)
		}

		return nil, errors.Wrap(err, "failed to get credential")
	}

	doc, err := credential.Parse(docBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse stored credential")
	}

	return doc, nil
}

// GetByMerkleRoot retrieves every credential wrapped in the batch with the given Merkle root.
func (s *Store) GetByMerkleRoot(root string) ([]credential.Document, error) {
	var docs []credential.Document

	err := s.query(fmt.Sprintf("%s:%s", merkleRootTag, root), func(_ string, value []byte, _ []storage.Tag) error {
		doc, err := credential.Parse(value)
		if err != nil {
			return errors.Wrap(err, "failed to parse stored credential")
		}

		docs = append(docs, doc)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Records lists every stored credential.
func (s *Store) Records() ([]*Record, error) {
	var records []*Record

	err := s.query(variantTag, func(key string, _ []byte, tags []storage.Tag) error {
		record := &Record{TargetHash: key}

		for _, tag := range tags {
			switch tag.Name {
			case variantTag:
				record.Variant = tag.Value
			case merkleRootTag:
				record.MerkleRoot = tag.Value
			case kindTag:
				record.Kind = tag.Value
			}
		}

		records = append(records, record)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes the credential stored under targetHash.
func (s *Store) Delete(targetHash string) error {
	if err := s.store.Delete(targetHash); err != nil {
		return errors.Wrap(err, "failed to delete credential")
	}

	return nil
}

func (s *Store) query(expression string, fn func(key string, value []byte, tags []storage.Tag) error) error {
	itr, err := s.store.Query(expression)
	if err != nil {
		return errors.Wrap(err, "failed to query credentials")
	}

	defer func() {
		errClose := itr.Close()
		if errClose != nil {
			logger.Errorf("failed to close iterator: %s", errClose.Error())
		}
	}()

	more, err := itr.Next()
	if err != nil {
		return errors.Wrap(err, "failed to get next credential")
	}

	for more {
		key, err := itr.Key()
		if err != nil {
			return errors.Wrap(err, "failed to get credential key")
		}

		value, err := itr.Value()
		if err != nil {
			return errors.Wrap(err, "failed to get credential value")
		}

		tags, err := itr.Tags()
		if err != nil {
			return errors.Wrap(err, "failed to get credential tags")
		}

		if err := fn(key, value, tags); err != nil {
			return err
		}

		more, err = itr.Next()
		if err != nil {
			return errors.Wrap(err, "failed to get next credential")
		}
	}

	return nil
}
