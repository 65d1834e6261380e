/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/tidwall/gjson"

	"github.com/trustvc/vc-merkle/pkg/controller/command"
	"github.com/trustvc/vc-merkle/pkg/controller/internal/cmdutil"
	"github.com/trustvc/vc-merkle/pkg/doc/credential"
	"github.com/trustvc/vc-merkle/pkg/doc/privacy"
	"github.com/trustvc/vc-merkle/pkg/internal/logutil"
	credentialstore "github.com/trustvc/vc-merkle/pkg/store/credential"
)

const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Credential)

	// WrapCredentialErrorCode is for failures in wrap command.
	WrapCredentialErrorCode

	// SchemaValidationErrorCode is for wrapped credentials rejected by the schema validator.
	SchemaValidationErrorCode

	// VerifyCredentialErrorCode is for failures in verify command.
	VerifyCredentialErrorCode

	// ObfuscateCredentialErrorCode is for failures in obfuscate command.
	ObfuscateCredentialErrorCode

	// DigestCredentialErrorCode is for failures in digest command.
	DigestCredentialErrorCode

	// SignCredentialErrorCode is for failures in sign command.
	SignCredentialErrorCode
)

const (
	// SaveCredentialErrorCode is for failures storing a credential.
	SaveCredentialErrorCode = command.Code(iota + command.Store)

	// GetCredentialErrorCode is for failures in get credential command.
	GetCredentialErrorCode

	// GetCredentialsErrorCode is for failures in get credentials command.
	GetCredentialsErrorCode

	// GetBatchErrorCode is for failures in get batch command.
	GetBatchErrorCode
)

const (
	// CommandName is a base command name for credential operations.
	CommandName = "credential"

	// Topic is the notification topic of credential events.
	Topic = "credential"

	// WrapCommandMethod is a command method for wrapping a credential.
	WrapCommandMethod = "Wrap"

	// WrapBatchCommandMethod is a command method for wrapping credentials under one Merkle root.
	WrapBatchCommandMethod = "WrapBatch"

	// VerifyCommandMethod is a command method for verifying a credential.
	VerifyCommandMethod = "Verify"

	// ObfuscateCommandMethod is a command method for removing fields from a credential.
	ObfuscateCommandMethod = "Obfuscate"

	// DigestCommandMethod is a command method for recomputing a credential digest.
	DigestCommandMethod = "Digest"

	// SignCommandMethod is a command method for signing the Merkle root of a credential.
	SignCommandMethod = "Sign"

	// GetCredentialCommandMethod is a command method for getting a stored credential.
	GetCredentialCommandMethod = "GetCredential"

	// GetCredentialsCommandMethod is a command method for listing stored credentials.
	GetCredentialsCommandMethod = "GetCredentials"

	// GetBatchCommandMethod is a command method for getting the stored credentials of a batch.
	GetBatchCommandMethod = "GetBatch"

	// error messages.
	errEmptyCredential     = "credential is mandatory"
	errEmptyID             = "id is mandatory"
	errEmptyMerkleRoot     = "merkle root is mandatory"
	errEmptyFields         = "at least one field is required"
	errStoreNotConfigured  = "credential store is not configured"
	errSignerNotConfigured = "signer is not configured"
)

var logger = log.New("vc-merkle/command/credential")

type provider interface {
	Wrapper() *credential.Wrapper
	Signer() credential.Signer
	CredentialStore() *credentialstore.Store
}

// Command contains command operations provided by the credential controller.
type Command struct {
	wrapper  *credential.Wrapper
	signer   credential.Signer
	store    *credentialstore.Store
	notifier command.Notifier
}

// Option configures the credential command.
type Option func(c *Command)

// WithNotifier publishes an Event under Topic for every wrapped, obfuscated or signed credential.
func WithNotifier(n command.Notifier) Option {
	return func(c *Command) {
		c.notifier = n
	}
}

// New returns new credential controller command instance.
func New(p provider, opts ...Option) *Command {
	c := &Command{
		wrapper: p.Wrapper(),
		signer:  p.Signer(),
		store:   p.CredentialStore(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, WrapCommandMethod, c.Wrap),
		cmdutil.NewCommandHandler(CommandName, WrapBatchCommandMethod, c.WrapBatch),
		cmdutil.NewCommandHandler(CommandName, VerifyCommandMethod, c.Verify),
		cmdutil.NewCommandHandler(CommandName, ObfuscateCommandMethod, c.Obfuscate),
		cmdutil.NewCommandHandler(CommandName, DigestCommandMethod, c.Digest),
		cmdutil.NewCommandHandler(CommandName, SignCommandMethod, c.Sign),
		cmdutil.NewCommandHandler(CommandName, GetCredentialCommandMethod, c.GetCredential),
		cmdutil.NewCommandHandler(CommandName, GetCredentialsCommandMethod, c.GetCredentials),
		cmdutil.NewCommandHandler(CommandName, GetBatchCommandMethod, c.GetBatch),
	}
}

// Wrap salts, digests and attaches a proof to a raw credential.
func (c *Command) Wrap(rw io.Writer, req io.Reader) command.Error {
	var request WrapRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return validationError(WrapCommandMethod, InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	doc, variant, cmdErr := parseRaw(WrapCommandMethod, request.Credential, request.Variant)
	if cmdErr != nil {
		return cmdErr
	}

	if request.Save && c.store == nil {
		return validationError(WrapCommandMethod, InvalidRequestErrorCode, errors.New(errStoreNotConfigured))
	}

	wrapped, err := c.wrapper.Wrap(context.Background(), doc, variant)
	if err != nil {
		return wrapError(WrapCommandMethod, err)
	}

	if request.Save {
		if cmdErr := c.save(WrapCommandMethod, wrapped); cmdErr != nil {
			return cmdErr
		}
	}

	raw, err := json.Marshal(wrapped)
	if err != nil {
		return executeError(WrapCommandMethod, WrapCredentialErrorCode, fmt.Errorf("marshal credential : %w", err))
	}

	command.WriteNillableResponse(rw, &CredentialResponse{Credential: raw}, logger)

	c.notify(WrapCommandMethod, wrapped)

	logutil.LogDebug(logger, CommandName, WrapCommandMethod, "success",
		logutil.CreateKeyValueString("variant", variant.String()))

	return nil
}

// WrapBatch wraps raw credentials of one variant under a shared Merkle root.
func (c *Command) WrapBatch(rw io.Writer, req io.Reader) command.Error {
	var request WrapBatchRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return validationError(WrapBatchCommandMethod, InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if len(request.Credentials) == 0 {
		return validationError(WrapBatchCommandMethod, InvalidRequestErrorCode, errors.New(errEmptyCredential))
	}

	variant, err := credential.ParseVariant(request.Variant)
	if err != nil {
		return validationError(WrapBatchCommandMethod, InvalidRequestErrorCode, err)
	}

	if request.Save && c.store == nil {
		return validationError(WrapBatchCommandMethod, InvalidRequestErrorCode, errors.New(errStoreNotConfigured))
	}

	docs := make([]credential.Document, len(request.Credentials))

	for i, raw := range request.Credentials {
		doc, _, cmdErr := parseRaw(WrapBatchCommandMethod, raw, variant.String())
		if cmdErr != nil {
			return cmdErr
		}

		docs[i] = doc
	}

	wrapped, err := c.wrapper.WrapBatch(context.Background(), docs, variant)
	if err != nil {
		return wrapError(WrapBatchCommandMethod, err)
	}

	if request.Save {
		if _, err := c.store.SaveBatch(wrapped); err != nil {
			return executeError(WrapBatchCommandMethod, SaveCredentialErrorCode, fmt.Errorf("save credentials : %w", err))
		}
	}

	response := &BatchResponse{Credentials: make([]json.RawMessage, len(wrapped))}

	for i, doc := range wrapped {
		raw, err := json.Marshal(doc)
		if err != nil {
			return executeError(WrapBatchCommandMethod, WrapCredentialErrorCode,
				fmt.Errorf("marshal credential : %w", err))
		}

		response.Credentials[i] = raw
	}

	response.MerkleRoot, err = credential.MerkleRoot(wrapped[0])
	if err != nil {
		return executeError(WrapBatchCommandMethod, WrapCredentialErrorCode, err)
	}

	command.WriteNillableResponse(rw, response, logger)

	c.notify(WrapBatchCommandMethod, wrapped...)

	logutil.LogDebug(logger, CommandName, WrapBatchCommandMethod, "success",
		logutil.CreateKeyValueString("merkleRoot", response.MerkleRoot))

	return nil
}

// Verify checks the digest and Merkle proof of a wrapped or signed credential.
// A tampered credential is reported with verified=false rather than an error.
func (c *Command) Verify(rw io.Writer, req io.Reader) command.Error {
	raw, doc, cmdErr := decodeCredential(VerifyCommandMethod, req)
	if cmdErr != nil {
		return cmdErr
	}

	verified, err := credential.Verify(doc)
	if err != nil {
		return executeError(VerifyCommandMethod, VerifyCredentialErrorCode, fmt.Errorf("verify credential : %w", err))
	}

	response := &VerifyResponse{
		Verified:   verified,
		TargetHash: gjson.GetBytes(raw, "proof.targetHash").String(),
		MerkleRoot: gjson.GetBytes(raw, "proof.merkleRoot").String(),
	}

	if variant, kind, err := credential.ClassifyJSON(raw); err == nil {
		response.Variant = variant.String()
		response.Kind = kind.String()
	}

	command.WriteNillableResponse(rw, response, logger)

	logutil.LogDebug(logger, CommandName, VerifyCommandMethod, "success",
		logutil.CreateKeyValueString("verified", fmt.Sprint(verified)))

	return nil
}

// Obfuscate removes fields from a wrapped credential while keeping it verifiable.
func (c *Command) Obfuscate(rw io.Writer, req io.Reader) command.Error {
	var request ObfuscateRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return validationError(ObfuscateCommandMethod, InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if len(request.Fields) == 0 {
		return validationError(ObfuscateCommandMethod, InvalidRequestErrorCode, errors.New(errEmptyFields))
	}

	doc, cmdErr := parseCredential(ObfuscateCommandMethod, request.Credential)
	if cmdErr != nil {
		return cmdErr
	}

	obfuscated, err := privacy.Obfuscate(doc, request.Fields...)
	if err != nil {
		return validationError(ObfuscateCommandMethod, ObfuscateCredentialErrorCode,
			fmt.Errorf("obfuscate credential : %w", err))
	}

	raw, err := json.Marshal(obfuscated)
	if err != nil {
		return executeError(ObfuscateCommandMethod, ObfuscateCredentialErrorCode,
			fmt.Errorf("marshal credential : %w", err))
	}

	command.WriteNillableResponse(rw, &CredentialResponse{Credential: raw}, logger)

	c.notify(ObfuscateCommandMethod, obfuscated)

	logutil.LogDebug(logger, CommandName, ObfuscateCommandMethod, "success",
		logutil.CreateKeyValueString("fields", fmt.Sprint(len(request.Fields))))

	return nil
}

// Digest recomputes the digest of a wrapped credential and returns it next to the recorded target hash.
func (c *Command) Digest(rw io.Writer, req io.Reader) command.Error {
	_, doc, cmdErr := decodeCredential(DigestCommandMethod, req)
	if cmdErr != nil {
		return cmdErr
	}

	targetHash, err := credential.TargetHash(doc)
	if err != nil {
		return validationError(DigestCommandMethod, DigestCredentialErrorCode, err)
	}

	digest, err := credential.Digest(doc)
	if err != nil {
		return validationError(DigestCommandMethod, DigestCredentialErrorCode, fmt.Errorf("digest credential : %w", err))
	}

	command.WriteNillableResponse(rw, &DigestResponse{Digest: digest, TargetHash: targetHash}, logger)

	logutil.LogDebug(logger, CommandName, DigestCommandMethod, "success")

	return nil
}

// Sign signs the Merkle root of a wrapped credential with the configured signer.
func (c *Command) Sign(rw io.Writer, req io.Reader) command.Error {
	if c.signer == nil {
		return executeError(SignCommandMethod, SignCredentialErrorCode, errors.New(errSignerNotConfigured))
	}

	var request SignRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return validationError(SignCommandMethod, InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.Save && c.store == nil {
		return validationError(SignCommandMethod, InvalidRequestErrorCode, errors.New(errStoreNotConfigured))
	}

	doc, cmdErr := parseCredential(SignCommandMethod, request.Credential)
	if cmdErr != nil {
		return cmdErr
	}

	signed, err := credential.Sign(context.Background(), doc, c.signer)
	if err != nil {
		if errors.Is(err, credential.ErrAlreadySigned) || errors.Is(err, credential.ErrNoProof) ||
			errors.Is(err, credential.ErrUnsupportedDocument) || errors.Is(err, credential.ErrMalformedProof) {
			return validationError(SignCommandMethod, SignCredentialErrorCode, err)
		}

		return executeError(SignCommandMethod, SignCredentialErrorCode, fmt.Errorf("sign credential : %w", err))
	}

	if request.Save {
		if cmdErr := c.save(SignCommandMethod, signed); cmdErr != nil {
			return cmdErr
		}
	}

	raw, err := json.Marshal(signed)
	if err != nil {
		return executeError(SignCommandMethod, SignCredentialErrorCode, fmt.Errorf("marshal credential : %w", err))
	}

	command.WriteNillableResponse(rw, &CredentialResponse{Credential: raw}, logger)

	c.notify(SignCommandMethod, signed)

	logutil.LogDebug(logger, CommandName, SignCommandMethod, "success")

	return nil
}

// GetCredential retrieves a stored credential by target hash.
func (c *Command) GetCredential(rw io.Writer, req io.Reader) command.Error {
	if c.store == nil {
		return executeError(GetCredentialCommandMethod, GetCredentialErrorCode, errors.New(errStoreNotConfigured))
	}

	var request IDArg

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return validationError(GetCredentialCommandMethod, InvalidRequestErrorCode,
			fmt.Errorf("request decode : %w", err))
	}

	if request.ID == "" {
		return validationError(GetCredentialCommandMethod, InvalidRequestErrorCode, errors.New(errEmptyID))
	}

	doc, err := c.store.Get(request.ID)
	if err != nil {
		return validationError(GetCredentialCommandMethod, GetCredentialErrorCode,
			fmt.Errorf("get credential : %w", err))
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return executeError(GetCredentialCommandMethod, GetCredentialErrorCode,
			fmt.Errorf("marshal credential : %w", err))
	}

	command.WriteNillableResponse(rw, &CredentialResponse{Credential: raw}, logger)

	logutil.LogDebug(logger, CommandName, GetCredentialCommandMethod, "success",
		logutil.CreateKeyValueString("id", request.ID))

	return nil
}

// GetCredentials lists the stored credentials.
func (c *Command) GetCredentials(rw io.Writer, _ io.Reader) command.Error {
	if c.store == nil {
		return executeError(GetCredentialsCommandMethod, GetCredentialsErrorCode, errors.New(errStoreNotConfigured))
	}

	records, err := c.store.Records()
	if err != nil {
		return executeError(GetCredentialsCommandMethod, GetCredentialsErrorCode,
			fmt.Errorf("get credential records : %w", err))
	}

	command.WriteNillableResponse(rw, &RecordsResponse{Result: records}, logger)

	logutil.LogDebug(logger, CommandName, GetCredentialsCommandMethod, "success")

	return nil
}

// GetBatch retrieves the stored credentials wrapped under a Merkle root.
func (c *Command) GetBatch(rw io.Writer, req io.Reader) command.Error {
	if c.store == nil {
		return executeError(GetBatchCommandMethod, GetBatchErrorCode, errors.New(errStoreNotConfigured))
	}

	var request MerkleRootArg

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return validationError(GetBatchCommandMethod, InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.MerkleRoot == "" {
		return validationError(GetBatchCommandMethod, InvalidRequestErrorCode, errors.New(errEmptyMerkleRoot))
	}

	docs, err := c.store.GetByMerkleRoot(request.MerkleRoot)
	if err != nil {
		return executeError(GetBatchCommandMethod, GetBatchErrorCode, fmt.Errorf("get batch : %w", err))
	}

	response := &BatchResponse{Credentials: make([]json.RawMessage, len(docs)), MerkleRoot: request.MerkleRoot}

	for i, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return executeError(GetBatchCommandMethod, GetBatchErrorCode, fmt.Errorf("marshal credential : %w", err))
		}

		response.Credentials[i] = raw
	}

	command.WriteNillableResponse(rw, response, logger)

	logutil.LogDebug(logger, CommandName, GetBatchCommandMethod, "success",
		logutil.CreateKeyValueString("merkleRoot", request.MerkleRoot))

	return nil
}

func (c *Command) notify(action string, docs ...credential.Document) {
	if c.notifier == nil || len(docs) == 0 {
		return
	}

	event := Event{Action: action, Count: len(docs)}

	variant, kind, err := credential.Classify(docs[0])
	if err == nil {
		event.Variant = variant.String()
		event.Kind = kind.String()
	}

	event.MerkleRoot, _ = credential.MerkleRoot(docs[0])

	if len(docs) == 1 {
		event.TargetHash, _ = credential.TargetHash(docs[0])
	}

	msg, err := json.Marshal(event)
	if err != nil {
		logutil.LogError(logger, CommandName, action, "marshal event : "+err.Error())

		return
	}

	if err := c.notifier.Notify(Topic, msg); err != nil {
		logutil.LogError(logger, CommandName, action, "notify : "+err.Error())
	}
}

func (c *Command) save(action string, doc credential.Document) command.Error {
	if _, err := c.store.Save(doc); err != nil {
		return executeError(action, SaveCredentialErrorCode, fmt.Errorf("save credential : %w", err))
	}

	return nil
}

// parseRaw decodes a raw credential and resolves its variant, from name when given or from its type otherwise.
func parseRaw(action string, raw json.RawMessage, name string) (credential.Document, credential.Variant, command.Error) {
	doc, cmdErr := parseCredential(action, raw)
	if cmdErr != nil {
		return nil, credential.VariantUnknown, cmdErr
	}

	var (
		variant credential.Variant
		err     error
	)

	if name != "" {
		variant, err = credential.ParseVariant(name)
	} else {
		variant, _, err = credential.ClassifyJSON(raw)
	}

	if err != nil {
		return nil, credential.VariantUnknown, validationError(action, InvalidRequestErrorCode, err)
	}

	return doc, variant, nil
}

func decodeCredential(action string, req io.Reader) (json.RawMessage, credential.Document, command.Error) {
	var request CredentialRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		return nil, nil, validationError(action, InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	doc, cmdErr := parseCredential(action, request.Credential)
	if cmdErr != nil {
		return nil, nil, cmdErr
	}

	return request.Credential, doc, nil
}

func parseCredential(action string, raw json.RawMessage) (credential.Document, command.Error) {
	if len(raw) == 0 {
		return nil, validationError(action, InvalidRequestErrorCode, errors.New(errEmptyCredential))
	}

	doc, err := credential.Parse(raw)
	if err != nil {
		return nil, validationError(action, InvalidRequestErrorCode, fmt.Errorf("parse credential : %w", err))
	}

	return doc, nil
}

func wrapError(action string, err error) command.Error {
	var schemaErr *credential.SchemaValidationError
	if errors.As(err, &schemaErr) {
		logutil.LogInfo(logger, CommandName, action, err.Error())

		return &detailedError{
			err:     command.NewValidationError(SchemaValidationErrorCode, err),
			details: schemaErr.Errors,
		}
	}

	if errors.Is(err, credential.ErrAlreadyWrapped) || errors.Is(err, credential.ErrSaltNotFound) {
		return validationError(action, WrapCredentialErrorCode, err)
	}

	return executeError(action, WrapCredentialErrorCode, fmt.Errorf("wrap credential : %w", err))
}

func validationError(action string, errorCode command.Code, err error) command.Error {
	logutil.LogInfo(logger, CommandName, action, err.Error())

	return command.NewValidationError(errorCode, err)
}

func executeError(action string, errorCode command.Code, err error) command.Error {
	logutil.LogError(logger, CommandName, action, err.Error())

	return command.NewExecuteError(errorCode, err)
}

// detailedError is a command error carrying the schema violations of a rejected credential.
type detailedError struct {
	err     command.Error
	details []credential.ValidationError
}

func (e *detailedError) Error() string {
	return e.err.Error()
}

func (e *detailedError) Code() command.Code {
	return e.err.Code()
}

func (e *detailedError) Type() command.Type {
	return e.err.Type()
}

func (e *detailedError) Unwrap() error {
	return e.err
}

// Details returns the schema violations.
func (e *detailedError) Details() interface{} {
	return e.details
}
