/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/trustvc/vc-merkle/pkg/controller"
	"github.com/trustvc/vc-merkle/pkg/doc/schema"
	"github.com/trustvc/vc-merkle/pkg/framework/context"
)

const (
	// api host flag.
	hostFlagName      = "api-host"
	hostEnvKey        = "VCMERKLE_API_HOST"
	hostFlagShorthand = "a"
	hostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + hostEnvKey

	// api token flag.
	tokenFlagName      = "api-token"
	tokenEnvKey        = "VCMERKLE_API_TOKEN" // nolint:gosec
	tokenFlagShorthand = "t"
	tokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + tokenEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "VCMERKLE_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database used to keep wrapped credentials. " +
		"Supported options: mem, leveldb. Defaults to mem if not set." +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databaseURLFlagName      = "database-url"
	databaseURLEnvKey        = "VCMERKLE_DATABASE_URL"
	databaseURLFlagShorthand = "v"
	databaseURLFlagUsage     = "The location of the database. For leveldb this is the directory path." +
		" Not needed if using memstore." +
		" Alternatively, this can be set with the following environment variable: " + databaseURLEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "VCMERKLE_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// webhook url flag.
	webhookFlagName      = "webhook-url"
	webhookEnvKey        = "VCMERKLE_WEBHOOK_URL"
	webhookFlagShorthand = "w"
	webhookFlagUsage     = "URL to send credential events to." +
		" This flag can be repeated, allowing for multiple listeners." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + webhookEnvKey

	// log level.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "VCMERKLE_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	schemaCacheSizeFlagName  = "schema-cache-size"
	schemaCacheSizeEnvKey    = "VCMERKLE_SCHEMA_CACHE_SIZE"
	schemaCacheSizeFlagUsage = "Number of compiled credential schemas kept in memory." +
		" Alternatively, this can be set with the following environment variable: " + schemaCacheSizeEnvKey

	disableSchemaFlagName  = "disable-schema-validation"
	disableSchemaEnvKey    = "VCMERKLE_DISABLE_SCHEMA_VALIDATION"
	disableSchemaFlagUsage = "Wrap credentials without validating them against the variant schema." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + disableSchemaEnvKey

	batchConcurrencyFlagName  = "batch-concurrency"
	batchConcurrencyEnvKey    = "VCMERKLE_BATCH_CONCURRENCY"
	batchConcurrencyFlagUsage = "Maximum number of credentials of a batch salted and hashed in parallel." +
		" Defaults to the number of CPUs if not set." +
		" Alternatively, this can be set with the following environment variable: " + batchConcurrencyEnvKey

	generateIDsFlagName  = "generate-ids"
	generateIDsEnvKey    = "VCMERKLE_GENERATE_IDS"
	generateIDsFlagUsage = "Assign a urn:uuid id to wrapped credentials that have none." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + generateIDsEnvKey

	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "VCMERKLE_TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "VCMERKLE_TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("vc-merkle/rest")
)

type serverParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	webhookURLs             []string
	dbParam                 *dbParam
	schemaCacheSize         int
	disableSchema           bool
	batchConcurrency        int
	generateIDs             bool
}

type dbParam struct {
	dbType  string
	url     string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(url string) (storage.Provider, error){
	databaseTypeMemOption: func(_ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) {
		if path == "" {
			return nil, errors.New("leveldb requires a database path")
		}

		return leveldb.NewProvider(path), nil
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the credential server",
		Long:  `Start the REST API for wrapping, verifying, obfuscating and signing verifiable credentials`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := newServerParameters(cmd, server)
			if err != nil {
				return err
			}

			return startServer(parameters)
		},
	}
}

func newServerParameters(cmd *cobra.Command, server server) (*serverParameters, error) { // nolint: funlen
	logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	err = setLogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	host, err := getUserSetVar(cmd, hostFlagName, hostEnvKey, false)
	if err != nil {
		return nil, err
	}

	token, err := getUserSetVar(cmd, tokenFlagName, tokenEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbParam, err := getDBParam(cmd)
	if err != nil {
		return nil, err
	}

	webhookURLs, err := getUserSetVars(cmd, webhookFlagName, webhookEnvKey, true)
	if err != nil {
		return nil, err
	}

	schemaCacheSize, err := getIntValue(cmd, schemaCacheSizeFlagName, schemaCacheSizeEnvKey)
	if err != nil {
		return nil, err
	}

	batchConcurrency, err := getIntValue(cmd, batchConcurrencyFlagName, batchConcurrencyEnvKey)
	if err != nil {
		return nil, err
	}

	disableSchema, err := getBoolValue(cmd, disableSchemaFlagName, disableSchemaEnvKey)
	if err != nil {
		return nil, err
	}

	generateIDs, err := getBoolValue(cmd, generateIDsFlagName, generateIDsEnvKey)
	if err != nil {
		return nil, err
	}

	tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	return &serverParameters{
		server:           server,
		host:             host,
		token:            token,
		dbParam:          dbParam,
		webhookURLs:      webhookURLs,
		schemaCacheSize:  schemaCacheSize,
		disableSchema:    disableSchema,
		batchConcurrency: batchConcurrency,
		generateIDs:      generateIDs,
		tlsCertFile:      tlsCertFile,
		tlsKeyFile:       tlsKeyFile,
	}, nil
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbParam.dbType == "" {
		dbParam.dbType = databaseTypeMemOption
	}

	dbParam.url, err = getUserSetVar(cmd, databaseURLFlagName, databaseURLEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func getIntValue(cmd *cobra.Command, flagName, envKey string) (int, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return 0, err
	}

	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s %s: %w", flagName, v, err)
	}

	return n, nil
}

func getBoolValue(cmd *cobra.Command, flagName, envKey string) (bool, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return false, err
	}

	if v == "" {
		return false, nil
	}

	return strconv.ParseBool(v)
}

func createFlags(startCmd *cobra.Command) {
	// host flag
	startCmd.Flags().StringP(hostFlagName, hostFlagShorthand, "", hostFlagUsage)
	// token flag
	startCmd.Flags().StringP(tokenFlagName, tokenFlagShorthand, "", tokenFlagUsage)
	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)
	// db url
	startCmd.Flags().StringP(databaseURLFlagName, databaseURLFlagShorthand, "", databaseURLFlagUsage)
	// db timeout
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)
	// webhook url flag
	startCmd.Flags().StringSliceP(webhookFlagName, webhookFlagShorthand, []string{}, webhookFlagUsage)
	// log level
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
	// schema cache size
	startCmd.Flags().StringP(schemaCacheSizeFlagName, "", "", schemaCacheSizeFlagUsage)
	// disable schema validation
	startCmd.Flags().StringP(disableSchemaFlagName, "", "", disableSchemaFlagUsage)
	// batch concurrency
	startCmd.Flags().StringP(batchConcurrencyFlagName, "", "", batchConcurrencyFlagUsage)
	// generate ids
	startCmd.Flags().StringP(generateIDsFlagName, "", "", generateIDsFlagUsage)
	// tls cert file
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)
	// tls key file
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startServer(parameters *serverParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	ctx, err := createContext(parameters)
	if err != nil {
		return err
	}

	// get all HTTP REST API handlers available for controller API
	handlers, err := controller.GetRESTHandlers(ctx, controller.WithWebhookURLs(parameters.webhookURLs...))
	if err != nil {
		return fmt.Errorf("failed to start credential rest on port [%s], failed to get rest service api :  %w",
			parameters.host, err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	logger.Infof("Starting credential rest on host [%s]", parameters.host)

	// start server on given port and serve using given handlers
	handler := cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start credential rest on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createContext(parameters *serverParameters) (*context.Provider, error) {
	storePro, err := createStoreProvider(parameters)
	if err != nil {
		return nil, err
	}

	opts := []context.ProviderOption{
		context.WithStorageProvider(storePro),
		context.WithBatchConcurrency(parameters.batchConcurrency),
	}

	if !parameters.disableSchema {
		var schemaOpts []schema.Opt
		if parameters.schemaCacheSize > 0 {
			schemaOpts = append(schemaOpts, schema.WithCacheSize(parameters.schemaCacheSize))
		}

		validator, err := schema.New(schemaOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load credential schemas: %w", err)
		}

		opts = append(opts, context.WithValidator(validator))
	}

	if parameters.generateIDs {
		opts = append(opts, context.WithGeneratedIDs())
	}

	ctx, err := context.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start credential rest on port [%s], failed to initialize context : %w",
			parameters.host, err)
	}

	return ctx, nil
}

func createStoreProvider(parameters *serverParameters) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[parameters.dbParam.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(parameters.dbParam.url)

			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), parameters.dbParam.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to connect to storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage at %s : %w", parameters.dbParam.url, err)
	}

	return store, nil
}
