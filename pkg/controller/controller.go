/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"errors"

	"github.com/trustvc/vc-merkle/pkg/controller/command"
	credentialcmd "github.com/trustvc/vc-merkle/pkg/controller/command/credential"
	"github.com/trustvc/vc-merkle/pkg/controller/rest"
	credentialrest "github.com/trustvc/vc-merkle/pkg/controller/rest/credential"
	"github.com/trustvc/vc-merkle/pkg/controller/webnotifier"
	"github.com/trustvc/vc-merkle/pkg/framework/context"
)

const wsPath = "/ws"

var errNilContext = errors.New("context provider is required")

type allOpts struct {
	webhookURLs []string
	notifier    command.Notifier
}

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events.
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithNotifier is an option for setting up a notifier which will notify clients of events.
func WithNotifier(notifier command.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifier = notifier
	}
}

// GetRESTHandlers returns all REST handlers provided by controller.
// Credential events are published to the webhook URLs and to websocket clients connected on /ws.
func GetRESTHandlers(ctx *context.Provider, opts ...Opt) ([]rest.Handler, error) {
	if ctx == nil {
		return nil, errNilContext
	}

	restAPIOpts := &allOpts{}

	for _, opt := range opts {
		opt(restAPIOpts)
	}

	notifier := webnotifier.New(wsPath, restAPIOpts.webhookURLs)

	credentialOp := credentialrest.New(ctx, credentialcmd.WithNotifier(notifier))

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, credentialOp.GetRESTHandlers()...)
	allHandlers = append(allHandlers, notifier.GetRESTHandlers()...)

	return allHandlers, nil
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(ctx *context.Provider, opts ...Opt) ([]command.Handler, error) {
	if ctx == nil {
		return nil, errNilContext
	}

	cmdOpts := &allOpts{}

	for _, opt := range opts {
		opt(cmdOpts)
	}

	var credentialOpts []credentialcmd.Option
	if cmdOpts.notifier != nil {
		credentialOpts = append(credentialOpts, credentialcmd.WithNotifier(cmdOpts.notifier))
	}

	credentialCmd := credentialcmd.New(ctx, credentialOpts...)

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, credentialCmd.GetHandlers()...)

	return allHandlers, nil
}
