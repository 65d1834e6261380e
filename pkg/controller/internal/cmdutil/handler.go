/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"net/http"

	"github.com/trustvc/vc-merkle/pkg/controller/command"
)

// HTTPHandler binds an http.HandlerFunc to a route of the credential REST API.
type HTTPHandler struct {
	path   string
	method string
	handle http.HandlerFunc
}

// NewHTTPHandler returns a REST handler for method requests on path.
func NewHTTPHandler(path, method string, handle http.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{path: path, method: method, handle: handle}
}

// Path is the route template, e.g. "/credential/{id}".
func (h *HTTPHandler) Path() string { return h.path }

// Method is the HTTP method.
func (h *HTTPHandler) Method() string { return h.method }

// Handle returns the handler func.
func (h *HTTPHandler) Handle() http.HandlerFunc { return h.handle }

// CommandHandler binds a command.Exec to a command name and method.
type CommandHandler struct {
	name   string
	method string
	handle command.Exec
}

// NewCommandHandler returns a controller command handler.
func NewCommandHandler(name, method string, exec command.Exec) *CommandHandler {
	return &CommandHandler{name: name, method: method, handle: exec}
}

// Name of the command group, e.g. "credential".
func (c *CommandHandler) Name() string { return c.name }

// Method of the command, e.g. "Wrap".
func (c *CommandHandler) Method() string { return c.method }

// Handle returns the command execution func.
func (c *CommandHandler) Handle() command.Exec { return c.handle }
