/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/trustvc/vc-merkle/pkg/controller/command"
)

var logger = log.New("vc-merkle/rest")

// Handler http handler for each controller API endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
}

// genericError is vc-merkle rest api error response
// swagger:response genericError
type genericError struct { // nolint: unused,deadcode
	// in: body
	Body genericErrorBody
}

type genericErrorBody struct {
	Code    command.Code `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Details interface{}  `json:"details,omitempty"`
}

// detailer is implemented by command errors carrying structured details,
// such as the list of schema violations.
type detailer interface {
	Details() interface{}
}

// Execute executes given command with args provided and writes command response to the response writer.
func Execute(exec command.Exec, rw http.ResponseWriter, req io.Reader) {
	rw.Header().Set("Content-Type", "application/json")

	// buffer the response so that a failed command does not leave a partial body behind
	var buf bytes.Buffer

	err := exec(&buf, req)
	if err != nil {
		SendError(rw, err)

		return
	}

	if _, err := rw.Write(buf.Bytes()); err != nil {
		logger.Errorf("Unable to send response, %s", err)
	}
}

// SendError sends command error as http response in generic error format.
func SendError(rw http.ResponseWriter, err command.Error) {
	var status int

	switch err.Type() {
	case command.ValidationError:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	body := genericErrorBody{Code: err.Code(), Message: err.Error()}

	if d, ok := err.(detailer); ok {
		body.Details = d.Details()
	}

	sendBody(rw, status, body)
}

// SendHTTPStatusError sends given http status code to response with error body.
func SendHTTPStatusError(rw http.ResponseWriter, httpStatus int, code command.Code, err error) {
	sendBody(rw, httpStatus, genericErrorBody{Code: code, Message: err.Error()})
}

func sendBody(rw http.ResponseWriter, httpStatus int, body genericErrorBody) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(httpStatus)

	if err := json.NewEncoder(rw).Encode(body); err != nil {
		logger.Errorf("Unable to send error response, %s", err)
	}
}
