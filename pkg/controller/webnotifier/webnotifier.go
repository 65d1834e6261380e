/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/trustvc/vc-merkle/pkg/controller/command"
	"github.com/trustvc/vc-merkle/pkg/controller/rest"
)

const (
	notificationSendTimeout = 10 * time.Second
)

var (
	errEmptyTopic   = errors.New("cannot notify with an empty topic")
	errEmptyMessage = errors.New("cannot notify with an empty message")

	logger = log.New("vc-merkle/webnotifier")
)

// WebNotifier dispatches notifications to webhook subscribers and connected websocket clients.
type WebNotifier struct {
	notifiers []command.Notifier
	handlers  []rest.Handler
}

// New returns a WebNotifier posting to webhookURLs and serving websocket clients on wsPath.
func New(wsPath string, webhookURLs []string) *WebNotifier {
	ws := NewWSNotifier(wsPath)

	return &WebNotifier{
		notifiers: []command.Notifier{NewHTTPNotifier(webhookURLs), ws},
		handlers:  ws.GetRESTHandlers(),
	}
}

// Notify sends the message to every subscriber. Delivery continues past failed subscribers
// and the failures are reported together.
func (n *WebNotifier) Notify(topic string, message []byte) error {
	var errs []error

	for _, notifier := range n.notifiers {
		if err := notifier.Notify(topic, message); err != nil {
			errs = append(errs, err)
		}
	}

	return joinErrors(errs)
}

// GetRESTHandlers returns the REST handlers of the websocket endpoint.
func (n *WebNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

type topicMessage struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

// PrepareTopicMessage wraps message in the envelope sent to subscribers.
func PrepareTopicMessage(topic string, message []byte) ([]byte, error) {
	if topic == "" {
		return nil, errEmptyTopic
	}

	if len(message) == 0 {
		return nil, errEmptyMessage
	}

	msg, err := json.Marshal(topicMessage{
		ID:      uuid.New().String(),
		Topic:   topic,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create topic message : %w", err)
	}

	return msg, nil
}

func joinErrors(errs []error) error {
	var joined error

	for _, err := range errs {
		if joined == nil {
			joined = err
			continue
		}

		joined = fmt.Errorf("%v;%w", joined, err)
	}

	return joined
}
