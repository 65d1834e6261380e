/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPNotifier posts notifications to webhook subscribers.
type HTTPNotifier struct {
	urls   []string
	client *http.Client
}

// NewHTTPNotifier returns a new instance of an HTTPNotifier.
func NewHTTPNotifier(webhookURLs []string) *HTTPNotifier {
	return &HTTPNotifier{urls: webhookURLs, client: http.DefaultClient}
}

// Notify posts the topic message to every webhook URL.
func (n *HTTPNotifier) Notify(topic string, message []byte) error {
	msg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return err
	}

	var errs []error

	for _, url := range n.urls {
		if err := n.post(url, msg); err != nil {
			errs = append(errs, err)
		}
	}

	return joinErrors(errs)
}

func (n *HTTPNotifier) post(url string, msg []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(msg))
	if err != nil {
		return fmt.Errorf("failed to create new http post request for %s: %w", url, err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification to %s: %w", url, err)
	}

	defer closeResponse(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("notification was sent to %s, but %s was received", url, resp.Status)
	}

	logger.Debugf("notification sent to %s", url)

	return nil
}

func closeResponse(c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Errorf("failed to close response body: %s", err)
	}
}
