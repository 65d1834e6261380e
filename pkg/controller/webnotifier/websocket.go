/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/trustvc/vc-merkle/pkg/controller/internal/cmdutil"
	"github.com/trustvc/vc-merkle/pkg/controller/rest"
)

// WSNotifier pushes notifications to connected websocket clients.
type WSNotifier struct {
	conns     []*websocket.Conn
	connsLock sync.RWMutex
	handlers  []rest.Handler
}

// NewWSNotifier returns a WSNotifier accepting clients on path.
func NewWSNotifier(path string) *WSNotifier {
	n := &WSNotifier{}

	n.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(path, http.MethodGet, n.handleWS),
	}

	return n
}

// Notify writes the topic message to every connected client.
func (n *WSNotifier) Notify(topic string, message []byte) error {
	msg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return err
	}

	n.connsLock.RLock()
	conns := make([]*websocket.Conn, len(n.conns))
	copy(conns, n.conns)
	n.connsLock.RUnlock()

	var errs []error

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
		err := conn.Write(ctx, websocket.MessageText, msg)

		cancel()

		if err != nil {
			errs = append(errs, err)
		}
	}

	return joinErrors(errs)
}

// GetRESTHandlers returns the websocket upgrade handler.
func (n *WSNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

func (n *WSNotifier) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("failed to upgrade the websocket notification connection : %v", err)

		return
	}

	logger.Debugf("websocket notification client connected")

	n.connsLock.Lock()
	n.conns = append(n.conns, conn)
	n.connsLock.Unlock()

	// clients only listen; any read result ends the connection
	_, _, err = conn.Reader(r.Context())
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Infof("reading from websocket notification client failed: %v", err)
	}

	if err := conn.Close(websocket.StatusPolicyViolation, "unexpected message"); err != nil {
		logger.Debugf("closing websocket notification client failed: %v", err)
	}

	n.removeConn(conn)
}

func (n *WSNotifier) removeConn(conn *websocket.Conn) {
	n.connsLock.Lock()
	defer n.connsLock.Unlock()

	conns := n.conns[:0]

	for _, c := range n.conns {
		if c != conn {
			conns = append(conns, c)
		}
	}

	n.conns = conns

	logger.Debugf("websocket notification client dropped")
}
