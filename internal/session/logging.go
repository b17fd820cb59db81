// internal/session/logging.go
package session

import (
	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Close codes the client sends, and descriptions for the ones it may receive.
const (
	closeLeaving     = websocket.StatusNormalClosure
	closeLeavingText = "player left"
)

// describeClose gives a readable reason for a close frame that arrived without one.
func describeClose(code websocket.StatusCode) string {
	switch code {
	case websocket.StatusNormalClosure:
		return "normal closure"
	case websocket.StatusGoingAway:
		return "server going away"
	case websocket.StatusPolicyViolation:
		return "policy violation"
	case websocket.StatusMessageTooBig:
		return "message too big"
	case websocket.StatusInternalError:
		return "server internal error"
	case websocket.StatusTryAgainLater:
		return "server busy, try again later"
	default:
		return code.String()
	}
}

// logConnected logs a message when the channel is open and the join has been written.
func logConnected(entry *logrus.Entry, endpoint string) {
	entry.WithFields(logrus.Fields{
		"endpoint": endpoint,
	}).Info("WebSocket connected")
}

// logDisconnected logs the terminal transition of a session.
func logDisconnected(entry *logrus.Entry, ev Event) {
	fields := logrus.Fields{
		"status": ev.Status.String(),
	}
	if ev.Code != -1 {
		fields["code"] = int(ev.Code)
	}
	if ev.Reason != "" {
		fields["reason"] = ev.Reason
	}
	if ev.Err != nil {
		fields["error"] = ev.Err
		entry.WithFields(fields).Warn("WebSocket disconnected")
		return
	}
	entry.WithFields(fields).Info("WebSocket disconnected")
}
