// internal/session/status.go
package session

import (
	"github.com/coder/websocket"
	"github.com/jason-s-yu/ratscrew/internal/protocol"
)

// Status is the lifecycle state of one Conn. Only the Conn mutates it.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusClosed
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusErrored
}

// EventKind enumerates what a Conn reports to its consumer.
type EventKind int

const (
	EventOpen      EventKind = iota + 1 // channel open, join_lobby already written
	EventMessage                        // one decoded inbound frame
	EventMalformed                      // frame dropped: not decodable or missing fields
	EventClosed                         // terminal: closed locally or by the server
	EventErrored                        // terminal: transport failure or timeout
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventMalformed:
		return "malformed"
	case EventClosed:
		return "closed"
	case EventErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Event is delivered on Conn.Events in the order things happened on the wire.
type Event struct {
	Kind   EventKind
	Status Status // status after this event

	Message protocol.Inbound // EventMessage
	Raw     []byte           // EventMalformed: the dropped frame
	Err     error            // EventMalformed, EventErrored

	// EventClosed only. Code is -1 when no close frame was exchanged.
	Code   websocket.StatusCode
	Reason string
}
