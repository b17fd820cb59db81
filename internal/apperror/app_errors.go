// internal/apperror/app_errors.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies every recoverable failure the client surfaces to the renderer.
type Kind int

const (
	KindUnknown             Kind = iota
	KindNotConnected             // send attempted while the channel is not Open
	KindInsufficientPlayers      // start requested with fewer than two players, or after the game started
	KindInvalidAction            // request not allowed in the current state
	KindGameFinished             // play/slap after a winner was declared
	KindMalformedMessage         // inbound frame failed to parse or lacks required fields
	KindTransportError           // channel-level failure
	KindTimeout                  // bounded wait expired (dial or idle read)
)

// String returns the snake_case name of the kind, used in logs and audit entries.
func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "not_connected"
	case KindInsufficientPlayers:
		return "insufficient_players"
	case KindInvalidAction:
		return "invalid_action"
	case KindGameFinished:
		return "game_finished"
	case KindMalformedMessage:
		return "malformed_message"
	case KindTransportError:
		return "transport_error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error carries a Kind plus the operation that produced it and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so the sentinels
// below work with errors.Is regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotConnected        = &Error{Kind: KindNotConnected}
	ErrInsufficientPlayers = &Error{Kind: KindInsufficientPlayers}
	ErrInvalidAction       = &Error{Kind: KindInvalidAction}
	ErrGameFinished        = &Error{Kind: KindGameFinished}
	ErrMalformedMessage    = &Error{Kind: KindMalformedMessage}
	ErrTransport           = &Error{Kind: KindTransportError}
	ErrTimeout             = &Error{Kind: KindTimeout}
)

// New builds an *Error for op. cause may be nil.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
