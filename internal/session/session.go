// internal/session/session.go
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/ratscrew/internal/apperror"
	"github.com/jason-s-yu/ratscrew/internal/config"
	"github.com/jason-s-yu/ratscrew/internal/protocol"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxFrameSize = 1024 * 1024
	pingWait            = 15 * time.Second
)

// Options configures a Conn. Zero Timings fields fall back to the config defaults
// except ReadTimeout and PingInterval, where zero disables the feature.
type Options struct {
	ServerURL  string
	Timings    config.Session
	Logger     *logrus.Logger
	HTTPClient *http.Client
}

// Conn owns exactly one WebSocket to /ws/{lobby}/{player}. It is the only type in the
// client that performs network I/O. Consumers observe it through Events and Status and
// never touch the underlying socket.
type Conn struct {
	ID         uuid.UUID
	LobbyID    string
	PlayerName string
	Endpoint   string

	opts   Options
	logger *logrus.Entry

	mu      sync.Mutex
	status  Status
	ws      *websocket.Conn
	closing bool

	events    chan Event
	closed    chan struct{} // closed when Close starts, before the close handshake
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// Open validates the session identity and starts connecting in the background.
// The returned Conn is in StatusConnecting; progress is reported on Events.
// Cancelling ctx has the same effect as Close.
func Open(ctx context.Context, opts Options, lobbyID, playerName string) (*Conn, error) {
	lobbyID = strings.TrimSpace(lobbyID)
	playerName = strings.TrimSpace(playerName)
	if lobbyID == "" || playerName == "" {
		return nil, apperror.Newf(apperror.KindInvalidAction, "open", "lobby id and player name are required")
	}

	endpoint, err := EndpointURL(opts.ServerURL, lobbyID, playerName)
	if err != nil {
		return nil, apperror.New(apperror.KindInvalidAction, "open", err)
	}

	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Timings.DialTimeout <= 0 {
		opts.Timings.DialTimeout = 10 * time.Second
	}
	if opts.Timings.WriteTimeout <= 0 {
		opts.Timings.WriteTimeout = 5 * time.Second
	}
	if opts.Timings.EventBuffer < 1 {
		opts.Timings.EventBuffer = 64
	}
	if opts.Timings.MaxFrameSize < 1 {
		opts.Timings.MaxFrameSize = defaultMaxFrameSize
	}

	id := uuid.New()
	runCtx, cancel := context.WithCancel(ctx)
	c := &Conn{
		ID:         id,
		LobbyID:    lobbyID,
		PlayerName: playerName,
		Endpoint:   endpoint,
		opts:       opts,
		logger: opts.Logger.WithFields(logrus.Fields{
			"session": id.String(),
			"lobby":   lobbyID,
			"player":  playerName,
		}),
		status: StatusConnecting,
		events: make(chan Event, opts.Timings.EventBuffer),
		closed: make(chan struct{}),
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.run()
	return c, nil
}

// Events delivers one event per transition or inbound frame, in arrival order.
// It is closed after the single terminal event (EventClosed or EventErrored).
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Done is closed once the connection has reached a terminal status.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Status returns the current lifecycle state.
func (c *Conn) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Send writes one outbound message. It fails with KindNotConnected unless the Conn
// is Open, and never transmits anything in that case. join_lobby is written by the
// Conn itself and cannot be sent by callers.
func (c *Conn) Send(ctx context.Context, msg protocol.Outbound) error {
	if msg == nil {
		return apperror.Newf(apperror.KindInvalidAction, "send", "nil message")
	}
	if msg.OutboundType() == protocol.TypeJoinLobby {
		return apperror.Newf(apperror.KindInvalidAction, "send", "join_lobby is sent automatically on open")
	}

	c.mu.Lock()
	status, ws := c.status, c.ws
	c.mu.Unlock()
	if status != StatusOpen {
		return apperror.Newf(apperror.KindNotConnected, "send", "cannot send %s while %s", msg.OutboundType(), status)
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := c.write(ctx, ws, data); err != nil {
		c.logger.Warnf("Failed to send %s: %v", msg.OutboundType(), err)
		return err
	}
	c.logger.Debugf("Sent %s", msg.OutboundType())
	return nil
}

// Close tears the channel down. It is idempotent and safe to call before the channel
// opened or after an error. It always returns nil and blocks until the
// background reader has exited; at most one terminal event is ever emitted.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		ws := c.ws
		c.mu.Unlock()

		// Release a reader blocked on a full Events buffer so it can take the
		// server's half of the close handshake.
		close(c.closed)
		if ws != nil {
			// Errors here only mean the socket is already gone.
			_ = ws.Close(closeLeaving, closeLeavingText)
		}
		c.cancel()
	})
	<-c.done
	return nil
}

func (c *Conn) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing || c.ctx.Err() != nil
}

func (c *Conn) write(ctx context.Context, ws *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, c.opts.Timings.WriteTimeout)
	defer cancel()

	if err := ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		if errors.Is(writeCtx.Err(), context.DeadlineExceeded) {
			return apperror.New(apperror.KindTimeout, "send", err)
		}
		return apperror.New(apperror.KindTransportError, "send", err)
	}
	return nil
}

// run dials, writes the join, then pumps inbound frames until the channel ends.
func (c *Conn) run() {
	defer close(c.done)
	defer c.cancel()

	ws, err := c.dial()
	if err != nil {
		if c.isClosing() {
			c.finish(StatusClosed, Event{Kind: EventClosed, Code: -1, Reason: "closed before open"})
			return
		}
		c.finish(StatusErrored, Event{Kind: EventErrored, Code: -1, Err: err})
		return
	}

	join, err := protocol.Encode(protocol.JoinLobby{LobbyID: c.LobbyID, PlayerName: c.PlayerName})
	if err == nil {
		err = c.write(c.ctx, ws, join)
	}
	if err != nil {
		_ = ws.Close(websocket.StatusInternalError, "join failed")
		if c.isClosing() {
			c.finish(StatusClosed, Event{Kind: EventClosed, Code: -1, Reason: "closed before open"})
			return
		}
		c.finish(StatusErrored, Event{Kind: EventErrored, Code: -1, Err: err})
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		_ = ws.Close(closeLeaving, closeLeavingText)
		c.finish(StatusClosed, Event{Kind: EventClosed, Code: -1, Reason: "closed before open"})
		return
	}
	c.ws = ws
	c.status = StatusOpen
	c.mu.Unlock()

	logConnected(c.logger, c.Endpoint)
	c.emit(Event{Kind: EventOpen, Status: StatusOpen})

	if c.opts.Timings.PingInterval > 0 {
		go c.pingLoop(ws)
	}
	c.readLoop(ws)
}

func (c *Conn) dial() (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(c.ctx, c.opts.Timings.DialTimeout)
	defer cancel()

	c.logger.Debugf("Dialing %s", c.Endpoint)
	ws, resp, err := websocket.Dial(dialCtx, c.Endpoint, &websocket.DialOptions{
		HTTPClient: c.opts.HTTPClient,
	})
	if err != nil {
		if resp != nil {
			c.logger.Warnf("Dial rejected with HTTP status %s", resp.Status)
		}
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) && c.ctx.Err() == nil {
			return nil, apperror.New(apperror.KindTimeout, "dial", err)
		}
		return nil, apperror.New(apperror.KindTransportError, "dial", err)
	}
	ws.SetReadLimit(c.opts.Timings.MaxFrameSize)
	return ws, nil
}

// readLoop decodes frames in arrival order and emits one event per frame.
func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		readCtx, cancel := c.ctx, context.CancelFunc(func() {})
		if c.opts.Timings.ReadTimeout > 0 {
			readCtx, cancel = context.WithTimeout(c.ctx, c.opts.Timings.ReadTimeout)
		}
		typ, data, err := ws.Read(readCtx)
		idle := errors.Is(readCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err != nil {
			c.finishRead(ws, err, idle)
			return
		}

		if typ != websocket.MessageText {
			c.logger.Warnf("Dropping non-text frame of type %v", typ)
			c.emit(Event{
				Kind:   EventMalformed,
				Status: StatusOpen,
				Raw:    data,
				Err:    apperror.Newf(apperror.KindMalformedMessage, "read", "non-text frame of type %v", typ),
			})
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warnf("Dropping malformed frame: %v", err)
			c.emit(Event{Kind: EventMalformed, Status: StatusOpen, Raw: data, Err: err})
			continue
		}
		c.emit(Event{Kind: EventMessage, Status: StatusOpen, Message: msg})
	}
}

// finishRead classifies why the reader stopped.
func (c *Conn) finishRead(ws *websocket.Conn, err error, idle bool) {
	switch {
	case c.isClosing():
		c.finish(StatusClosed, Event{Kind: EventClosed, Code: closeLeaving, Reason: "closed by client"})
	case idle:
		_ = ws.Close(websocket.StatusPolicyViolation, "idle timeout")
		c.finish(StatusErrored, Event{
			Kind: EventErrored,
			Code: -1,
			Err:  apperror.Newf(apperror.KindTimeout, "read", "no frame for %s", c.opts.Timings.ReadTimeout),
		})
	default:
		var ce websocket.CloseError
		if errors.As(err, &ce) {
			reason := ce.Reason
			if reason == "" {
				reason = describeClose(ce.Code)
			}
			c.finish(StatusClosed, Event{Kind: EventClosed, Code: ce.Code, Reason: reason})
			return
		}
		c.finish(StatusErrored, Event{Kind: EventErrored, Code: -1, Err: apperror.New(apperror.KindTransportError, "read", err)})
	}
}

// pingLoop keeps the channel alive the way the server-side write pump does.
func (c *Conn) pingLoop(ws *websocket.Conn) {
	ticker := time.NewTicker(c.opts.Timings.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, pingWait)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					c.logger.Warnf("Failed to send ping: %v. Assuming disconnect.", err)
				}
				return
			}
		}
	}
}

// emit delivers a non-terminal event. After a local close, pending events are dropped.
func (c *Conn) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.closed:
	case <-c.ctx.Done():
	}
}

// finish records the terminal status and emits the terminal event. Only run calls it,
// exactly once.
func (c *Conn) finish(status Status, ev Event) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()

	ev.Status = status
	logDisconnected(c.logger, ev)

	select {
	case c.events <- ev:
	case <-c.closed:
		c.deliverLast(ev)
	case <-c.ctx.Done():
		c.deliverLast(ev)
	}
	close(c.events)
}

// deliverLast queues the terminal event only if the buffer has room.
func (c *Conn) deliverLast(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Debug("Terminal event dropped; consumer is gone")
	}
}
