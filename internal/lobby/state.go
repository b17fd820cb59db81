// internal/lobby/state.go
package lobby

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ratscrew/internal/audit"
	"github.com/jason-s-yu/ratscrew/internal/protocol"
	"github.com/jason-s-yu/ratscrew/internal/session"
	"github.com/sirupsen/logrus"
)

// auditTimeout bounds each diagnostics write so a slow sink never stalls the fold.
const auditTimeout = 2 * time.Second

// Sender is the outbound half of a session. *session.Conn satisfies it.
type Sender interface {
	Send(ctx context.Context, msg protocol.Outbound) error
}

// State holds one session's view and validates the local player's requests
// against it before handing them to the Sender. It lives exactly as long as its
// session and shares nothing with other States.
type State struct {
	mu   sync.Mutex
	view View

	sessionID uuid.UUID
	sender    Sender
	sink      audit.Sink
	logger    *logrus.Entry
}

// New creates a State for (lobbyID, playerName). A nil sink disables auditing and a
// nil logger uses the logrus standard logger.
func New(sessionID uuid.UUID, lobbyID, playerName string, sender Sender, sink audit.Sink, logger *logrus.Logger) *State {
	if sink == nil {
		sink = audit.Nop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &State{
		view:      NewView(lobbyID, playerName),
		sessionID: sessionID,
		sender:    sender,
		sink:      sink,
		logger: logger.WithFields(logrus.Fields{
			"session": sessionID.String(),
			"lobby":   lobbyID,
			"player":  playerName,
		}),
	}
}

// NewForConn creates the State paired with conn.
func NewForConn(conn *session.Conn, sink audit.Sink, logger *logrus.Logger) *State {
	return New(conn.ID, conn.LobbyID, conn.PlayerName, conn, sink, logger)
}

// Snapshot returns a deep copy of the current view.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Clone()
}

// Apply folds one connection event into the view. Unknown and malformed frames are
// also recorded on the audit sink.
func (s *State) Apply(ctx context.Context, ev session.Event) {
	s.mu.Lock()
	s.view = ReduceEvent(s.view, ev)
	lobbyID, player := s.view.LobbyID, s.view.PlayerName
	s.mu.Unlock()

	var entry *audit.Entry
	switch ev.Kind {
	case session.EventMessage:
		if u, ok := ev.Message.(protocol.Unknown); ok {
			s.logger.Debugf("Ignoring unknown message type '%s'", u.Type)
			entry = &audit.Entry{Kind: audit.KindUnknown, Type: string(u.Type), Raw: u.Raw}
		}
	case session.EventMalformed:
		entry = &audit.Entry{Kind: audit.KindMalformed, Raw: ev.Raw}
		if ev.Err != nil {
			entry.Error = ev.Err.Error()
		}
	case session.EventClosed, session.EventErrored:
		s.logger.Debugf("Session ended with status %s", ev.Status)
	}
	if entry == nil {
		return
	}

	entry.SessionID = s.sessionID
	entry.LobbyID = lobbyID
	entry.Player = player
	auditCtx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()
	if err := s.sink.Record(auditCtx, *entry); err != nil {
		s.logger.Warnf("Failed to record audit entry: %v", err)
	}
}

// Run applies events in arrival order until the channel closes or ctx ends, calling
// onChange with a fresh snapshot after each one. It returns ctx.Err() on cancellation.
func (s *State) Run(ctx context.Context, events <-chan session.Event, onChange func(View)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.Apply(ctx, ev)
			if onChange != nil {
				onChange(s.Snapshot())
			}
		}
	}
}

// RequestStartGame sends start_game if the lobby has at least two players and no
// game is running; otherwise it fails with KindInsufficientPlayers and sends nothing.
func (s *State) RequestStartGame(ctx context.Context) error {
	s.mu.Lock()
	err := s.view.StartGameError()
	lobbyID := s.view.LobbyID
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, protocol.StartGame{LobbyID: lobbyID})
}

// RequestPlay sends play while a game is running on an open channel.
func (s *State) RequestPlay(ctx context.Context) error {
	s.mu.Lock()
	err := s.view.ActionError(protocol.TypePlay)
	lobbyID := s.view.LobbyID
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, protocol.Play{LobbyID: lobbyID})
}

// RequestSlap sends slap under the same conditions as RequestPlay.
func (s *State) RequestSlap(ctx context.Context) error {
	s.mu.Lock()
	err := s.view.ActionError(protocol.TypeSlap)
	lobbyID := s.view.LobbyID
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, protocol.Slap{LobbyID: lobbyID})
}
