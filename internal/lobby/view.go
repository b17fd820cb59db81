// internal/lobby/view.go
package lobby

import (
	"encoding/json"
	"slices"

	"github.com/jason-s-yu/ratscrew/internal/apperror"
	"github.com/jason-s-yu/ratscrew/internal/protocol"
	"github.com/jason-s-yu/ratscrew/internal/session"
)

// View is the read-only model the renderer draws from. Every field is derived from
// the ordered inbound messages and status events of one session; nothing is counted
// or guessed locally.
type View struct {
	LobbyID    string `json:"lobbyId"`
	PlayerName string `json:"playerName"`

	Status session.Status `json:"status"`

	// PlayerCount is always the player_count of the latest player_joined.
	PlayerCount int `json:"playerCount"`
	// Roster is the game_started player list in server order.
	Roster      []string `json:"roster"`
	GameStarted bool     `json:"gameStarted"`

	// CurrentState is the latest game_state payload, never interpreted here.
	CurrentState json.RawMessage `json:"currentState,omitempty"`

	Winner   string `json:"winner,omitempty"`
	Finished bool   `json:"finished"`

	SlapOpportunity bool                 `json:"slapOpportunity"`
	LastSlap        *protocol.SlapResult `json:"lastSlap,omitempty"`
	Departed        []string             `json:"departed,omitempty"`

	// ServerError is the message of the latest server "error" frame.
	ServerError string `json:"serverError,omitempty"`
	// Notice is non-fatal status text: dropped frames, closure reasons, transport errors.
	Notice string `json:"notice,omitempty"`

	// Unknown is the audit log of frames with unrecognized types.
	Unknown   []protocol.Unknown `json:"unknown,omitempty"`
	Malformed int                `json:"malformed"`
}

// NewView returns the initial view for a session that is still connecting.
func NewView(lobbyID, playerName string) View {
	return View{
		LobbyID:    lobbyID,
		PlayerName: playerName,
		Status:     session.StatusConnecting,
	}
}

// Reduce folds one inbound message into v and returns the new view. It never mutates
// the backing arrays of v, so earlier snapshots stay valid.
func Reduce(v View, msg protocol.Inbound) View {
	switch m := msg.(type) {
	case protocol.PlayerJoined:
		v.PlayerCount = m.PlayerCount

	case protocol.PlayerLeft:
		v.Departed = append(slices.Clip(v.Departed), m.Player)

	case protocol.GameStarted:
		v.Roster = slices.Clone(m.Players)
		v.GameStarted = true

	case protocol.GameState:
		v.CurrentState = slices.Clone(m.State)
		v.SlapOpportunity = false

	case protocol.GameOver:
		v.Winner = m.Winner
		v.Finished = true
		v.SlapOpportunity = false

	case protocol.SlapOpportunity:
		v.SlapOpportunity = true

	case protocol.SlapResult:
		res := m
		v.LastSlap = &res
		v.SlapOpportunity = false

	case protocol.ServerError:
		v.ServerError = m.Message

	case protocol.Unknown:
		v.Unknown = append(slices.Clip(v.Unknown), protocol.Unknown{Type: m.Type, Raw: slices.Clone(m.Raw)})
	}
	return v
}

// ReduceEvent folds one connection event: status transitions plus any message it carries.
func ReduceEvent(v View, ev session.Event) View {
	v.Status = ev.Status

	switch ev.Kind {
	case session.EventOpen:
		v.Notice = ""
	case session.EventMessage:
		if ev.Message != nil {
			v = Reduce(v, ev.Message)
		}
	case session.EventMalformed:
		v.Malformed++
		if ev.Err != nil {
			v.Notice = "dropped malformed frame: " + ev.Err.Error()
		} else {
			v.Notice = "dropped malformed frame"
		}
	case session.EventClosed:
		v.Notice = "connection closed"
		if ev.Reason != "" {
			v.Notice += ": " + ev.Reason
		}
	case session.EventErrored:
		v.Notice = "connection error"
		if ev.Err != nil {
			v.Notice += ": " + ev.Err.Error()
		}
	}
	return v
}

// Clone returns a deep copy safe to hand to another goroutine.
func (v View) Clone() View {
	v.Roster = slices.Clone(v.Roster)
	v.CurrentState = slices.Clone(v.CurrentState)
	v.Departed = slices.Clone(v.Departed)
	if v.LastSlap != nil {
		res := *v.LastSlap
		v.LastSlap = &res
	}
	if v.Unknown != nil {
		unknown := make([]protocol.Unknown, len(v.Unknown))
		for i, u := range v.Unknown {
			unknown[i] = protocol.Unknown{Type: u.Type, Raw: slices.Clone(u.Raw)}
		}
		v.Unknown = unknown
	}
	return v
}

// StartGameError reports why start_game may not be sent now, or nil.
func (v View) StartGameError() error {
	if v.GameStarted {
		return apperror.Newf(apperror.KindInsufficientPlayers, "start_game", "game already started")
	}
	if v.PlayerCount < 2 {
		return apperror.Newf(apperror.KindInsufficientPlayers, "start_game", "need at least 2 players, lobby has %d", v.PlayerCount)
	}
	return nil
}

// ActionError reports why a play or slap may not be sent now, or nil.
func (v View) ActionError(action protocol.MessageType) error {
	op := string(action)
	if !v.GameStarted {
		return apperror.Newf(apperror.KindInvalidAction, op, "game has not started")
	}
	if v.Finished {
		return apperror.Newf(apperror.KindGameFinished, op, "game won by %s", v.Winner)
	}
	if v.Status != session.StatusOpen {
		return apperror.Newf(apperror.KindInvalidAction, op, "connection is %s", v.Status)
	}
	return nil
}

// CanStartGame is the enabled state of the start control.
func (v View) CanStartGame() bool { return v.Status == session.StatusOpen && v.StartGameError() == nil }

// CanAct is the enabled state of the play and slap controls.
func (v View) CanAct() bool { return v.ActionError(protocol.TypePlay) == nil }
