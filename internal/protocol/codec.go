// internal/protocol/codec.go
package protocol

import (
	"encoding/json"
	"strings"

	"github.com/jason-s-yu/ratscrew/internal/apperror"
)

// envelope is the union of every inbound field. Pointers distinguish "absent" from zero values.
type envelope struct {
	Type        *string         `json:"type"`
	Player      *string         `json:"player"`
	PlayerCount *int            `json:"player_count"`
	Players     *[]string       `json:"players"`
	State       json.RawMessage `json:"state"`
	Winner      *string         `json:"winner"`
	Success     *bool           `json:"success"`
	Message     *string         `json:"message"`
}

// Decode parses one text frame into its Inbound variant. Frames that are not JSON objects,
// lack a type, or lack the fields their type requires fail with KindMalformedMessage.
// Unrecognized types are returned as Unknown rather than rejected.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, apperror.New(apperror.KindMalformedMessage, "decode", err)
	}
	if env.Type == nil || strings.TrimSpace(*env.Type) == "" {
		return nil, apperror.Newf(apperror.KindMalformedMessage, "decode", "frame has no type")
	}
	typ := MessageType(*env.Type)

	switch typ {
	case TypePlayerJoined:
		if env.PlayerCount == nil {
			return nil, missing(typ, "player_count")
		}
		if *env.PlayerCount < 0 {
			return nil, apperror.Newf(apperror.KindMalformedMessage, "decode", "%s: negative player_count %d", typ, *env.PlayerCount)
		}
		msg := PlayerJoined{PlayerCount: *env.PlayerCount}
		if env.Player != nil {
			msg.Player = *env.Player
		}
		return msg, nil

	case TypePlayerLeft:
		if env.Player == nil || *env.Player == "" {
			return nil, missing(typ, "player")
		}
		return PlayerLeft{Player: *env.Player}, nil

	case TypeGameStarted:
		if env.Players == nil || len(*env.Players) == 0 {
			return nil, missing(typ, "players")
		}
		players := make([]string, len(*env.Players))
		copy(players, *env.Players)
		return GameStarted{Players: players}, nil

	case TypeGameState:
		if env.State == nil {
			return nil, missing(typ, "state")
		}
		state := make(json.RawMessage, len(env.State))
		copy(state, env.State)
		return GameState{State: state}, nil

	case TypeWinner, TypeGameOver:
		if env.Winner == nil || *env.Winner == "" {
			return nil, missing(typ, "winner")
		}
		return GameOver{Type: typ, Winner: *env.Winner}, nil

	case TypeSlapOpportunity:
		return SlapOpportunity{}, nil

	case TypeSlapResult:
		if env.Player == nil || *env.Player == "" {
			return nil, missing(typ, "player")
		}
		if env.Success == nil {
			return nil, missing(typ, "success")
		}
		return SlapResult{Player: *env.Player, Success: *env.Success}, nil

	case TypeError:
		if env.Message == nil {
			return nil, missing(typ, "message")
		}
		return ServerError{Message: *env.Message}, nil
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Unknown{Type: typ, Raw: raw}, nil
}

func missing(typ MessageType, field string) error {
	return apperror.Newf(apperror.KindMalformedMessage, "decode", "%s: missing required field %q", typ, field)
}

// Encode serializes an outbound intent with its type discriminant.
func Encode(msg Outbound) ([]byte, error) {
	fields := map[string]interface{}{}
	var lobbyID string

	switch m := msg.(type) {
	case JoinLobby:
		if strings.TrimSpace(m.PlayerName) == "" {
			return nil, apperror.Newf(apperror.KindInvalidAction, "encode", "join_lobby: empty player_name")
		}
		lobbyID = m.LobbyID
		fields["player_name"] = m.PlayerName
	case StartGame:
		lobbyID = m.LobbyID
	case Play:
		lobbyID = m.LobbyID
	case Slap:
		lobbyID = m.LobbyID
	default:
		return nil, apperror.Newf(apperror.KindInvalidAction, "encode", "unsupported outbound message %T", msg)
	}

	if strings.TrimSpace(lobbyID) == "" {
		return nil, apperror.Newf(apperror.KindInvalidAction, "encode", "%s: empty lobby_id", msg.OutboundType())
	}
	fields["type"] = msg.OutboundType()
	fields["lobby_id"] = lobbyID

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, apperror.New(apperror.KindInvalidAction, "encode", err)
	}
	return data, nil
}
