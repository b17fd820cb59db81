// internal/protocol/messages.go
package protocol

import "encoding/json"

// MessageType is the "type" discriminant carried by every frame.
type MessageType string

// Outbound (client -> server) types.
const (
	TypeJoinLobby MessageType = "join_lobby"
	TypeStartGame MessageType = "start_game"
	TypePlay      MessageType = "play"
	TypeSlap      MessageType = "slap"
)

// Inbound (server -> client) types.
const (
	TypePlayerJoined    MessageType = "player_joined"
	TypePlayerLeft      MessageType = "player_left"
	TypeGameStarted     MessageType = "game_started"
	TypeGameState       MessageType = "game_state"
	TypeWinner          MessageType = "winner"
	TypeGameOver        MessageType = "game_over" // terminal, same meaning as winner
	TypeSlapOpportunity MessageType = "slap_opportunity"
	TypeSlapResult      MessageType = "slap" // server echo of a slap attempt, shares the outbound name
	TypeError           MessageType = "error"
)

// Inbound is one decoded server frame. The concrete types below form a closed set;
// anything the client does not recognize decodes to Unknown.
type Inbound interface {
	InboundType() MessageType
}

// PlayerJoined replaces the lobby's player count with the server's figure.
type PlayerJoined struct {
	PlayerCount int    `json:"player_count"`
	Player      string `json:"player,omitempty"`
}

// PlayerLeft reports a disconnect seen by the server.
type PlayerLeft struct {
	Player string `json:"player"`
}

// GameStarted carries the roster in server-declared turn order.
type GameStarted struct {
	Players []string `json:"players"`
}

// GameState is an opaque snapshot owned by the server's rule engine.
type GameState struct {
	State json.RawMessage `json:"state"`
}

// GameOver is the terminal message. Type records which discriminant the server used.
type GameOver struct {
	Type   MessageType `json:"type"`
	Winner string      `json:"winner"`
}

// SlapOpportunity signals that the pile can currently be slapped.
type SlapOpportunity struct{}

// SlapResult is the broadcast outcome of someone's slap.
type SlapResult struct {
	Player  string `json:"player"`
	Success bool   `json:"success"`
}

// ServerError is a rejection sent by the server, e.g. "Not your turn".
type ServerError struct {
	Message string `json:"message"`
}

// Unknown preserves a frame with an unrecognized type for diagnostics.
type Unknown struct {
	Type MessageType     `json:"type"`
	Raw  json.RawMessage `json:"raw"`
}

func (PlayerJoined) InboundType() MessageType    { return TypePlayerJoined }
func (PlayerLeft) InboundType() MessageType      { return TypePlayerLeft }
func (GameStarted) InboundType() MessageType     { return TypeGameStarted }
func (GameState) InboundType() MessageType       { return TypeGameState }
func (m GameOver) InboundType() MessageType      { return m.Type }
func (SlapOpportunity) InboundType() MessageType { return TypeSlapOpportunity }
func (SlapResult) InboundType() MessageType      { return TypeSlapResult }
func (ServerError) InboundType() MessageType     { return TypeError }
func (m Unknown) InboundType() MessageType       { return m.Type }

// Outbound is one client intent ready to be encoded.
type Outbound interface {
	OutboundType() MessageType
}

// JoinLobby is sent exactly once, automatically, when the channel opens.
type JoinLobby struct {
	LobbyID    string `json:"lobby_id"`
	PlayerName string `json:"player_name"`
}

type StartGame struct {
	LobbyID string `json:"lobby_id"`
}

type Play struct {
	LobbyID string `json:"lobby_id"`
}

type Slap struct {
	LobbyID string `json:"lobby_id"`
}

func (JoinLobby) OutboundType() MessageType { return TypeJoinLobby }
func (StartGame) OutboundType() MessageType { return TypeStartGame }
func (Play) OutboundType() MessageType      { return TypePlay }
func (Slap) OutboundType() MessageType      { return TypeSlap }
