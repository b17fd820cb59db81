// internal/protocol/codec_test.go
package protocol

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/ratscrew/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKnownTypes(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  Inbound
	}{
		{"player joined", `{"type":"player_joined","player_count":2,"player":"Bob"}`, PlayerJoined{PlayerCount: 2, Player: "Bob"}},
		{"player joined without name", `{"type":"player_joined","player_count":1}`, PlayerJoined{PlayerCount: 1}},
		{"player left", `{"type":"player_left","player":"Bob"}`, PlayerLeft{Player: "Bob"}},
		{"game started keeps order", `{"type":"game_started","players":["Zed","Alice","Bob"]}`, GameStarted{Players: []string{"Zed", "Alice", "Bob"}}},
		{"winner", `{"type":"winner","winner":"Bob"}`, GameOver{Type: TypeWinner, Winner: "Bob"}},
		{"game over", `{"type":"game_over","winner":"Alice"}`, GameOver{Type: TypeGameOver, Winner: "Alice"}},
		{"slap opportunity", `{"type":"slap_opportunity"}`, SlapOpportunity{}},
		{"slap result", `{"type":"slap","player":"Alice","success":false}`, SlapResult{Player: "Alice", Success: false}},
		{"server error", `{"type":"error","message":"Not your turn or invalid play"}`, ServerError{Message: "Not your turn or invalid play"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeGameStateIsOpaque(t *testing.T) {
	frame := `{"type":"game_state","state":{"current_player":"Alice","pile_count":3,"players":[{"name":"Alice","card_count":26}]}}`

	got, err := Decode([]byte(frame))
	require.NoError(t, err)

	gs, ok := got.(GameState)
	require.True(t, ok, "expected GameState, got %T", got)
	assert.JSONEq(t, `{"current_player":"Alice","pile_count":3,"players":[{"name":"Alice","card_count":26}]}`, string(gs.State))
}

func TestDecodeUnknownPassesThrough(t *testing.T) {
	frame := `{"type":"mystery","x":1}`

	got, err := Decode([]byte(frame))
	require.NoError(t, err)

	u, ok := got.(Unknown)
	require.True(t, ok, "expected Unknown, got %T", got)
	assert.Equal(t, MessageType("mystery"), u.InboundType())
	assert.JSONEq(t, frame, string(u.Raw))
}

func TestDecodeMalformed(t *testing.T) {
	frames := map[string]string{
		"not json":                 `{"type":`,
		"array":                    `[1,2,3]`,
		"null":                     `null`,
		"no type":                  `{"player_count":2}`,
		"blank type":               `{"type":"  "}`,
		"player_joined no count":   `{"type":"player_joined","player":"Bob"}`,
		"player_joined negative":   `{"type":"player_joined","player_count":-1}`,
		"player_joined bad count":  `{"type":"player_joined","player_count":"two"}`,
		"game_started no players":  `{"type":"game_started"}`,
		"game_started empty":       `{"type":"game_started","players":[]}`,
		"game_started null":        `{"type":"game_started","players":null}`,
		"game_state no state":      `{"type":"game_state"}`,
		"winner no name":           `{"type":"winner"}`,
		"winner empty":             `{"type":"winner","winner":""}`,
		"player_left no player":    `{"type":"player_left"}`,
		"slap result no success":   `{"type":"slap","player":"Bob"}`,
		"error without message":    `{"type":"error"}`,
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			got, err := Decode([]byte(frame))
			assert.Nil(t, got)
			assert.ErrorIs(t, err, apperror.ErrMalformedMessage)
		})
	}
}

func TestEncodeOutbound(t *testing.T) {
	cases := []struct {
		msg  Outbound
		want string
	}{
		{JoinLobby{LobbyID: "L1", PlayerName: "Alice"}, `{"type":"join_lobby","lobby_id":"L1","player_name":"Alice"}`},
		{StartGame{LobbyID: "L1"}, `{"type":"start_game","lobby_id":"L1"}`},
		{Play{LobbyID: "L1"}, `{"type":"play","lobby_id":"L1"}`},
		{Slap{LobbyID: "L1"}, `{"type":"slap","lobby_id":"L1"}`},
	}

	for _, tc := range cases {
		data, err := Encode(tc.msg)
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(data))

		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Equal(t, string(tc.msg.OutboundType()), fields["type"])
	}
}

func TestEncodeRejectsMissingFields(t *testing.T) {
	_, err := Encode(Play{LobbyID: " "})
	assert.ErrorIs(t, err, apperror.ErrInvalidAction)

	_, err = Encode(JoinLobby{LobbyID: "L1"})
	assert.ErrorIs(t, err, apperror.ErrInvalidAction)
}
