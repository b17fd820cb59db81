// cmd/ratscrew/bot_test.go
package main

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/ratscrew/internal/lobby"
	"github.com/jason-s-yu/ratscrew/internal/protocol"
	"github.com/jason-s-yu/ratscrew/internal/session"
	"github.com/stretchr/testify/assert"
)

func startedView() lobby.View {
	v := lobby.ReduceEvent(lobby.NewView("L1", "Alice"), session.Event{Kind: session.EventOpen, Status: session.StatusOpen})
	return lobby.Reduce(v, protocol.GameStarted{Players: []string{"Alice", "Bob"}})
}

func withState(v lobby.View, state string) lobby.View {
	return lobby.Reduce(v, protocol.GameState{State: json.RawMessage(state)})
}

func TestDecidePlaysOnOwnTurn(t *testing.T) {
	prev := startedView()
	cur := withState(prev, `{"current_player":"Alice","pile":[]}`)
	assert.Equal(t, botPlay, decide("Alice", prev, cur, 0, 1))
	assert.Equal(t, botIdle, decide("Bob", prev, cur, 0, 1))
}

func TestDecidePlaysOncePerState(t *testing.T) {
	cur := withState(startedView(), `{"current_player":"Alice"}`)
	assert.Equal(t, botIdle, decide("Alice", cur, cur, 0, 1))
}

func TestDecideSlapsByChance(t *testing.T) {
	prev := withState(startedView(), `{"current_player":"Bob"}`)
	cur := lobby.Reduce(prev, protocol.SlapOpportunity{})

	assert.Equal(t, botSlap, decide("Alice", prev, cur, 0.5, 0.2))
	assert.Equal(t, botIdle, decide("Alice", prev, cur, 0.5, 0.8))
	// an opportunity already seen is not slapped again
	assert.Equal(t, botIdle, decide("Alice", cur, cur, 1, 0))
}

func TestDecideIdleWhenGameOver(t *testing.T) {
	prev := startedView()
	cur := withState(prev, `{"current_player":"Alice"}`)
	cur = lobby.Reduce(cur, protocol.GameOver{Type: protocol.TypeWinner, Winner: "Alice"})
	assert.Equal(t, botIdle, decide("Alice", prev, cur, 1, 0))
}

func TestBotActionString(t *testing.T) {
	assert.Equal(t, "play", botPlay.String())
	assert.Equal(t, "slap", botSlap.String())
	assert.Equal(t, "idle", botIdle.String())
}
