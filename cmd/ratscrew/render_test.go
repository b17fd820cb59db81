// cmd/ratscrew/render_test.go
package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/ratscrew/internal/lobby"
	"github.com/jason-s-yu/ratscrew/internal/protocol"
	"github.com/stretchr/testify/assert"
)

func TestCurrentPlayer(t *testing.T) {
	assert.Equal(t, "Bob", currentPlayer(json.RawMessage(`{"current_player":"Bob","pile_count":3}`)))
	assert.Equal(t, "", currentPlayer(json.RawMessage(`{"pile_count":3}`)))
	assert.Equal(t, "", currentPlayer(json.RawMessage(`[1,2]`)))
	assert.Equal(t, "", currentPlayer(nil))
}

func TestSummarize(t *testing.T) {
	v := startedView()
	v = withState(v, `{"current_player":"Bob"}`)
	v = lobby.Reduce(v, protocol.SlapOpportunity{})
	assert.Equal(t, "[Alice] open players=0 turn=Bob SLAP!", summarize("Alice", v))

	v = lobby.Reduce(v, protocol.GameOver{Type: protocol.TypeWinner, Winner: "Bob"})
	assert.Equal(t, "[Alice] open players=0 winner=Bob", summarize("Alice", v))
}

func TestRendererFull(t *testing.T) {
	var buf bytes.Buffer
	r := &renderer{w: &buf}
	v := withState(startedView(), `{ "current_player" : "Alice" }`)
	r.full("Alice", v)

	out := buf.String()
	assert.Contains(t, out, "roster:   Alice, Bob")
	assert.Contains(t, out, `state:    {"current_player":"Alice"}`)
	assert.Contains(t, out, "controls: start=false play/slap=true")
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"Alice", "Bob"}, splitNames(" Alice, Bob ,Alice,, "))
	assert.Empty(t, splitNames(" , "))
}
