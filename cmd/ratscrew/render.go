// cmd/ratscrew/render.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jason-s-yu/ratscrew/internal/lobby"
)

// renderer serializes writes from every seat goroutine onto one writer.
type renderer struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *renderer) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// line prints the one-line summary drawn after every change.
func (r *renderer) line(seat string, v lobby.View) {
	r.printf("%s\n", summarize(seat, v))
}

// full prints the whole view.
func (r *renderer) full(seat string, v lobby.View) {
	r.printf("%s", describe(seat, v))
}

func summarize(seat string, v lobby.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s players=%d", seat, v.Status, v.PlayerCount)
	switch {
	case v.Finished:
		fmt.Fprintf(&b, " winner=%s", v.Winner)
	case v.GameStarted:
		fmt.Fprintf(&b, " turn=%s", currentPlayer(v.CurrentState))
		if v.SlapOpportunity {
			b.WriteString(" SLAP!")
		}
	case v.CanStartGame():
		b.WriteString(" ready to start")
	}
	if v.Notice != "" {
		fmt.Fprintf(&b, " (%s)", v.Notice)
	}
	return b.String()
}

func describe(seat string, v lobby.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s in lobby %s ==\n", seat, v.LobbyID)
	fmt.Fprintf(&b, "status:   %s\n", v.Status)
	fmt.Fprintf(&b, "players:  %d\n", v.PlayerCount)
	if v.GameStarted {
		fmt.Fprintf(&b, "roster:   %s\n", strings.Join(v.Roster, ", "))
	}
	if len(v.CurrentState) > 0 {
		fmt.Fprintf(&b, "state:    %s\n", compact(v.CurrentState))
	}
	if v.LastSlap != nil {
		outcome := "missed"
		if v.LastSlap.Success {
			outcome = "won the pile"
		}
		fmt.Fprintf(&b, "slap:     %s %s\n", v.LastSlap.Player, outcome)
	}
	if len(v.Departed) > 0 {
		fmt.Fprintf(&b, "left:     %s\n", strings.Join(v.Departed, ", "))
	}
	if v.Finished {
		fmt.Fprintf(&b, "winner:   %s\n", v.Winner)
	}
	if v.ServerError != "" {
		fmt.Fprintf(&b, "server:   %s\n", v.ServerError)
	}
	if len(v.Unknown) > 0 || v.Malformed > 0 {
		fmt.Fprintf(&b, "ignored:  %d unknown, %d malformed\n", len(v.Unknown), v.Malformed)
	}
	fmt.Fprintf(&b, "controls: start=%t play/slap=%t\n", v.CanStartGame(), v.CanAct())
	return b.String()
}

// currentPlayer reads state.current_player, the one game_state field the client
// looks at. It returns "" when the payload has none.
func currentPlayer(state json.RawMessage) string {
	if len(state) == 0 {
		return ""
	}
	var s struct {
		CurrentPlayer string `json:"current_player"`
	}
	if err := json.Unmarshal(state, &s); err != nil {
		return ""
	}
	return s.CurrentPlayer
}

func compact(raw json.RawMessage) string {
	out, err := json.Marshal(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
