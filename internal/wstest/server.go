// internal/wstest/server.go
package wstest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Server is an in-process lobby relay speaking the ratscrew wire protocol on
// /ws/{lobby_id}/{player_name}. It keeps no game rules beyond starting once two
// players joined. Every received frame is recorded so tests can assert on exactly
// what a client sent.
type Server struct {
	srv    *httptest.Server
	logger *logrus.Logger

	mu       sync.Mutex
	lobbies  map[string]*room
	received map[string][]map[string]interface{}
	closures map[string]Closure
	gate     chan struct{}
}

// Closure is how a client's connection ended as seen by the server. Code is -1
// when the client vanished without a close frame.
type Closure struct {
	Code   websocket.StatusCode
	Reason string
}

type outFrame struct {
	typ  websocket.MessageType
	data []byte
}

type room struct {
	players []string // join order
	started bool
	clients map[string]*client
}

type client struct {
	lobby  string
	player string
	ws     *websocket.Conn
	out    chan outFrame
	cancel context.CancelFunc
}

// NewServer starts a Server and stops it when the test finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	s := &Server{
		logger:   logger,
		lobbies:  make(map[string]*room),
		received: make(map[string][]map[string]interface{}),
		closures: make(map[string]Closure),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", s.handle)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// URL is the http:// base URL; session.EndpointURL maps it to ws://.
func (s *Server) URL() string {
	return s.srv.URL
}

// Hold makes new connections wait before the upgrade until Release is called,
// so tests can observe a client in its connecting state.
func (s *Server) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
}

// Release lets held connections proceed.
func (s *Server) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Close disconnects every client and shuts the listener down.
func (s *Server) Close() {
	s.Release()

	s.mu.Lock()
	var clients []*client
	for _, r := range s.lobbies {
		for _, c := range r.clients {
			clients = append(clients, c)
		}
	}
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
		c.cancel()
	}
	s.srv.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.EscapedPath(), "/ws/"), "/")
	if len(parts) != 2 {
		http.Error(w, "expected /ws/{lobby_id}/{player_name}", http.StatusBadRequest)
		return
	}
	lobbyID, err1 := url.PathUnescape(parts[0])
	player, err2 := url.PathUnescape(parts[1])
	if err1 != nil || err2 != nil || lobbyID == "" || player == "" {
		http.Error(w, "invalid lobby_id or player_name", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer ws.Close(websocket.StatusInternalError, "handler finished")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c := &client{
		lobby:  lobbyID,
		player: player,
		ws:     ws,
		out:    make(chan outFrame, 32),
		cancel: cancel,
	}

	s.mu.Lock()
	rm := s.roomUnsafe(lobbyID)
	rm.clients[player] = c
	s.mu.Unlock()

	go s.writePump(ctx, c)
	s.readPump(ctx, c)

	s.remove(c)
}

func (s *Server) roomUnsafe(lobbyID string) *room {
	rm, ok := s.lobbies[lobbyID]
	if !ok {
		rm = &room{clients: make(map[string]*client)}
		s.lobbies[lobbyID] = rm
	}
	return rm
}

func (s *Server) readPump(ctx context.Context, c *client) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			s.recordClosure(c, err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(data, &packet); err != nil {
			s.send(c, map[string]interface{}{"type": "error", "message": "Invalid JSON format"})
			continue
		}
		s.record(c, packet)
		s.handleMessage(c, packet)
	}
}

func (s *Server) handleMessage(c *client, packet map[string]interface{}) {
	action, _ := packet["type"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.roomUnsafe(c.lobby)

	switch action {
	case "join_lobby":
		if !contains(rm.players, c.player) {
			rm.players = append(rm.players, c.player)
		}
		s.broadcastUnsafe(rm, map[string]interface{}{
			"type":         "player_joined",
			"player":       c.player,
			"player_count": len(rm.players),
		})
	case "start_game":
		if rm.started || len(rm.players) < 2 {
			s.sendUnsafe(c, map[string]interface{}{
				"type":    "error",
				"message": "Cannot start game: Not enough players to start the game",
			})
			return
		}
		rm.started = true
		players := make([]string, len(rm.players))
		copy(players, rm.players)
		s.broadcastUnsafe(rm, map[string]interface{}{
			"type":    "game_started",
			"players": players,
		})
	}
}

func (s *Server) writePump(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-c.out:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.ws.Write(writeCtx, f.typ, f.data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.lobbies[c.lobby]
	if !ok || rm.clients[c.player] != c {
		return
	}
	delete(rm.clients, c.player)
	rm.players = without(rm.players, c.player)
	s.broadcastUnsafe(rm, map[string]interface{}{
		"type":   "player_left",
		"player": c.player,
	})
}

func (s *Server) clientUnsafe(lobbyID, player string) (*client, error) {
	rm, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, fmt.Errorf("wstest: no lobby %q", lobbyID)
	}
	c, ok := rm.clients[player]
	if !ok {
		return nil, fmt.Errorf("wstest: no player %q in lobby %q", player, lobbyID)
	}
	return c, nil
}

func (s *Server) recordClosure(c *client, err error) {
	cl := Closure{Code: websocket.CloseStatus(err)}
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		cl.Reason = ce.Reason
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closures[c.lobby+"/"+c.player] = cl
}

// WaitClosed polls until the server has seen player's connection end, or timeout passes.
func (s *Server) WaitClosed(lobbyID, player string, timeout time.Duration) (Closure, bool) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		cl, ok := s.closures[lobbyID+"/"+player]
		s.mu.Unlock()
		if ok || time.Now().After(deadline) {
			return cl, ok
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (s *Server) record(c *client, packet map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.lobby + "/" + c.player
	s.received[key] = append(s.received[key], packet)
}

// Received returns every frame the server got from player in lobbyID, in order.
func (s *Server) Received(lobbyID, player string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := s.received[lobbyID+"/"+player]
	out := make([]map[string]interface{}, len(frames))
	copy(out, frames)
	return out
}

// WaitReceived polls until at least n frames arrived from player or timeout passes.
func (s *Server) WaitReceived(lobbyID, player string, n int, timeout time.Duration) []map[string]interface{} {
	deadline := time.Now().Add(timeout)
	for {
		frames := s.Received(lobbyID, player)
		if len(frames) >= n || time.Now().After(deadline) {
			return frames
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Players returns the lobby's current join order.
func (s *Server) Players(lobbyID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.lobbies[lobbyID]
	if !ok {
		return nil
	}
	out := make([]string, len(rm.players))
	copy(out, rm.players)
	return out
}

// Push writes a raw text frame to one player.
func (s *Server) Push(lobbyID, player, frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.clientUnsafe(lobbyID, player)
	if err != nil {
		return err
	}
	return s.enqueueUnsafe(c, websocket.MessageText, []byte(frame))
}

// PushBinary writes a binary frame to one player.
func (s *Server) PushBinary(lobbyID, player string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.clientUnsafe(lobbyID, player)
	if err != nil {
		return err
	}
	return s.enqueueUnsafe(c, websocket.MessageBinary, data)
}

// Broadcast writes a raw text frame to every player in lobbyID.
func (s *Server) Broadcast(lobbyID, frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.lobbies[lobbyID]
	if !ok {
		return
	}
	for _, c := range rm.clients {
		_ = s.enqueueUnsafe(c, websocket.MessageText, []byte(frame))
	}
}

// Kick closes one player's channel from the server side with the given code.
func (s *Server) Kick(lobbyID, player string, code websocket.StatusCode, reason string) error {
	s.mu.Lock()
	rm, ok := s.lobbies[lobbyID]
	var c *client
	if ok {
		c = rm.clients[player]
	}
	s.mu.Unlock()
	if c == nil {
		return fmt.Errorf("wstest: no player %q in lobby %q", player, lobbyID)
	}
	return c.ws.Close(code, reason)
}

func (s *Server) send(c *client, msg map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendUnsafe(c, msg)
}

func (s *Server) sendUnsafe(c *client, msg map[string]interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warnf("failed to marshal outgoing msg: %v", err)
		return
	}
	_ = s.enqueueUnsafe(c, websocket.MessageText, data)
}

func (s *Server) broadcastUnsafe(rm *room, msg map[string]interface{}) {
	for _, c := range rm.clients {
		s.sendUnsafe(c, msg)
	}
}

func (s *Server) enqueueUnsafe(c *client, typ websocket.MessageType, data []byte) error {
	select {
	case c.out <- outFrame{typ: typ, data: data}:
		return nil
	default:
		s.logger.Warnf("outbox for %s/%s full, dropped frame", c.lobby, c.player)
		return fmt.Errorf("wstest: outbox for %s/%s full", c.lobby, c.player)
	}
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func without(list []string, name string) []string {
	out := list[:0:0]
	for _, n := range list {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
