// internal/seats/registry.go
package seats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jason-s-yu/ratscrew/internal/audit"
	"github.com/jason-s-yu/ratscrew/internal/lobby"
	"github.com/jason-s-yu/ratscrew/internal/session"
	"github.com/sirupsen/logrus"
)

// Seat pairs one session with the state folded from it.
type Seat struct {
	Name  string
	Conn  *session.Conn
	State *lobby.State
}

// Run folds the seat's events into its State until the session ends or ctx is done.
func (s *Seat) Run(ctx context.Context, onChange func(lobby.View)) error {
	return s.State.Run(ctx, s.Conn.Events(), onChange)
}

// Registry owns the seats a front end has opened, keyed by player name. It exists
// so one process can sit several players at a table; the session core never sees it.
type Registry struct {
	mu     sync.Mutex
	seats  map[string]*Seat
	opts   session.Options
	sink   audit.Sink
	logger *logrus.Logger
}

// NewRegistry creates an empty Registry whose seats share opts and sink.
func NewRegistry(opts session.Options, sink audit.Sink) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		seats:  make(map[string]*Seat),
		opts:   opts,
		sink:   sink,
		logger: logger,
	}
}

// Open starts a session for playerName in lobbyID and registers it. Names are
// unique per registry; opening a name twice fails without touching the first seat.
func (r *Registry) Open(ctx context.Context, lobbyID, playerName string) (*Seat, error) {
	name := strings.TrimSpace(playerName)

	r.mu.Lock()
	if _, exists := r.seats[name]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("seat %q already open", name)
	}
	r.mu.Unlock()

	conn, err := session.Open(ctx, r.opts, lobbyID, name)
	if err != nil {
		return nil, err
	}
	seat := &Seat{
		Name:  conn.PlayerName,
		Conn:  conn,
		State: lobby.NewForConn(conn, r.sink, r.logger),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.seats[seat.Name]; exists {
		_ = conn.Close()
		return nil, fmt.Errorf("seat %q already open", seat.Name)
	}
	r.seats[seat.Name] = seat
	r.logger.Debugf("Seats: opened %s in lobby %s (session %s)", seat.Name, lobbyID, conn.ID)
	return seat, nil
}

// Get returns the seat for name.
func (r *Registry) Get(name string) (*Seat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[name]
	return s, ok
}

// Remove closes and forgets the seat for name. It reports whether one existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	s, ok := r.seats[name]
	delete(r.seats, name)
	r.mu.Unlock()
	if !ok {
		return false
	}
	_ = s.Conn.Close()
	r.logger.Debugf("Seats: removed %s", name)
	return true
}

// Names lists open seats in lexical order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.seats))
	for n := range r.seats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len is the number of open seats.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seats)
}

// CloseAll closes every seat and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	seats := r.seats
	r.seats = make(map[string]*Seat)
	r.mu.Unlock()

	for _, s := range seats {
		_ = s.Conn.Close()
	}
}
