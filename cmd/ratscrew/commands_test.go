// cmd/ratscrew/commands_test.go
package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jason-s-yu/ratscrew/internal/apperror"
	"github.com/jason-s-yu/ratscrew/internal/config"
	"github.com/jason-s-yu/ratscrew/internal/seats"
	"github.com/jason-s-yu/ratscrew/internal/session"
	"github.com/jason-s-yu/ratscrew/internal/wstest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	names := []string{"Alice", "Bob"}
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{"play", command{Verb: verbPlay}, false},
		{"  SLAP ", command{Verb: verbSlap}, false},
		{"bob start", command{Seat: "Bob", Verb: verbStart}, false},
		{"Alice view", command{Seat: "Alice", Verb: verbView}, false},
		{"quit", command{Verb: verbQuit}, false},
		{"dance", command{}, true},
		{"carol play", command{}, true},
		{"alice play now", command{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, err := parseCommand(tc.line, names)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := parseCommand("   ", names)
	assert.ErrorIs(t, err, errEmptyCommand)
}

func TestConsoleAgainstRelay(t *testing.T) {
	srv := wstest.NewServer(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	reg := seats.NewRegistry(session.Options{
		ServerURL: srv.URL(),
		Timings:   config.Session{DialTimeout: time.Second, WriteTimeout: time.Second, EventBuffer: 64},
		Logger:    logger,
	}, nil)
	t.Cleanup(reg.CloseAll)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, name := range []string{"Alice", "Bob"} {
		seat, err := reg.Open(ctx, "L1", name)
		require.NoError(t, err)
		go func() { _ = seat.Run(ctx, nil) }()
	}
	alice, _ := reg.Get("Alice")
	bob, _ := reg.Get("Bob")
	for _, s := range []*seats.Seat{alice, bob} {
		require.Eventually(t, func() bool { return s.State.Snapshot().PlayerCount == 2 }, 2*time.Second, 10*time.Millisecond)
	}

	var buf bytes.Buffer
	quit := false
	c := &console{
		reg:         reg,
		out:         &renderer{w: &buf},
		defaultSeat: "Alice",
		logger:      logger,
		quit:        func() { quit = true },
	}

	assert.ErrorIs(t, c.execute(ctx, command{Verb: verbPlay}), apperror.ErrInvalidAction)

	c.readCommands(ctx, strings.NewReader("bob start\nalice view\nseats\nquit\n"))
	assert.True(t, quit)
	assert.Contains(t, buf.String(), "== Alice in lobby L1 ==")
	assert.Contains(t, buf.String(), "seats: Alice, Bob")

	frames := srv.WaitReceived("L1", "Bob", 2, time.Second)
	require.Len(t, frames, 2)
	assert.Equal(t, "start_game", frames[1]["type"])

	require.Eventually(t, func() bool { return alice.State.Snapshot().GameStarted }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, c.execute(ctx, command{Verb: verbPlay}))
	assert.Len(t, srv.WaitReceived("L1", "Alice", 2, time.Second), 2)
}
