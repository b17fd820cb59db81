// cmd/ratscrew/commands.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jason-s-yu/ratscrew/internal/seats"
	"github.com/sirupsen/logrus"
)

type verb string

const (
	verbStart verb = "start"
	verbPlay  verb = "play"
	verbSlap  verb = "slap"
	verbView  verb = "view"
	verbSeats verb = "seats"
	verbHelp  verb = "help"
	verbQuit  verb = "quit"
)

var verbs = []verb{verbStart, verbPlay, verbSlap, verbView, verbSeats, verbHelp, verbQuit}

var errEmptyCommand = errors.New("empty command")

// command is one parsed stdin line. Seat is empty when the line named none.
type command struct {
	Seat string
	Verb verb
}

// parseCommand accepts "<verb>" or "<seat> <verb>". seatNames resolves the seat
// case-insensitively so "alice play" reaches seat "Alice".
func parseCommand(line string, seatNames []string) (command, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return command{}, errEmptyCommand
	case 1:
		v, ok := lookupVerb(fields[0])
		if !ok {
			return command{}, fmt.Errorf("unknown command %q, try 'help'", fields[0])
		}
		return command{Verb: v}, nil
	case 2:
		seat, ok := lookupSeat(fields[0], seatNames)
		if !ok {
			return command{}, fmt.Errorf("no seat named %q", fields[0])
		}
		v, ok := lookupVerb(fields[1])
		if !ok {
			return command{}, fmt.Errorf("unknown command %q, try 'help'", fields[1])
		}
		return command{Seat: seat, Verb: v}, nil
	default:
		return command{}, fmt.Errorf("too many words in %q", line)
	}
}

func lookupVerb(word string) (verb, bool) {
	v := verb(strings.ToLower(word))
	return v, slices.Contains(verbs, v)
}

func lookupSeat(word string, seatNames []string) (string, bool) {
	for _, n := range seatNames {
		if strings.EqualFold(n, word) {
			return n, true
		}
	}
	return "", false
}

// console executes commands against the registry. defaultSeat is used when a
// command names no seat.
type console struct {
	reg         *seats.Registry
	out         *renderer
	defaultSeat string
	logger      *logrus.Logger
	quit        func()
}

// execute runs one command. Rejections from the lobby state come back as errors
// and are reported, never fatal.
func (c *console) execute(ctx context.Context, cmd command) error {
	switch cmd.Verb {
	case verbHelp:
		c.out.printf("commands: [seat] start | [seat] play | [seat] slap | [seat] view | seats | quit\n")
		return nil
	case verbSeats:
		c.out.printf("seats: %s\n", strings.Join(c.reg.Names(), ", "))
		return nil
	case verbQuit:
		c.quit()
		return nil
	}

	name := cmd.Seat
	if name == "" {
		name = c.defaultSeat
	}
	seat, ok := c.reg.Get(name)
	if !ok {
		return fmt.Errorf("no seat named %q", name)
	}

	switch cmd.Verb {
	case verbStart:
		return seat.State.RequestStartGame(ctx)
	case verbPlay:
		return seat.State.RequestPlay(ctx)
	case verbSlap:
		return seat.State.RequestSlap(ctx)
	case verbView:
		c.out.full(seat.Name, seat.State.Snapshot())
		return nil
	}
	return fmt.Errorf("unhandled command %q", cmd.Verb)
}

// readCommands consumes lines from r until EOF or ctx is done.
func (c *console) readCommands(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		cmd, err := parseCommand(scanner.Text(), c.reg.Names())
		if errors.Is(err, errEmptyCommand) {
			continue
		}
		if err != nil {
			c.out.printf("%v\n", err)
			continue
		}
		if err := c.execute(ctx, cmd); err != nil {
			c.out.printf("%s: %v\n", cmd.Verb, err)
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warnf("stdin: %v", err)
	}
}
