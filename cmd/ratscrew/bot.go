// cmd/ratscrew/bot.go
package main

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jason-s-yu/ratscrew/internal/apperror"
	"github.com/jason-s-yu/ratscrew/internal/config"
	"github.com/jason-s-yu/ratscrew/internal/lobby"
	"github.com/jason-s-yu/ratscrew/internal/seats"
	"github.com/sirupsen/logrus"
)

type botAction int

const (
	botIdle botAction = iota
	botPlay
	botSlap
)

func (a botAction) String() string {
	switch a {
	case botPlay:
		return "play"
	case botSlap:
		return "slap"
	default:
		return "idle"
	}
}

// decide picks at most one action for seat given the previous and current views.
// It plays when a new game_state hands seat the turn, and slaps on a fresh
// slap_opportunity when roll is below slapChance.
func decide(seat string, prev, cur lobby.View, slapChance, roll float64) botAction {
	if !cur.CanAct() {
		return botIdle
	}
	if cur.SlapOpportunity && !prev.SlapOpportunity {
		if roll < slapChance {
			return botSlap
		}
		return botIdle
	}
	newState := !bytes.Equal(cur.CurrentState, prev.CurrentState)
	if newState && currentPlayer(cur.CurrentState) == seat {
		return botPlay
	}
	return botIdle
}

// autoplayer drives one seat from its view stream.
type autoplayer struct {
	seat   *seats.Seat
	cfg    config.Bot
	rng    *rand.Rand
	views  chan lobby.View
	logger *logrus.Entry
}

func newAutoplayer(seat *seats.Seat, cfg config.Bot, logger *logrus.Logger) *autoplayer {
	return &autoplayer{
		seat:   seat,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		views:  make(chan lobby.View, 64),
		logger: logger.WithField("bot", seat.Name),
	}
}

// observe queues v for the bot without blocking the seat's fold.
func (b *autoplayer) observe(v lobby.View) {
	select {
	case b.views <- v:
	default:
		b.logger.Warn("Bot is falling behind, dropped a view")
	}
}

// run reacts to queued views until ctx is done.
func (b *autoplayer) run(ctx context.Context) {
	var prev lobby.View
	for {
		select {
		case <-ctx.Done():
			return
		case cur := <-b.views:
			action := decide(b.seat.Name, prev, cur, b.cfg.SlapChance, b.rng.Float64())
			prev = cur
			if action == botIdle {
				continue
			}
			if !b.think(ctx) {
				return
			}
			b.act(ctx, action)
		}
	}
}

// think sleeps a random delay between MinDelay and MaxDelay.
func (b *autoplayer) think(ctx context.Context) bool {
	delay := b.cfg.MinDelay
	if spread := b.cfg.MaxDelay - b.cfg.MinDelay; spread > 0 {
		delay += time.Duration(b.rng.Int63n(int64(spread)))
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (b *autoplayer) act(ctx context.Context, action botAction) {
	var err error
	switch action {
	case botPlay:
		err = b.seat.State.RequestPlay(ctx)
	case botSlap:
		err = b.seat.State.RequestSlap(ctx)
	}
	switch {
	case err == nil:
		b.logger.Debugf("Bot sent %s", action)
	case errors.Is(err, apperror.ErrGameFinished), errors.Is(err, apperror.ErrNotConnected):
		b.logger.Debugf("Bot skipped %s: %v", action, err)
	default:
		b.logger.Warnf("Bot failed to %s: %v", action, err)
	}
}
