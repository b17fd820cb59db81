// internal/audit/redis.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ratscrew/internal/config"
	"github.com/redis/go-redis/v9"
)

// DefaultListName is the Redis list diagnostics entries are appended to.
var DefaultListName = "ratscrew_audit"

// Entry kinds.
const (
	KindUnknown   = "unknown"   // frame with an unrecognized type, kept for diagnostics
	KindMalformed = "malformed" // frame dropped because it failed validation
)

// Entry records one inbound frame the client could not apply to its view.
type Entry struct {
	SessionID uuid.UUID       `json:"session_id"`
	LobbyID   string          `json:"lobby_id"`
	Player    string          `json:"player"`
	Kind      string          `json:"kind"`
	Type      string          `json:"type,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Sink receives audit entries. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// RedisSink RPUSHes JSON-encoded entries onto a Redis list.
type RedisSink struct {
	Client *redis.Client
	List   string
}

// NewRedisSink returns a RedisSink for cfg, or Nop when no address is configured.
// The connection is checked with a PING bounded by 5 seconds.
func NewRedisSink(ctx context.Context, cfg config.Audit) (Sink, func() error, error) {
	if cfg.RedisAddr == "" {
		return Nop{}, func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	list := cfg.List
	if list == "" {
		list = DefaultListName
	}
	return &RedisSink{Client: rdb, List: list}, rdb.Close, nil
}

// Record serializes entry and pushes it onto the list.
func (s *RedisSink) Record(ctx context.Context, entry Entry) error {
	data, err := Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.Client.RPush(ctx, s.List, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", s.List, err)
	}
	return nil
}

// Marshal encodes entry, stamping it with the current time when Timestamp is unset.
// Raw is dropped if it is not valid JSON so the entry itself always encodes.
func Marshal(entry Entry) ([]byte, error) {
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	if len(entry.Raw) > 0 && !json.Valid(entry.Raw) {
		if entry.Error == "" {
			entry.Error = fmt.Sprintf("raw frame: %q", string(entry.Raw))
		} else {
			entry.Error = fmt.Sprintf("%s; raw frame: %q", entry.Error, string(entry.Raw))
		}
		entry.Raw = nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	return data, nil
}
