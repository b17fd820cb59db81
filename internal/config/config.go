// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the client configuration. Values come from an optional YAML file,
// then the environment (a .env file is autoloaded by the binary).
type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	ServerURL  string `yaml:"server-url" env:"RATSCREW_SERVER_URL" env-default:"ws://localhost:8000"`
	LobbyID    string `yaml:"lobby-id" env:"RATSCREW_LOBBY" env-default:"lobby1"`
	PlayerName string `yaml:"player-name" env:"RATSCREW_PLAYER"`

	Session Session `yaml:"session"`
	Audit   Audit   `yaml:"audit"`
	Bot     Bot     `yaml:"bot"`
}

// Session holds the per-connection timing knobs. Zero ReadTimeout or PingInterval disables them.
type Session struct {
	DialTimeout  time.Duration `yaml:"dial-timeout" env:"RATSCREW_DIAL_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"RATSCREW_WRITE_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read-timeout" env:"RATSCREW_READ_TIMEOUT" env-default:"0s"`
	PingInterval time.Duration `yaml:"ping-interval" env:"RATSCREW_PING_INTERVAL" env-default:"30s"`
	EventBuffer  int           `yaml:"event-buffer" env:"RATSCREW_EVENT_BUFFER" env-default:"64"`

	// MaxFrameSize is the largest inbound frame in bytes. A bigger frame ends the
	// session with a transport error because the socket cannot skip past it.
	MaxFrameSize int64 `yaml:"max-frame-size" env:"RATSCREW_MAX_FRAME_SIZE" env-default:"1048576"`
}

// Audit configures the diagnostics mirror for unknown and malformed frames.
// An empty RedisAddr disables it.
type Audit struct {
	RedisAddr string `yaml:"redis-addr" env:"AUDIT_REDIS_ADDR"`
	RedisDB   int    `yaml:"redis-db" env:"AUDIT_REDIS_DB" env-default:"0"`
	List      string `yaml:"list" env:"AUDIT_REDIS_LIST" env-default:"ratscrew_audit"`
}

// Bot tunes the optional autoplay mode of the terminal client.
type Bot struct {
	SlapChance float64       `yaml:"slap-chance" env:"RATSCREW_BOT_SLAP_CHANCE" env-default:"0.5"`
	MinDelay   time.Duration `yaml:"min-delay" env:"RATSCREW_BOT_MIN_DELAY" env-default:"100ms"`
	MaxDelay   time.Duration `yaml:"max-delay" env:"RATSCREW_BOT_MAX_DELAY" env-default:"500ms"`
}

// Load reads path when non-empty, otherwise only the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics, for use from main.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the values cleanenv cannot express with tags.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("config: server url is empty")
	}
	if c.Session.DialTimeout <= 0 {
		return fmt.Errorf("config: dial timeout must be positive, got %s", c.Session.DialTimeout)
	}
	if c.Session.WriteTimeout <= 0 {
		return fmt.Errorf("config: write timeout must be positive, got %s", c.Session.WriteTimeout)
	}
	if c.Session.ReadTimeout < 0 || c.Session.PingInterval < 0 {
		return fmt.Errorf("config: read timeout and ping interval cannot be negative")
	}
	if c.Session.EventBuffer < 1 {
		return fmt.Errorf("config: event buffer must be at least 1, got %d", c.Session.EventBuffer)
	}
	if c.Session.MaxFrameSize < 1 {
		return fmt.Errorf("config: max frame size must be positive, got %d", c.Session.MaxFrameSize)
	}
	if c.Bot.SlapChance < 0 || c.Bot.SlapChance > 1 {
		return fmt.Errorf("config: bot slap chance must be within [0,1], got %v", c.Bot.SlapChance)
	}
	if c.Bot.MaxDelay < c.Bot.MinDelay {
		return fmt.Errorf("config: bot max delay %s is below min delay %s", c.Bot.MaxDelay, c.Bot.MinDelay)
	}
	return nil
}
