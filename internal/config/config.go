// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every tunable. Defaults reproduce the historical behavior
// of the server: auto-join #system, 5s registration window, 300s+30s
// liveness timers.
type Config struct {
	ServerName string `env:"IRC_SERVER_NAME" envDefault:"debugirc"`
	MOTDStart  string `env:"IRC_MOTD_START" envDefault:"DebugIRC"`
	MOTD       string `env:"IRC_MOTD" envDefault:"This is debug irc interface for logging and similar tasks"`

	// Channels is a comma-separated list of name|title pairs, e.g.
	// "#system|System channel,#debug|DEBUG".
	Channels []string `env:"IRC_CHANNELS" envSeparator:"," envDefault:"#system|System channel,#debug|DEBUG,#test|,#test2|"`
	AutoJoin string   `env:"IRC_AUTO_JOIN" envDefault:"#system"`

	RegisterTimeout time.Duration `env:"IRC_REGISTER_TIMEOUT" envDefault:"5s"`
	PingInterval    time.Duration `env:"IRC_PING_INTERVAL" envDefault:"300s"`
	PingGrace       time.Duration `env:"IRC_PING_GRACE" envDefault:"30s"`

	// MaxLineRate throttles inbound lines per session, 0 disables.
	MaxLineRate  float64 `env:"IRC_MAX_LINE_RATE" envDefault:"10"`
	MaxLineBurst int     `env:"IRC_MAX_LINE_BURST" envDefault:"32"`

	// AuthMode selects the registration policy: "nick" (any nick of sane
	// length) or "jwt" (PASS must carry a token signed with JWTSecret).
	AuthMode  string `env:"IRC_AUTH_MODE" envDefault:"nick"`
	JWTSecret string `env:"IRC_JWT_SECRET"`

	AdminAddr string `env:"IRC_ADMIN_ADDR" envDefault:":9090"`
	WSAddr    string `env:"IRC_WS_ADDR"`

	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"debugirc"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DemoTraffic bool `env:"IRC_DEMO_TRAFFIC" envDefault:"false"`
}

// ChannelDef is one parsed IRC_CHANNELS entry.
type ChannelDef struct {
	Name  string
	Title string
}

// Load reads .env if present, then the process environment, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.ServerName == "" {
		return fmt.Errorf("IRC_SERVER_NAME must not be empty")
	}
	if c.RegisterTimeout <= 0 {
		return fmt.Errorf("IRC_REGISTER_TIMEOUT must be positive, got %s", c.RegisterTimeout)
	}
	if c.PingInterval <= 0 || c.PingGrace <= 0 {
		return fmt.Errorf("IRC_PING_INTERVAL and IRC_PING_GRACE must be positive")
	}
	if c.MaxLineRate < 0 {
		return fmt.Errorf("IRC_MAX_LINE_RATE must not be negative")
	}
	if c.MaxLineRate > 0 && c.MaxLineBurst <= 0 {
		return fmt.Errorf("IRC_MAX_LINE_BURST must be positive when rate limiting is on")
	}

	switch c.AuthMode {
	case "nick":
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("IRC_JWT_SECRET is required when IRC_AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("IRC_AUTH_MODE must be nick or jwt, got %q", c.AuthMode)
	}

	defs, err := c.ChannelDefs()
	if err != nil {
		return err
	}
	if c.AutoJoin != "" {
		found := false
		for _, d := range defs {
			if d.Name == c.AutoJoin {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("IRC_AUTO_JOIN %q is not in IRC_CHANNELS", c.AutoJoin)
		}
	}
	return nil
}

// ChannelDefs parses the IRC_CHANNELS entries. An entry without '|' gets an
// empty title.
func (c *Config) ChannelDefs() ([]ChannelDef, error) {
	defs := make([]ChannelDef, 0, len(c.Channels))
	for _, raw := range c.Channels {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, title, _ := strings.Cut(raw, "|")
		if !strings.HasPrefix(name, "#") || len(name) < 2 {
			return nil, fmt.Errorf("IRC_CHANNELS entry %q: channel name must start with #", raw)
		}
		defs = append(defs, ChannelDef{Name: name, Title: title})
	}
	return defs, nil
}
