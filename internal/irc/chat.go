package irc

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"debugircd/internal/metrics"
)

// Defaults matching the protocol this server has always spoken.
const (
	DefaultServerName      = "debugirc"
	DefaultMOTDStart       = "DebugIRC"
	DefaultMOTD            = "This is debug irc interface for logging and similar tasks"
	DefaultRegisterTimeout = 5 * time.Second
	DefaultPingInterval    = 300 * time.Second
	DefaultPingGrace       = 30 * time.Second
	DefaultLineRate        = rate.Limit(10)
	DefaultLineBurst       = 32
)

// Chat is the hub: the registry of channels, the global participant set and
// the server-wide configuration. Configuration scalars (server name, MOTD,
// auto-join, auth policy, message handler, timers) are written only before
// the acceptor starts and read concurrently afterwards without
// synchronization. The channel map and the participant set each have their
// own RWMutex; no operation holds both at once.
type Chat struct {
	serverName string
	motdStart  string
	motd       string
	autoJoin   string

	registerTimeout time.Duration
	pingInterval    time.Duration
	pingGrace       time.Duration

	lineRate  rate.Limit
	lineBurst int

	auth    AuthPolicy
	handler MessageHandler

	chanMu   sync.RWMutex
	channels map[string]*Channel

	partMu       sync.RWMutex
	participants map[Participant]struct{}
}

// NewChat creates a hub with the default configuration and an empty channel
// registry.
func NewChat() *Chat {
	return &Chat{
		serverName:      DefaultServerName,
		motdStart:       DefaultMOTDStart,
		motd:            DefaultMOTD,
		registerTimeout: DefaultRegisterTimeout,
		pingInterval:    DefaultPingInterval,
		pingGrace:       DefaultPingGrace,
		lineRate:        DefaultLineRate,
		lineBurst:       DefaultLineBurst,
		auth:            NickLengthPolicy{},
		channels:        make(map[string]*Channel),
		participants:    make(map[Participant]struct{}),
	}
}

func (c *Chat) ServerName() string { return c.serverName }
func (c *Chat) MOTDStart() string  { return c.motdStart }
func (c *Chat) MOTD() string       { return c.motd }
func (c *Chat) AutoJoin() string   { return c.autoJoin }

func (c *Chat) SetServerName(v string) { c.serverName = v }
func (c *Chat) SetMOTDStart(v string)  { c.motdStart = v }
func (c *Chat) SetMOTD(v string)       { c.motd = v }
func (c *Chat) SetAutoJoin(v string)   { c.autoJoin = v }

// SetTimeouts overrides the registration deadline and the two-phase
// liveness timers. Pre-start only.
func (c *Chat) SetTimeouts(register, pingInterval, pingGrace time.Duration) {
	c.registerTimeout = register
	c.pingInterval = pingInterval
	c.pingGrace = pingGrace
}

func (c *Chat) RegisterTimeout() time.Duration { return c.registerTimeout }
func (c *Chat) PingInterval() time.Duration    { return c.pingInterval }
func (c *Chat) PingGrace() time.Duration       { return c.pingGrace }

// SetLineRate configures per-session inbound flood protection. A limit of 0
// disables it. Pre-start only.
func (c *Chat) SetLineRate(limit rate.Limit, burst int) {
	c.lineRate = limit
	c.lineBurst = burst
}

func (c *Chat) LineRate() (rate.Limit, int) { return c.lineRate, c.lineBurst }

// SetAuthPolicy replaces the registration policy. Pre-start only.
func (c *Chat) SetAuthPolicy(p AuthPolicy) { c.auth = p }

// Authorize delegates to the configured policy.
func (c *Chat) Authorize(username, password string) bool {
	return c.auth != nil && c.auth.Authorize(username, password)
}

// SetMessageHandler installs the PRIVMSG interpreter. Pre-start only; may
// be left unset.
func (c *Chat) SetMessageHandler(h MessageHandler) { c.handler = h }

// MessageHandler returns the current handler, or nil.
func (c *Chat) MessageHandler() MessageHandler { return c.handler }

// AddChannel registers a channel under name. Channel names are unique; a
// second AddChannel with the same name replaces the first.
func (c *Chat) AddChannel(name, title string) {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	c.channels[name] = NewChannel(name, title)
}

// RemoveChannel drops a channel from the registry. Members keep their
// session state; the channel simply stops being routable.
func (c *Chat) RemoveChannel(name string) {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	delete(c.channels, name)
}

// VisitChannels calls visit for every registered channel under the shared
// lock. The visitor must not mutate the hub.
func (c *Chat) VisitChannels(visit func(*Channel)) {
	if visit == nil {
		return
	}
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()
	for _, ch := range c.channels {
		visit(ch)
	}
}

// ChannelCount returns the number of registered channels.
func (c *Chat) ChannelCount() int {
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()
	return len(c.channels)
}

// Join adds p to the global participant set.
func (c *Chat) Join(p Participant) {
	c.partMu.Lock()
	defer c.partMu.Unlock()
	c.participants[p] = struct{}{}
}

// Leave removes p from the global participant set. Idempotent.
func (c *Chat) Leave(p Participant) {
	c.partMu.Lock()
	defer c.partMu.Unlock()
	delete(c.participants, p)
}

// ParticipantCount returns the number of connected participants.
func (c *Chat) ParticipantCount() int {
	c.partMu.RLock()
	defer c.partMu.RUnlock()
	return len(c.participants)
}

// JoinChannel adds p to the named channel. Returns false if the channel is
// unknown or p was already a member.
func (c *Chat) JoinChannel(name string, p Participant) bool {
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()
	ch, ok := c.channels[name]
	if !ok {
		return false
	}
	return ch.Join(p)
}

// LeaveChannel removes p from the named channel. No-op if the channel is
// unknown.
func (c *Chat) LeaveChannel(name string, p Participant) {
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()
	if ch, ok := c.channels[name]; ok {
		ch.Leave(p)
	}
}

// DeliverAll fans text out verbatim to every participant in the global set.
// The caller supplies fully framed protocol bytes.
func (c *Chat) DeliverAll(text string) {
	if text == "" {
		return
	}
	msg := Message(text)
	metrics.BroadcastsTotal.Inc()
	c.partMu.RLock()
	defer c.partMu.RUnlock()
	for p := range c.participants {
		p.Deliver(msg)
	}
}

// DeliverChannel frames text as a server-originated PRIVMSG and broadcasts
// it to the named channel's members. No-op if the channel is unknown.
func (c *Chat) DeliverChannel(name, text string) {
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()
	ch, ok := c.channels[name]
	if !ok {
		return
	}
	metrics.BroadcastsTotal.Inc()
	ch.Deliver(Message(fmt.Sprintf(":%s PRIVMSG %s :%s\n", c.serverName, name, text)))
}
