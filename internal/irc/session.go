package irc

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"debugircd/internal/metrics"
)

// Dispatch tables, keyed by the command token exactly as received
// (uppercase, case-sensitive). Registration and authorized phases have
// separate tables.
var registrationHandlers = map[string]func(*Session, string){
	"NICK": (*Session).handleNick,
	"PASS": (*Session).handlePass,
	"USER": (*Session).handleUser,
}

var sessionHandlers = map[string]func(*Session, string){
	"QUIT":    (*Session).handleQuit,
	"PING":    (*Session).handlePing,
	"PONG":    (*Session).handlePong,
	"JOIN":    (*Session).handleJoin,
	"PART":    (*Session).handlePart,
	"LIST":    (*Session).handleList,
	"WHO":     (*Session).handleWho,
	"PRIVMSG": (*Session).handlePrivmsg,
	"NOTICE":  (*Session).handleIgnore,
	"MODE":    (*Session).handleIgnore,
}

// Session is the per-connection protocol state machine. A dedicated
// goroutine runs the read loop; writes drain through a FIFO queue with a
// single outstanding write at a time; timers drive registration and
// liveness deadlines. All shared state is guarded by mu. Every
// per-connection fault resolves to Cleanup, which is idempotent.
type Session struct {
	chat *Chat
	conn io.ReadWriteCloser
	log  zerolog.Logger

	limiter *rate.Limiter // nil when flood protection is disabled

	// Registration state. Written on the reader goroutine under mu; the
	// reader may read its own writes without the lock.
	nick     string
	password string

	mu          sync.Mutex
	initialized bool
	authorized  bool
	closing     bool // drain the write queue, then Cleanup
	pingSent    bool
	active      map[string]struct{}
	queue       []Message

	registerTimer *time.Timer
	connTimer     *time.Timer
}

// NewSession wraps a connection. The session does not touch the connection
// until Start.
func NewSession(chat *Chat, conn io.ReadWriteCloser, logger zerolog.Logger) *Session {
	s := &Session{
		chat:   chat,
		conn:   conn,
		log:    logger,
		active: make(map[string]struct{}),
	}
	if limit, burst := chat.LineRate(); limit > 0 {
		s.limiter = rate.NewLimiter(limit, burst)
	}
	return s
}

// Start joins the hub's participant set, arms the registration deadline and
// launches the read loop.
func (s *Session) Start() {
	s.mu.Lock()
	s.initialized = true
	s.registerTimer = time.AfterFunc(s.chat.RegisterTimeout(), s.onRegisterTimeout)
	s.mu.Unlock()
	s.chat.Join(s)
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	go s.readLoop()
}

// Deliver queues msg for transmission. Empty messages and messages to a
// cleaned-up session are dropped silently. Safe to call from any goroutine;
// bytes go out in Deliver call order.
func (s *Session) Deliver(msg Message) {
	if len(msg) == 0 {
		return
	}
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	inFlight := len(s.queue) > 0
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	if !inFlight {
		go s.writeLoop()
	}
}

// writeLoop drains the queue. At most one instance runs at a time: Deliver
// only launches it when the queue transitions from empty, and it exits only
// after observing an empty queue under the lock. When the queue empties
// with the closing flag set, the session is torn down.
func (s *Session) writeLoop() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		msg := s.queue[0]
		s.mu.Unlock()

		if _, err := s.conn.Write(msg); err != nil {
			s.Cleanup()
			return
		}
		metrics.MessagesDelivered.Inc()
		metrics.BytesWritten.Add(float64(len(msg)))

		s.mu.Lock()
		s.queue = s.queue[1:]
		if len(s.queue) == 0 {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				s.Cleanup()
			}
			return
		}
		s.mu.Unlock()
	}
}

// readLoop reads newline-terminated lines until the connection fails, the
// flood limiter trips, or Cleanup closes the socket under us.
func (s *Session) readLoop() {
	r := bufio.NewReader(s.conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			s.Cleanup()
			return
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		metrics.LinesReceived.Inc()
		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn().Str("nick", s.nick).Msg("input rate exceeded, disconnecting")
			metrics.FloodDisconnects.Inc()
			s.mu.Lock()
			s.closing = true
			s.mu.Unlock()
			s.Deliver(Message("ERROR: flood\n"))
			return
		}
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line string) {
	if line == "" {
		return
	}
	command, data := splitCommand(line)
	s.mu.Lock()
	authorized := s.authorized
	s.mu.Unlock()
	table := sessionHandlers
	if !authorized {
		table = registrationHandlers
	}
	if h, ok := table[command]; ok {
		h(s, data)
		return
	}
	var b strings.Builder
	s.serverReply(&b, "421")
	fmt.Fprintf(&b, "%s :Command %s is unknown or unsupported\n", command, command)
	s.Deliver(Message(b.String()))
}

// serverReply writes the ":<server> <code> <nick> " prefix.
func (s *Session) serverReply(b *strings.Builder, code string) {
	fmt.Fprintf(b, ":%s %s %s ", s.chat.ServerName(), code, s.nick)
}

func (s *Session) handleNick(data string) {
	s.mu.Lock()
	s.nick = data
	s.mu.Unlock()
}

func (s *Session) handlePass(data string) {
	s.mu.Lock()
	s.password = data
	s.mu.Unlock()
}

// handleUser runs the authorization decision. Success cancels the
// registration deadline, arms the liveness timer and emits the welcome
// banner (plus the auto-join echo) as a single message; failure tears the
// connection down without a reply.
func (s *Session) handleUser(string) {
	if !s.chat.Authorize(s.nick, s.password) {
		s.log.Info().Str("nick", s.nick).Msg("authorization rejected")
		metrics.AuthFailures.Inc()
		s.Cleanup()
		return
	}
	s.mu.Lock()
	s.authorized = true
	s.registerTimer.Stop()
	s.connTimer = time.AfterFunc(s.chat.PingInterval(), s.onConnTimeout)
	s.mu.Unlock()

	server := s.chat.ServerName()
	var b strings.Builder
	s.serverReply(&b, "001")
	fmt.Fprintf(&b, ":Hi %s\n", s.nick)
	s.serverReply(&b, "002")
	fmt.Fprintf(&b, ":Your host is %s, running version 0.0.0\n", server)
	s.serverReply(&b, "003")
	b.WriteString(":This server was created 0\n")
	s.serverReply(&b, "004")
	fmt.Fprintf(&b, ":%s 0.0.0 - n\n", server)
	s.serverReply(&b, "375")
	fmt.Fprintf(&b, ":- %s %s -\n", server, s.chat.MOTDStart())
	s.serverReply(&b, "372")
	fmt.Fprintf(&b, ":- %s\n", s.chat.MOTD())

	if autoJoin := s.chat.AutoJoin(); autoJoin != "" {
		if s.chat.JoinChannel(autoJoin, s) {
			s.mu.Lock()
			s.active[autoJoin] = struct{}{}
			s.mu.Unlock()
			fmt.Fprintf(&b, ":%s!%s JOIN %s :%s\n", s.nick, s.nick, autoJoin, autoJoin)
		}
	}
	s.Deliver(Message(b.String()))
	s.log.Info().Str("nick", s.nick).Msg("registered")
}

func (s *Session) handleQuit(string) {
	s.Cleanup()
}

func (s *Session) handlePing(data string) {
	s.mu.Lock()
	if !s.pingSent && s.connTimer != nil {
		s.connTimer.Reset(s.chat.PingInterval())
	}
	s.mu.Unlock()
	server := s.chat.ServerName()
	s.Deliver(Message(fmt.Sprintf(":%s PONG %s :%s\n", server, server, data)))
}

func (s *Session) handlePong(string) {
	s.mu.Lock()
	if s.pingSent {
		s.pingSent = false
		s.connTimer.Reset(s.chat.PingInterval())
	}
	s.mu.Unlock()
}

func (s *Session) handleJoin(data string) {
	if strings.HasPrefix(data, "#") && s.chat.JoinChannel(data, s) {
		s.mu.Lock()
		s.active[data] = struct{}{}
		s.mu.Unlock()
		s.deliverJoinEcho(data)
		return
	}
	s.mu.Lock()
	_, member := s.active[data]
	s.mu.Unlock()
	if member {
		// Re-JOIN of a channel we are already on echoes as if it succeeded.
		s.deliverJoinEcho(data)
		return
	}
	s.deliverNoSuchChannel(data)
}

func (s *Session) deliverJoinEcho(channel string) {
	s.Deliver(Message(fmt.Sprintf(":%s!%s JOIN %s :%s\n", s.nick, s.nick, channel, channel)))
}

// deliverNoSuchChannel emits 403 with the client's nick in the sender
// position, matching the wire format this server has always produced.
func (s *Session) deliverNoSuchChannel(arg string) {
	s.Deliver(Message(fmt.Sprintf(":%s 403 %s :No such channel\n", s.nick, arg)))
}

func (s *Session) handlePart(data string) {
	channel, reason := splitPart(data)
	if len(channel) < 2 || channel[0] != '#' {
		s.deliverNoSuchChannel(channel)
		return
	}
	var b strings.Builder
	if reason != "" {
		fmt.Fprintf(&b, ":%s!%s PART %s :%s\n", s.nick, s.nick, channel, reason)
	} else {
		fmt.Fprintf(&b, ":%s!%s PART %s\n", s.nick, s.nick, channel)
	}
	s.chat.LeaveChannel(channel, s)
	s.mu.Lock()
	delete(s.active, channel)
	s.mu.Unlock()
	s.Deliver(Message(b.String()))
}

func (s *Session) handleList(string) {
	server := s.chat.ServerName()
	var b strings.Builder
	s.serverReply(&b, "321")
	b.WriteString("Channel :Users  Name\n")
	s.chat.VisitChannels(func(ch *Channel) {
		// Member count is reported as the literal 999.
		fmt.Fprintf(&b, ":%s 322 %s %s 999 :%s\n", server, s.nick, ch.Name(), ch.Title())
	})
	s.serverReply(&b, "323")
	b.WriteString(":End of /LIST\n")
	s.Deliver(Message(b.String()))
}

func (s *Session) handleWho(data string) {
	var b strings.Builder
	s.serverReply(&b, "315")
	fmt.Fprintf(&b, "%s :End of /WHO list.\n", data)
	s.Deliver(Message(b.String()))
}

func (s *Session) handlePrivmsg(data string) {
	channel, text := splitPrivmsg(data)
	if channel == "" || text == "" {
		return
	}
	handler := s.chat.MessageHandler()
	if handler == nil {
		return
	}
	server := s.chat.ServerName()
	handler.Handle(s.nick, channel, text, func(reply string) {
		if reply == "" {
			return
		}
		s.Deliver(Message(fmt.Sprintf(":%s PRIVMSG %s :%s\n", server, channel, reply)))
	})
}

func (s *Session) handleIgnore(string) {}

// onRegisterTimeout fires when no successful USER arrived within the
// registration deadline: flag the session for drain-then-close and send the
// ERROR line. The write path performs the actual Cleanup once the queue
// empties.
func (s *Session) onRegisterTimeout() {
	s.mu.Lock()
	if !s.initialized || s.authorized {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.mu.Unlock()
	metrics.Timeouts.WithLabelValues("register").Inc()
	s.log.Info().Msg("registration timeout")
	s.Deliver(Message("ERROR: registration timeout\n"))
}

// onConnTimeout drives the two-phase liveness check: first expiry sends a
// PING probe and re-arms for the grace window; expiry with the probe still
// outstanding drains and closes. Any PONG (or a client PING while no probe
// is outstanding) pushes the deadline back to the full interval.
func (s *Session) onConnTimeout() {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	if s.pingSent {
		s.closing = true
		s.mu.Unlock()
		metrics.Timeouts.WithLabelValues("connection").Inc()
		s.log.Info().Str("nick", s.nick).Msg("connection timeout")
		s.Deliver(Message("ERROR: connection timeout\n"))
		return
	}
	s.pingSent = true
	s.connTimer.Reset(s.chat.PingGrace())
	s.mu.Unlock()
	s.Deliver(Message(fmt.Sprintf("PING :%s\n", s.chat.ServerName())))
}

// Cleanup leaves every joined channel and the hub's participant set, stops
// the timers and closes the connection. Idempotent: only the first call has
// any effect. Closing the connection makes any outstanding read or write
// fail, which re-enters Cleanup harmlessly.
func (s *Session) Cleanup() {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = false
	active := s.active
	s.active = make(map[string]struct{})
	registerTimer, connTimer := s.registerTimer, s.connTimer
	nick := s.nick
	s.mu.Unlock()

	if registerTimer != nil {
		registerTimer.Stop()
	}
	if connTimer != nil {
		connTimer.Stop()
	}
	for name := range active {
		s.chat.LeaveChannel(name, s)
	}
	s.chat.Leave(s)
	s.conn.Close()
	metrics.ConnectionsActive.Dec()
	s.log.Debug().Str("nick", nick).Msg("session closed")
}
