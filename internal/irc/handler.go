package irc

import "sync"

// SendFunc emits one reply line back to the issuing session, framed as a
// server-originated PRIVMSG on the channel the command arrived on.
type SendFunc func(reply string)

// MessageHandler interprets PRIVMSG text sent to a channel. It may call
// send zero or more times. Handlers are invoked concurrently from multiple
// sessions and must not block.
type MessageHandler interface {
	Handle(username, channel, text string, send SendFunc)
}

// HandlerFunc adapts a plain function to a MessageHandler.
type HandlerFunc func(username, channel, text string, send SendFunc)

func (f HandlerFunc) Handle(username, channel, text string, send SendFunc) {
	f(username, channel, text, send)
}

// ChannelMux routes messages to the handler registered for the channel
// name, falling back to a default handler when no exact match exists.
type ChannelMux struct {
	mu       sync.RWMutex
	handlers map[string]MessageHandler
	fallback MessageHandler
}

func NewChannelMux() *ChannelMux {
	return &ChannelMux{handlers: make(map[string]MessageHandler)}
}

// Register binds h to an exact channel name.
func (m *ChannelMux) Register(channel string, h MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[channel] = h
}

// SetFallback installs the handler used when no channel matches.
func (m *ChannelMux) SetFallback(h MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = h
}

func (m *ChannelMux) Handle(username, channel, text string, send SendFunc) {
	m.mu.RLock()
	h, ok := m.handlers[channel]
	if !ok {
		h = m.fallback
	}
	m.mu.RUnlock()
	if h != nil {
		h.Handle(username, channel, text, send)
	}
}
