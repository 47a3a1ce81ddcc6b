package irc

import (
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Server owns the listening socket and spawns a Session per accepted
// connection.
type Server struct {
	chat *Chat
	log  zerolog.Logger
	ln   net.Listener
}

func NewServer(chat *Chat, logger zerolog.Logger) *Server {
	return &Server{chat: chat, log: logger}
}

// Listen binds the TCP listening socket.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Close. Transient accept errors are logged
// and retried after a short pause.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("accept failed")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("connection accepted")
		sess := NewSession(s.chat, conn, s.log.With().Str("remote", conn.RemoteAddr().String()).Logger())
		sess.Start()
	}
}

// Close stops the listener. Established sessions keep running until they
// disconnect on their own terms.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
