// Package wsgateway exposes the chat protocol over WebSocket. Each text
// frame from the client is treated as one protocol line; each write from
// the session goes out as one text frame.
package wsgateway

import (
	"net"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"

	"debugircd/internal/irc"
)

type Gateway struct {
	chat *irc.Chat
	log  zerolog.Logger
	srv  *http.Server
}

func NewGateway(addr string, chat *irc.Chat, logger zerolog.Logger) *Gateway {
	g := &Gateway{chat: chat, log: logger}
	g.srv = &http.Server{Addr: addr, Handler: http.HandlerFunc(g.handleUpgrade)}
	return g
}

func (g *Gateway) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	g.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket connection accepted")
	sess := irc.NewSession(g.chat, newFrameConn(conn),
		g.log.With().Str("remote", conn.RemoteAddr().String()).Str("transport", "ws").Logger())
	sess.Start()
}

// ListenAndServe blocks until the gateway stops.
func (g *Gateway) ListenAndServe() error {
	g.log.Info().Str("addr", g.srv.Addr).Msg("websocket gateway listening")
	err := g.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (g *Gateway) Close() error {
	return g.srv.Close()
}

// frameConn adapts a WebSocket connection to the io.ReadWriteCloser the
// session expects. Reads surface each client text frame as a
// newline-terminated line; writes send one server text frame per call.
type frameConn struct {
	conn net.Conn
	buf  []byte
}

func newFrameConn(conn net.Conn) *frameConn {
	return &frameConn{conn: conn}
}

func (f *frameConn) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		payload, err := wsutil.ReadClientText(f.conn)
		if err != nil {
			return 0, err
		}
		if len(payload) == 0 {
			continue
		}
		if payload[len(payload)-1] != '\n' {
			payload = append(payload, '\n')
		}
		f.buf = payload
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}

func (f *frameConn) Write(p []byte) (int, error) {
	if err := wsutil.WriteServerText(f.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f *frameConn) Close() error {
	return f.conn.Close()
}
