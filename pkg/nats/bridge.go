// Package nats bridges the chat server to a NATS deployment. Inbound
// subjects fan out to channels or to every participant; channel traffic can
// be published back out for external consumers.
package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"debugircd/internal/irc"
	"debugircd/internal/metrics"
)

// Command is the JSON shape published for channel messages.
type Command struct {
	Username string `json:"username"`
	Channel  string `json:"channel"`
	Text     string `json:"text"`
}

// Bridge holds the NATS connection and its subscriptions.
type Bridge struct {
	nc     *nats.Conn
	chat   *irc.Chat
	prefix string
	log    zerolog.Logger
	subs   []*nats.Subscription
}

// Dial connects and wires the inbound subscriptions:
//
//	<prefix>.channel.<name>  body delivered to channel #<name>
//	<prefix>.broadcast       body delivered to every participant as a NOTICE
func Dial(url, prefix string, chat *irc.Chat, logger zerolog.Logger) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	b := &Bridge{nc: nc, chat: chat, prefix: prefix, log: logger}

	channelSub, err := nc.Subscribe(prefix+".channel.*", b.handleChannel)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe channel subject: %w", err)
	}
	broadcastSub, err := nc.Subscribe(prefix+".broadcast", b.handleBroadcast)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe broadcast subject: %w", err)
	}
	b.subs = append(b.subs, channelSub, broadcastSub)

	logger.Info().Str("url", nc.ConnectedUrl()).Str("prefix", prefix).Msg("nats bridge connected")
	return b, nil
}

func (b *Bridge) handleChannel(msg *nats.Msg) {
	name := msg.Subject[strings.LastIndex(msg.Subject, ".")+1:]
	if name == "" {
		return
	}
	metrics.NATSMessages.WithLabelValues("in").Inc()
	b.chat.DeliverChannel("#"+name, string(msg.Data))
}

func (b *Bridge) handleBroadcast(msg *nats.Msg) {
	metrics.NATSMessages.WithLabelValues("in").Inc()
	b.chat.DeliverAll(fmt.Sprintf(":%s NOTICE * :%s\n", b.chat.ServerName(), msg.Data))
}

// Handler returns a message handler that publishes channel traffic to
// <prefix>.command.<name> (without the '#'). Used as the mux fallback so
// external consumers see everything said on non-system channels.
func (b *Bridge) Handler() irc.MessageHandler {
	return irc.HandlerFunc(func(username, channel, text string, _ irc.SendFunc) {
		cmd := Command{Username: username, Channel: channel, Text: text}
		data, err := json.Marshal(cmd)
		if err != nil {
			return
		}
		subject := b.prefix + ".command." + strings.TrimPrefix(channel, "#")
		if err := b.nc.Publish(subject, data); err != nil {
			b.log.Warn().Err(err).Str("subject", subject).Msg("nats publish failed")
			return
		}
		metrics.NATSMessages.WithLabelValues("out").Inc()
	})
}

// Close drains the subscriptions and closes the connection.
func (b *Bridge) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.nc.Close()
}
