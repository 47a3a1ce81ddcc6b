package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	_ "go.uber.org/automaxprocs"

	"debugircd/internal/admin"
	"debugircd/internal/auth"
	"debugircd/internal/config"
	"debugircd/internal/irc"
	"debugircd/internal/logging"
	"debugircd/internal/sysinfo"
	"debugircd/internal/wsgateway"
	natsbridge "debugircd/pkg/nats"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <port>\n", os.Args[0])
		os.Exit(1)
	}
	port := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	chat := irc.NewChat()
	chat.SetServerName(cfg.ServerName)
	chat.SetMOTDStart(cfg.MOTDStart)
	chat.SetMOTD(cfg.MOTD)
	chat.SetTimeouts(cfg.RegisterTimeout, cfg.PingInterval, cfg.PingGrace)
	chat.SetLineRate(rate.Limit(cfg.MaxLineRate), cfg.MaxLineBurst)

	defs, err := cfg.ChannelDefs()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid channel list")
	}
	for _, d := range defs {
		chat.AddChannel(d.Name, d.Title)
	}
	chat.SetAutoJoin(cfg.AutoJoin)

	if cfg.AuthMode == "jwt" {
		chat.SetAuthPolicy(auth.NewTokenPolicy(cfg.JWTSecret))
		log.Info().Msg("jwt registration policy enabled")
	}

	mux := irc.NewChannelMux()
	if cfg.AutoJoin != "" {
		mux.Register(cfg.AutoJoin, sysinfo.NewHandler(chat))
	}

	var bridge *natsbridge.Bridge
	if cfg.NATSURL != "" {
		bridge, err = natsbridge.Dial(cfg.NATSURL, cfg.NATSSubjectPrefix, chat, log)
		if err != nil {
			log.Fatal().Err(err).Msg("nats bridge failed")
		}
		defer bridge.Close()
		mux.SetFallback(bridge.Handler())
	} else {
		// Without a broker, echo channel traffic back to the channel so the
		// server is still useful standalone.
		mux.SetFallback(irc.HandlerFunc(func(username, channel, text string, _ irc.SendFunc) {
			chat.DeliverChannel(channel, fmt.Sprintf("%s says %s on channel %s", username, text, channel))
		}))
	}
	chat.SetMessageHandler(mux)

	srv := irc.NewServer(chat, log)
	if err := srv.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Str("port", port).Msg("listen failed")
	}
	log.Info().Str("addr", srv.Addr().String()).Msg("chat server listening")
	go func() {
		if err := srv.Serve(); err != nil {
			log.Error().Err(err).Msg("accept loop exited")
		}
	}()

	adminSrv := admin.NewServer(cfg.AdminAddr, chat, log)
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil {
			log.Error().Err(err).Msg("admin endpoint exited")
		}
	}()

	var gateway *wsgateway.Gateway
	if cfg.WSAddr != "" {
		gateway = wsgateway.NewGateway(cfg.WSAddr, chat, log)
		go func() {
			if err := gateway.ListenAndServe(); err != nil {
				log.Error().Err(err).Msg("websocket gateway exited")
			}
		}()
	}

	stopDemo := make(chan struct{})
	if cfg.DemoTraffic {
		go demoTraffic(chat, stopDemo, log)
	}

	waitForShutdown(log)

	close(stopDemo)
	if gateway != nil {
		gateway.Close()
	}
	adminSrv.Close()
	srv.Close()
	log.Info().Msg("shutdown complete")
}

func waitForShutdown(log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}

// demoTraffic periodically posts generated messages to the debug channels,
// useful when eyeballing client behavior.
func demoTraffic(chat *irc.Chat, stop <-chan struct{}, log zerolog.Logger) {
	log.Info().Msg("demo traffic enabled")
	channels := []string{"#debug", "#test", "#test2"}
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		var sb strings.Builder
		for j := 0; j < 3; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(words[rand.Intn(len(words))])
		}
		chat.DeliverChannel(channels[i%len(channels)], fmt.Sprintf("demo %d: %s", i, sb.String()))
	}
}
