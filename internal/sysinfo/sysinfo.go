// Package sysinfo answers system-status commands sent to the system
// channel.
package sysinfo

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"debugircd/internal/irc"
)

// Handler interprets the text of a system-channel message as a command and
// replies on the same channel. Unknown commands get a usage hint.
type Handler struct {
	chat  *irc.Chat
	start time.Time
}

func NewHandler(chat *irc.Chat) *Handler {
	return &Handler{chat: chat, start: time.Now()}
}

func (h *Handler) Handle(username, channel, text string, send irc.SendFunc) {
	switch strings.TrimSpace(text) {
	case "cpu":
		percents, err := cpu.Percent(0, false)
		if err != nil || len(percents) == 0 {
			send("cpu: unavailable")
			return
		}
		send(fmt.Sprintf("cpu: %.1f%%", percents[0]))
	case "mem":
		vm, err := mem.VirtualMemory()
		if err != nil {
			send("mem: unavailable")
			return
		}
		send(fmt.Sprintf("mem: %.1f%% of %d MB", vm.UsedPercent, vm.Total/1024/1024))
	case "uptime":
		send(fmt.Sprintf("uptime: %s", time.Since(h.start).Round(time.Second)))
	case "conns":
		send(fmt.Sprintf("conns: %d participants, %d channels", h.chat.ParticipantCount(), h.chat.ChannelCount()))
	case "goroutines":
		send(fmt.Sprintf("goroutines: %d", runtime.NumGoroutine()))
	case "help":
		send("commands: cpu mem uptime conns goroutines help")
	default:
		send(fmt.Sprintf("unknown command %q, try help", text))
	}
}
