package nats

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"debugircd/internal/irc"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Deliver(msg irc.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, string(msg))
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func newBridge(chat *irc.Chat) *Bridge {
	return &Bridge{chat: chat, prefix: "debugirc", log: zerolog.Nop()}
}

func TestHandleChannelRoutesBySubject(t *testing.T) {
	chat := irc.NewChat()
	chat.AddChannel("#debug", "DEBUG")
	p := &recorder{}
	chat.JoinChannel("#debug", p)

	b := newBridge(chat)
	b.handleChannel(&nats.Msg{Subject: "debugirc.channel.debug", Data: []byte("build 42 passed")})

	want := ":debugirc PRIVMSG #debug :build 42 passed\n"
	if got := p.messages(); len(got) != 1 || got[0] != want {
		t.Fatalf("channel delivery = %q, want %q", got, want)
	}
}

func TestHandleChannelUnknownChannelDropped(t *testing.T) {
	chat := irc.NewChat()
	p := &recorder{}
	chat.Join(p)

	b := newBridge(chat)
	b.handleChannel(&nats.Msg{Subject: "debugirc.channel.nope", Data: []byte("lost")})

	if got := p.messages(); len(got) != 0 {
		t.Fatalf("unexpected delivery %q", got)
	}
}

func TestHandleBroadcastReachesEveryParticipant(t *testing.T) {
	chat := irc.NewChat()
	a, b := &recorder{}, &recorder{}
	chat.Join(a)
	chat.Join(b)

	br := newBridge(chat)
	br.handleBroadcast(&nats.Msg{Subject: "debugirc.broadcast", Data: []byte("maintenance at noon")})

	want := ":debugirc NOTICE * :maintenance at noon\n"
	for i, r := range []*recorder{a, b} {
		if got := r.messages(); len(got) != 1 || got[0] != want {
			t.Fatalf("participant %d got %q, want %q", i, got, want)
		}
	}
}

func TestCommandJSONShape(t *testing.T) {
	data, err := json.Marshal(Command{Username: "alice", Channel: "#debug", Text: "hi"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"username":"alice","channel":"#debug","text":"hi"}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}
