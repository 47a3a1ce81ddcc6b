package irc

import "testing"

func TestChatChannelRegistry(t *testing.T) {
	chat := NewChat()
	chat.AddChannel("#system", "System channel")
	chat.AddChannel("#debug", "DEBUG")
	if got := chat.ChannelCount(); got != 2 {
		t.Fatalf("ChannelCount = %d, want 2", got)
	}

	p := &recorder{}
	if !chat.JoinChannel("#debug", p) {
		t.Fatal("JoinChannel on a registered channel returned false")
	}
	if chat.JoinChannel("#debug", p) {
		t.Fatal("re-JoinChannel returned true")
	}
	if chat.JoinChannel("#nope", p) {
		t.Fatal("JoinChannel on an unknown channel returned true")
	}

	chat.RemoveChannel("#debug")
	if got := chat.ChannelCount(); got != 1 {
		t.Fatalf("ChannelCount after remove = %d, want 1", got)
	}
	// Unknown channel: no panic, no delivery.
	chat.LeaveChannel("#debug", p)
	chat.DeliverChannel("#debug", "lost")
	if got := p.messages(); len(got) != 0 {
		t.Fatalf("delivery to removed channel reached participant: %q", got)
	}
}

func TestChatDeliverChannelFraming(t *testing.T) {
	chat := NewChat()
	chat.AddChannel("#debug", "DEBUG")
	p := &recorder{}
	chat.JoinChannel("#debug", p)

	chat.DeliverChannel("#debug", "alice says hi on channel #debug")

	want := ":debugirc PRIVMSG #debug :alice says hi on channel #debug\n"
	if got := p.messages(); len(got) != 1 || got[0] != want {
		t.Fatalf("DeliverChannel produced %q, want %q", got, want)
	}
}

func TestChatDeliverAllVerbatim(t *testing.T) {
	chat := NewChat()
	a, b := &recorder{}, &recorder{}
	chat.Join(a)
	chat.Join(b)
	if got := chat.ParticipantCount(); got != 2 {
		t.Fatalf("ParticipantCount = %d, want 2", got)
	}

	chat.DeliverAll(":debugirc NOTICE * :maintenance\n")
	chat.Leave(b)
	chat.DeliverAll(":debugirc NOTICE * :done\n")

	if got := a.messages(); len(got) != 2 {
		t.Fatalf("participant a got %d messages, want 2", len(got))
	}
	if got := b.messages(); len(got) != 1 || got[0] != ":debugirc NOTICE * :maintenance\n" {
		t.Fatalf("departed participant b got %q", got)
	}
	if got := chat.ParticipantCount(); got != 1 {
		t.Fatalf("ParticipantCount after Leave = %d, want 1", got)
	}
}

func TestChatVisitChannels(t *testing.T) {
	chat := NewChat()
	chat.AddChannel("#a", "first")
	chat.AddChannel("#b", "second")

	seen := map[string]string{}
	chat.VisitChannels(func(ch *Channel) {
		seen[ch.Name()] = ch.Title()
	})
	if len(seen) != 2 || seen["#a"] != "first" || seen["#b"] != "second" {
		t.Fatalf("VisitChannels saw %v", seen)
	}
}

func TestNickLengthPolicy(t *testing.T) {
	p := NickLengthPolicy{}
	if !p.Authorize("alice", "ignored") {
		t.Fatal("valid nick rejected")
	}
	if p.Authorize("", "") {
		t.Fatal("empty nick accepted")
	}
	if p.Authorize("this-nick-is-way-too-long-for-anyone", "") {
		t.Fatal("oversized nick accepted")
	}
}
