package irc

import (
	"sync"
	"testing"
)

// recorder collects delivered messages for assertions.
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Deliver(msg Message) {
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

func TestChannelMembership(t *testing.T) {
	ch := NewChannel("#debug", "DEBUG")
	p := &recorder{}

	if !ch.Join(p) {
		t.Fatal("first Join returned false")
	}
	if ch.Join(p) {
		t.Fatal("second Join of the same participant returned true")
	}
	if got := ch.MemberCount(); got != 1 {
		t.Fatalf("MemberCount = %d, want 1", got)
	}

	ch.Leave(p)
	ch.Leave(p) // idempotent
	if got := ch.MemberCount(); got != 0 {
		t.Fatalf("MemberCount after Leave = %d, want 0", got)
	}
}

func TestChannelDeliverReachesAllMembers(t *testing.T) {
	ch := NewChannel("#debug", "DEBUG")
	a, b := &recorder{}, &recorder{}
	ch.Join(a)
	ch.Join(b)

	ch.Deliver(Message("hello\n"))
	ch.Leave(b)
	ch.Deliver(Message("again\n"))

	if got := a.messages(); len(got) != 2 || got[0] != "hello\n" || got[1] != "again\n" {
		t.Fatalf("member a got %q", got)
	}
	if got := b.messages(); len(got) != 1 || got[0] != "hello\n" {
		t.Fatalf("departed member b got %q", got)
	}
}
