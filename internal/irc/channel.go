package irc

import "sync"

// Channel is a named broadcast group. A participant appears in the member
// set at most once.
type Channel struct {
	name  string
	title string

	mu      sync.RWMutex
	members map[Participant]struct{}
}

// NewChannel creates an empty channel. Names start with '#' by convention;
// the channel itself does not care.
func NewChannel(name, title string) *Channel {
	return &Channel{
		name:    name,
		title:   title,
		members: make(map[Participant]struct{}),
	}
}

func (c *Channel) Name() string  { return c.name }
func (c *Channel) Title() string { return c.title }

// Join adds p to the member set. Returns true iff p was not already a
// member.
func (c *Channel) Join(p Participant) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[p]; ok {
		return false
	}
	c.members[p] = struct{}{}
	return true
}

// Leave removes p from the member set. Idempotent.
func (c *Channel) Leave(p Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.members, p)
}

// MemberCount returns the current member count.
func (c *Channel) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Deliver broadcasts msg to the current members. Enqueueing happens
// synchronously under the read lock, so two externally ordered broadcasts
// reach any single member in the same order. Participant.Deliver only
// queues, which keeps the lock hold bounded.
func (c *Channel) Deliver(msg Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for p := range c.members {
		p.Deliver(msg)
	}
}
