package irc

// Participant is anything that can receive a Message. The hub and channels
// only ever see this capability; sessions are the one concrete variant.
// Deliver must be safe to call from any goroutine and must not block on I/O.
type Participant interface {
	Deliver(Message)
}
