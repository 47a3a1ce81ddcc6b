package irc

// AuthPolicy decides whether a registering user may proceed. Implementations
// must be safe for concurrent use.
type AuthPolicy interface {
	Authorize(username, password string) bool
}

// NickLengthPolicy is the default policy: any nick between 1 and MaxLen
// characters is accepted, the password is ignored. A zero MaxLen means 16.
type NickLengthPolicy struct {
	MaxLen int
}

func (p NickLengthPolicy) Authorize(username, _ string) bool {
	max := p.MaxLen
	if max <= 0 {
		max = 16
	}
	return len(username) >= 1 && len(username) <= max
}
