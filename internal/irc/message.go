package irc

import "strings"

// Message is an immutable block of already-framed protocol bytes (one or
// more lines, each terminated by '\n'). A single Message is shared by
// reference across every participant it is delivered to; nobody mutates it
// after creation.
type Message []byte

// splitCommand splits an input line at the first space into the command
// token (as received, expected uppercase) and the remainder.
func splitCommand(line string) (command, data string) {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], line[i+1:]
	}
	return line, ""
}

// splitPrivmsg parses PRIVMSG arguments. The channel is the '#'-prefixed
// token up to the first space; the text is everything after the first ':'
// that follows that space. Malformed input yields two empty strings and the
// message is dropped by the caller.
func splitPrivmsg(data string) (channel, text string) {
	if !strings.HasPrefix(data, "#") {
		return "", ""
	}
	sp := strings.IndexByte(data, ' ')
	if sp < 0 {
		return "", ""
	}
	rest := data[sp:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", ""
	}
	return data[:sp], rest[colon+1:]
}

// splitPart parses PART arguments into the channel token and an optional
// trailing ":reason".
func splitPart(data string) (channel, reason string) {
	sp := strings.IndexByte(data, ' ')
	if sp < 0 {
		return data, ""
	}
	reason = strings.TrimPrefix(strings.TrimLeft(data[sp+1:], " "), ":")
	return data[:sp], reason
}
