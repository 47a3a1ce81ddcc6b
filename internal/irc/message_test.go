package irc

import "testing"

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line    string
		command string
		data    string
	}{
		{"NICK foo", "NICK", "foo"},
		{"QUIT", "QUIT", ""},
		{"PRIVMSG #debug :hi there", "PRIVMSG", "#debug :hi there"},
		{"USER foo 0 * :Real Name", "USER", "foo 0 * :Real Name"},
	}
	for _, tt := range tests {
		command, data := splitCommand(tt.line)
		if command != tt.command || data != tt.data {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)",
				tt.line, command, data, tt.command, tt.data)
		}
	}
}

func TestSplitPrivmsg(t *testing.T) {
	tests := []struct {
		data    string
		channel string
		text    string
	}{
		{"#debug :hello world", "#debug", "hello world"},
		{"#debug :with : colon", "#debug", "with : colon"},
		{"#debug hello", "", ""},
		{"nickname :hello", "", ""},
		{"#debug", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		channel, text := splitPrivmsg(tt.data)
		if channel != tt.channel || text != tt.text {
			t.Errorf("splitPrivmsg(%q) = (%q, %q), want (%q, %q)",
				tt.data, channel, text, tt.channel, tt.text)
		}
	}
}

func TestSplitPart(t *testing.T) {
	tests := []struct {
		data    string
		channel string
		reason  string
	}{
		{"#debug", "#debug", ""},
		{"#debug :gone fishing", "#debug", "gone fishing"},
		{"#debug :", "#debug", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		channel, reason := splitPart(tt.data)
		if channel != tt.channel || reason != tt.reason {
			t.Errorf("splitPart(%q) = (%q, %q), want (%q, %q)",
				tt.data, channel, reason, tt.channel, tt.reason)
		}
	}
}
