package chat

import (
	"strings"
	"unicode"
)

// MessageKind tells broadcast lines from directed ones.
type MessageKind int

const (
	KindBroadcast MessageKind = iota
	KindDirected
	// KindMalformed is a line starting with '@' that has no space after the target.
	KindMalformed
)

func (k MessageKind) String() string {
	switch k {
	case KindBroadcast:
		return "broadcast"
	case KindDirected:
		return "directed"
	default:
		return "malformed"
	}
}

// Message is one chat line read from an active session.
type Message struct {
	Kind   MessageKind
	Target string
	Text   string
}

// ParseMessage classifies a chat line. "@name text" is directed (the first
// space ends the name), "@name" alone is malformed, anything else is broadcast
// verbatim.
func ParseMessage(line string) Message {
	if !strings.HasPrefix(line, "@") {
		return Message{Kind: KindBroadcast, Text: line}
	}
	target, text, ok := strings.Cut(line[1:], " ")
	if !ok {
		return Message{Kind: KindMalformed, Text: line}
	}
	return Message{Kind: KindDirected, Target: target, Text: text}
}

// ValidateName checks the syntax of a proposed screen name; uniqueness is the
// registry's business. maxLen <= 0 means no limit.
func ValidateName(name string, maxLen int) error {
	if name == "" {
		return ErrNameEmpty
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return ErrNameHasSpace
	}
	if maxLen > 0 && len([]rune(name)) > maxLen {
		return ErrNameTooLong
	}
	return nil
}

func formatBroadcast(origin, text string) string {
	return prefixMessage + origin + ": " + text
}

func formatPrivateSender(origin, text string) string {
	return prefixPrivateSender + origin + ": " + text
}

func formatPrivateTarget(origin, text string) string {
	return prefixPrivateTarget + origin + ": " + text
}

func formatUnknownUser(target string) string {
	return prefixError + "User @" + target + " does not exist!"
}

const lineMalformedDirected = prefixError + "Private messages must be formatted as @<name> <message>"
