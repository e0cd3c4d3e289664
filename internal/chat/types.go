package chat

import "errors"

// Wire literals of the line protocol.
const (
	LineSubmitName   = "SUBMITNAME"
	LineNameAccepted = "NAMEACCEPTED"

	prefixMessage       = "MESSAGE "
	prefixPrivateSender = "PRIVATEMESSAGESENDER "
	prefixPrivateTarget = "PRIVATEMESSAGETARGET "
	prefixError         = "ERROR "
)

// State is the position of a session in its protocol lifecycle.
type State int

const (
	StateNegotiating State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

var (
	ErrNameEmpty    = errors.New("name is empty")
	ErrNameHasSpace = errors.New("name contains whitespace")
	ErrNameTooLong  = errors.New("name is too long")
	ErrNameTaken    = errors.New("name is already taken")

	ErrOutboxClosed = errors.New("outbox closed")
	ErrOutboxFull   = errors.New("outbox full")
)
