package core

import "github.com/vovakirdan/chatter/internal/proto"

// OutboundIntent is one user submission: text plus optional recipients.
type OutboundIntent struct {
	Text       string
	Recipients []string
	Broadcast  bool
}

// Targeted reports whether the intent goes to a named subset of users.
func (i OutboundIntent) Targeted() bool {
	return !i.Broadcast && len(i.Recipients) > 0
}

// Line renders the intent as a wire line.
func (i OutboundIntent) Line() string {
	return proto.FormatOutbound(i.Text, i.Recipients, i.Broadcast)
}
