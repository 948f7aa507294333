package proto

import "strings"

// Server to client line prefixes. Matching is exact and case-sensitive.
const (
	PrefixSubmitName   = "SUBMITNAME"
	PrefixNameAccepted = "NAMEACCEPTED"
	PrefixMessage      = "MESSAGE"
	PrefixUserList     = "USERLIST"
)

const (
	// messagePayloadOffset skips "MESSAGE" plus one separator byte.
	messagePayloadOffset = len(PrefixMessage) + 1
	// userListPayloadOffset skips "USERLIST" plus one separator byte.
	userListPayloadOffset = len(PrefixUserList) + 1

	// RecipientSeparator joins names in USERLIST payloads and targeted sends.
	RecipientSeparator = ","
	// TargetSeparator splits the recipient list from the text of a targeted send.
	// Text containing it is not escaped; the server splits on the first occurrence.
	TargetSeparator = ">>"
)

// Kind classifies an inbound line.
type Kind int

const (
	// KindUnknown is a line with no recognised prefix.
	KindUnknown Kind = iota
	// KindSubmitName asks the client for a candidate screen name.
	KindSubmitName
	// KindNameAccepted confirms the last submitted name.
	KindNameAccepted
	// KindMessage carries a line of text to display.
	KindMessage
	// KindUserList carries the full list of connected users.
	KindUserList
)

func (k Kind) String() string {
	switch k {
	case KindSubmitName:
		return "submit_name"
	case KindNameAccepted:
		return "name_accepted"
	case KindMessage:
		return "message"
	case KindUserList:
		return "user_list"
	default:
		return "unknown"
	}
}

// Inbound is a classified server line.
type Inbound struct {
	Kind  Kind
	Raw   string
	Text  string   // KindMessage only
	Users []string // KindUserList only, never nil
}

// Parse classifies a line by its prefix. The first matching prefix wins,
// in the order SUBMITNAME, NAMEACCEPTED, MESSAGE, USERLIST.
func Parse(line string) Inbound {
	in := Inbound{Kind: KindUnknown, Raw: line}

	switch {
	case strings.HasPrefix(line, PrefixSubmitName):
		in.Kind = KindSubmitName
	case strings.HasPrefix(line, PrefixNameAccepted):
		in.Kind = KindNameAccepted
	case strings.HasPrefix(line, PrefixMessage):
		in.Kind = KindMessage
		in.Text = payload(line, messagePayloadOffset)
	case strings.HasPrefix(line, PrefixUserList):
		in.Kind = KindUserList
		in.Users = ParseUserList(payload(line, userListPayloadOffset))
	}

	return in
}

// ParseUserList splits a USERLIST payload into names. An empty payload gives
// an empty list, and empty entries are dropped.
func ParseUserList(s string) []string {
	users := []string{}
	if s == "" {
		return users
	}
	for _, name := range strings.Split(s, RecipientSeparator) {
		if name == "" {
			continue
		}
		users = append(users, name)
	}
	return users
}

// FormatOutbound encodes a user message for the wire. Broadcasts and messages
// without recipients are sent raw; otherwise the line is "a,b>>text".
func FormatOutbound(text string, recipients []string, broadcast bool) string {
	if broadcast || len(recipients) == 0 {
		return text
	}
	return strings.Join(recipients, RecipientSeparator) + TargetSeparator + text
}

func payload(line string, offset int) string {
	if len(line) <= offset {
		return ""
	}
	return line[offset:]
}
