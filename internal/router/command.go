package router

import "strings"

// Command is a recognized owner control command.
type Command int

const (
	// CmdOwnerOnline sets the presence flag: replies to third parties stop.
	CmdOwnerOnline Command = iota
	// CmdOwnerOffline clears the presence flag: third parties get replies.
	CmdOwnerOffline
	// CmdAssistantOn enables replies in the owner's self-chat.
	CmdAssistantOn
	// CmdAssistantOff disables replies in the owner's self-chat.
	CmdAssistantOff
)

// ParseCommand matches text against the control command table. Matching is
// case-insensitive and ignores surrounding whitespace; anything that is not
// an exact match falls through as not-a-command.
func ParseCommand(text string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "online true":
		return CmdOwnerOnline, true
	case "online false":
		return CmdOwnerOffline, true
	case "assistant on":
		return CmdAssistantOn, true
	case "assistant off":
		return CmdAssistantOff, true
	default:
		return 0, false
	}
}
