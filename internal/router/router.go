// Package router implements the message routing core: classifying each
// inbound message as owner command, owner chat, or third-party chat, and
// dispatching it to the command interpreter or the reply generator according
// to the current bot state.
package router

import (
	"context"
	"io"
	"log/slog"

	"github.com/kvasudev/sahayak/internal/config"
	"github.com/kvasudev/sahayak/internal/state"
)

// InboundMessage is one message delivered by the transport. It is consumed
// synchronously and not retained.
type InboundMessage struct {
	// ID is the transport message ID, used for reply quoting.
	ID string
	// ChatID is the conversation the message arrived in.
	ChatID string
	// SenderID is the opaque transport identity of the sender.
	SenderID string
	// Body is the plain-text content.
	Body string
	// IsFromSelf marks messages the bot account itself sent outside the
	// owner's self-chat. These are discarded unconditionally.
	IsFromSelf bool
}

// Sender delivers outbound text through the messaging transport.
type Sender interface {
	// Send delivers text to a recipient by ID.
	Send(ctx context.Context, recipientID, text string) error
	// Reply delivers text as a quoted reply to the original message.
	Reply(ctx context.Context, msg InboundMessage, text string) error
}

// Responder produces a reply for a message body. It never fails; fallback
// handling lives behind this interface.
type Responder interface {
	Generate(ctx context.Context, body string) string
}

// Router classifies inbound messages and coordinates command execution and
// auto-replies.
type Router struct {
	log       *slog.Logger
	state     *state.Manager
	responder Responder
	sender    Sender
	msgs      config.MessagesConfig
	ownID     func() string
}

// New creates a Router. ownID resolves the bot's own transport identity at
// call time; it may return "" while the transport is still pairing.
func New(
	log *slog.Logger,
	st *state.Manager,
	responder Responder,
	sender Sender,
	msgs config.MessagesConfig,
	ownID func() string,
) *Router {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		log:       log.With("component", "router"),
		state:     st,
		responder: responder,
		sender:    sender,
		msgs:      msgs,
		ownID:     ownID,
	}
}

// Route handles one inbound message. Classification, first match wins:
// messages from the bot itself are dropped; owner self-messages are checked
// for a command, then answered only in assistant mode; third-party messages
// are answered only while the owner is offline.
func (r *Router) Route(ctx context.Context, msg InboundMessage) {
	if msg.IsFromSelf {
		return
	}

	own := r.ownID()
	if own != "" && msg.SenderID == own {
		r.routeOwner(ctx, msg)
		return
	}

	if r.state.Snapshot().OwnerOnline {
		r.log.DebugContext(ctx, "Owner online, not replying to third party", "sender", msg.SenderID)
		return
	}

	r.respond(ctx, msg)
}

func (r *Router) routeOwner(ctx context.Context, msg InboundMessage) {
	if cmd, ok := ParseCommand(msg.Body); ok {
		r.execCommand(ctx, msg, cmd)
		return
	}

	if !r.state.Snapshot().AssistantMode {
		return
	}

	r.log.DebugContext(ctx, "Assistant mode on, replying in owner self-chat")
	r.respond(ctx, msg)
}

// execCommand applies a control command. The state manager persists the
// mutation before returning, so the acknowledgement below is only ever sent
// for state that has already been written through.
func (r *Router) execCommand(ctx context.Context, msg InboundMessage, cmd Command) {
	var changed bool
	var ackChanged, ackAlready string

	switch cmd {
	case CmdOwnerOnline:
		changed = r.state.SetOwnerOnline(ctx, true)
		ackChanged, ackAlready = r.msgs.OnlineChanged, r.msgs.OnlineAlready
	case CmdOwnerOffline:
		changed = r.state.SetOwnerOnline(ctx, false)
		ackChanged, ackAlready = r.msgs.OfflineChanged, r.msgs.OfflineAlready
	case CmdAssistantOn:
		changed = r.state.SetAssistantMode(ctx, true)
		ackChanged, ackAlready = r.msgs.AssistantOnChanged, r.msgs.AssistantOnAlready
	case CmdAssistantOff:
		changed = r.state.SetAssistantMode(ctx, false)
		ackChanged, ackAlready = r.msgs.AssistantOffChanged, r.msgs.AssistantOffAlready
	default:
		return
	}

	ack := ackAlready
	if changed {
		ack = ackChanged
	}

	r.log.InfoContext(ctx, "Owner command executed", "command", msg.Body, "changed", changed)

	if err := r.sender.Send(ctx, msg.SenderID, ack); err != nil {
		r.log.ErrorContext(ctx, "Failed to send command acknowledgement", "error", err)
	}
}

func (r *Router) respond(ctx context.Context, msg InboundMessage) {
	reply := r.responder.Generate(ctx, msg.Body)
	if err := r.sender.Reply(ctx, msg, reply); err != nil {
		r.log.ErrorContext(ctx, "Failed to send reply", "sender", msg.SenderID, "error", err)
	}
}
