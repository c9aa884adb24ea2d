package whatsapp

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/kvasudev/sahayak/internal/router"
)

// handleEvent is the whatsmeow event dispatcher.
func (c *Client) handleEvent(rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		c.handleMessage(evt)

	case *events.Connected:
		c.handleConnected()

	case *events.Disconnected:
		c.logger.Warn("Transport disconnected", "was_connected", c.connected.Load())
		c.connected.Store(false)
		c.setState(StateDisconnected)

	case *events.LoggedOut:
		reason := "unknown"
		if evt.Reason != 0 {
			reason = evt.Reason.String()
		}
		c.logger.Error("Session logged out, re-pairing required", "reason", reason)
		c.connected.Store(false)
		c.setState(StateAuthFailed)

	case *events.ConnectFailure:
		c.logger.Error("Connection failure", "reason", evt.Reason, "message", evt.Message)
		c.connected.Store(false)
		c.setState(StateDisconnected)

	case *events.StreamReplaced:
		c.logger.Error("Stream replaced, another device took over the session")
		c.connected.Store(false)
		c.setState(StateDisconnected)

	case *events.PairSuccess:
		c.logger.Info("Device paired", "jid", evt.ID, "platform", evt.Platform)
	}
}

func (c *Client) handleConnected() {
	c.connected.Store(true)
	c.setState(StateConnected)
	c.logger.Info("Connected", "jid", c.OwnID())

	// Confirm readiness in the owner's self-chat, once per process.
	if c.readyText == "" {
		return
	}
	c.readyOnce.Do(func() {
		own := c.OwnID()
		if own == "" {
			return
		}
		go func() {
			if err := c.Send(c.ctx, own, c.readyText); err != nil {
				c.logger.Error("Failed to send connection confirmation", "error", err)
			}
		}()
	})
}

// handleMessage converts an incoming WhatsApp message into a router message.
//
// Messages typed by the owner on the paired phone arrive with IsFromMe set.
// Inside the owner's self-chat those are exactly the control commands this
// bot exists for, so they are delivered as owner messages; everywhere else a
// self-originated message is marked IsFromSelf and the router drops it.
func (c *Client) handleMessage(evt *events.Message) {
	if evt.Info.Chat.Server == "broadcast" {
		return
	}

	body := extractText(evt.Message)
	if body == "" {
		return
	}

	own := c.OwnID()
	chat := evt.Info.Chat.ToNonAD().String()
	selfChat := own != "" && chat == own

	sender := evt.Info.Sender.ToNonAD().String()
	if selfChat {
		sender = own
	}

	msg := router.InboundMessage{
		ID:         string(evt.Info.ID),
		ChatID:     chat,
		SenderID:   sender,
		Body:       body,
		IsFromSelf: evt.Info.IsFromMe && !selfChat,
	}

	c.logger.Debug("Message received",
		"chat", msg.ChatID, "sender", msg.SenderID, "from_self", msg.IsFromSelf)

	c.emitMessage(msg)
}

// extractText pulls plain text out of a WhatsApp message. Media-only
// messages yield "".
func extractText(waMsg *waE2E.Message) string {
	if waMsg == nil {
		return ""
	}
	if waMsg.Conversation != nil {
		return waMsg.GetConversation()
	}
	if ext := waMsg.ExtendedTextMessage; ext != nil {
		return ext.GetText()
	}
	return ""
}
