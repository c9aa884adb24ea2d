// Package whatsapp implements the messaging transport for the bot using
// whatsmeow, a native Go WhatsApp Web API library. It handles QR pairing
// with a persistent SQLite session, converts incoming events into router
// messages, and sends plain or quoted replies.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/kvasudev/sahayak/internal/config"
	"github.com/kvasudev/sahayak/internal/router"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for the session store.
)

// ConnectionState is the transport's coarse lifecycle state, surfaced on the
// status page.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateWaitingQR    ConnectionState = "waiting_qr"
	StateConnected    ConnectionState = "connected"
	StateAuthFailed   ConnectionState = "auth_failed"
)

// Client wraps a whatsmeow client behind the small surface the rest of the
// bot needs: an inbound message channel, Send/Reply, and state inspection.
type Client struct {
	cfg    config.WhatsAppConfig
	logger *slog.Logger

	wa *whatsmeow.Client

	// messages carries inbound messages to the routing loop. Delivery is
	// serial: one consumer drains this channel.
	messages       chan router.InboundMessage
	messagesClosed atomic.Bool

	connected atomic.Bool
	connState atomic.Value // ConnectionState

	// onQR receives each raw pairing payload as it is issued.
	onQR func(payload string)
	// readyText is sent once to the owner's self-chat after pairing.
	readyText string
	readyOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a WhatsApp client. onQR is invoked with every fresh pairing
// payload; readyText, if non-empty, is delivered to the owner's self-chat
// the first time the connection comes up.
func New(cfg config.WhatsAppConfig, logger *slog.Logger, onQR func(payload string), readyText string) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:       cfg,
		logger:    logger.With("component", "whatsapp"),
		messages:  make(chan router.InboundMessage, 64),
		onQR:      onQR,
		readyText: readyText,
	}
	c.setState(StateDisconnected)
	return c
}

// Connect opens the session store and establishes the WhatsApp connection.
// Without an existing session the QR login flow runs in the background so
// the HTTP server can serve the pairing page immediately.
func (c *Client) Connect(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.setState(StateConnecting)

	container, err := sqlstore.New(c.ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL", c.cfg.SessionPath),
		waLog.Noop)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("creating session store: %w", err)
	}

	device, err := c.getDevice(c.ctx, container)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("getting device: %w", err)
	}

	// Device name shown in the WhatsApp linked devices list.
	store.SetOSInfo(c.cfg.DeviceName, [3]uint32{1, 0, 0})

	c.wa = whatsmeow.NewClient(device, waLog.Noop)
	c.wa.AddEventHandler(c.handleEvent)

	// Reconnection is the library's concern, not the routing core's.
	c.wa.EnableAutoReconnect = true
	c.wa.InitialAutoReconnect = true

	if c.wa.Store.ID == nil {
		c.setState(StateWaitingQR)
		c.logger.Info("No existing session, QR pairing required")
		go func() {
			if err := c.loginWithQR(c.ctx); err != nil {
				c.logger.Warn("QR login pending", "error", err)
			}
		}()
		return nil
	}

	if err := c.wa.Connect(); err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("connecting: %w", err)
	}

	c.connected.Store(true)
	c.logger.Info("Connected with existing session", "jid", c.OwnID())
	return nil
}

// Disconnect closes the connection and the inbound message channel.
func (c *Client) Disconnect() {
	c.setState(StateDisconnected)
	c.connected.Store(false)

	if c.cancel != nil {
		c.cancel()
	}
	if c.wa != nil {
		c.wa.Disconnect()
	}

	if c.messagesClosed.CompareAndSwap(false, true) {
		close(c.messages)
	}

	c.logger.Info("Disconnected")
}

// Messages returns the inbound message channel.
func (c *Client) Messages() <-chan router.InboundMessage {
	return c.messages
}

// OwnID returns the bot's own identity, or "" before pairing completes.
func (c *Client) OwnID() string {
	if c.wa != nil && c.wa.Store.ID != nil {
		return c.wa.Store.ID.ToNonAD().String()
	}
	return ""
}

// IsConnected reports whether the transport session is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	if v := c.connState.Load(); v != nil {
		return v.(ConnectionState)
	}
	return StateDisconnected
}

func (c *Client) setState(s ConnectionState) {
	c.connState.Store(s)
}

// Send delivers plain text to a recipient.
func (c *Client) Send(ctx context.Context, recipientID, text string) error {
	if !c.connected.Load() {
		return fmt.Errorf("whatsapp client is not connected")
	}

	jid, err := parseJID(recipientID)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", recipientID, err)
	}

	waMsg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := c.wa.SendMessage(ctx, jid, waMsg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// Reply delivers text into the original message's chat, quoting it.
func (c *Client) Reply(ctx context.Context, msg router.InboundMessage, text string) error {
	if !c.connected.Load() {
		return fmt.Errorf("whatsapp client is not connected")
	}

	jid, err := parseJID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat %q: %w", msg.ChatID, err)
	}

	waMsg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(msg.ID),
				Participant:   proto.String(msg.SenderID),
				QuotedMessage: &waE2E.Message{Conversation: proto.String(msg.Body)},
			},
		},
	}
	if _, err := c.wa.SendMessage(ctx, jid, waMsg); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

// getDevice retrieves the existing device or creates a new one.
func (c *Client) getDevice(ctx context.Context, container *sqlstore.Container) (*store.Device, error) {
	devices, err := container.GetAllDevices(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) > 0 {
		return devices[0], nil
	}
	return container.NewDevice(), nil
}

// loginWithQR drives the QR pairing flow, handing each payload to onQR for
// the status page.
func (c *Client) loginWithQR(ctx context.Context) error {
	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("getting QR channel: %w", err)
	}

	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("connecting for QR: %w", err)
	}

	c.setState(StateWaitingQR)

	for {
		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return ctx.Err()
		case evt, ok := <-qrChan:
			if !ok {
				return fmt.Errorf("QR channel closed unexpectedly")
			}

			switch evt.Event {
			case "code":
				c.setState(StateWaitingQR)
				c.logger.Info("QR code ready, scan it from the status page")
				if c.onQR != nil {
					c.onQR(evt.Code)
				}

			case "success":
				c.connected.Store(true)
				c.setState(StateConnected)
				c.logger.Info("QR login successful")
				return nil

			case "timeout":
				c.setState(StateDisconnected)
				c.logger.Warn("QR code expired before it was scanned")
				return fmt.Errorf("QR code timeout")

			default:
				if evt.Error != nil {
					c.setState(StateDisconnected)
					c.logger.Error("QR login failed", "error", evt.Error)
					return fmt.Errorf("QR login error: %w", evt.Error)
				}
			}
		}
	}
}

// emitMessage hands a message to the routing loop, dropping it when the
// consumer has fallen too far behind.
func (c *Client) emitMessage(msg router.InboundMessage) {
	if c.messagesClosed.Load() {
		return
	}

	select {
	case c.messages <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("Message channel full, dropping message", "sender", msg.SenderID)
	}
}

// parseJID converts a string JID to types.JID. Accepts a full JID like
// "919999999999@s.whatsapp.net" or a bare phone number.
func parseJID(s string) (types.JID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.JID{}, fmt.Errorf("empty JID")
	}

	if strings.Contains(s, "@") {
		return types.ParseJID(s)
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) < 10 {
		return types.JID{}, fmt.Errorf("phone number too short: %s", s)
	}

	return types.NewJID(digits, types.DefaultUserServer), nil
}
