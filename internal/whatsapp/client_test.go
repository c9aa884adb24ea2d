package whatsapp

import (
	"io"
	"log/slog"
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/kvasudev/sahayak/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates instance with initial state", func(t *testing.T) {
		t.Parallel()

		c := New(config.WhatsAppConfig{SessionPath: "session.db", DeviceName: "Sahayak"}, testLogger(), nil, "ready")

		if c == nil {
			t.Fatal("expected non-nil client")
		}
		if c.State() != StateDisconnected {
			t.Errorf("initial state = %s, want %s", c.State(), StateDisconnected)
		}
		if c.IsConnected() {
			t.Error("client should not report connected before Connect")
		}
		if c.OwnID() != "" {
			t.Error("own ID should be empty before pairing")
		}
	})

	t.Run("uses default logger if nil", func(t *testing.T) {
		t.Parallel()

		c := New(config.WhatsAppConfig{SessionPath: "session.db"}, nil, nil, "")

		if c.logger == nil {
			t.Error("expected logger to be set")
		}
	})
}

func TestParseJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    types.JID
		wantErr bool
	}{
		{
			name:  "full jid",
			input: "919999999999@s.whatsapp.net",
			want:  types.NewJID("919999999999", types.DefaultUserServer),
		},
		{
			name:  "bare phone number",
			input: "919999999999",
			want:  types.NewJID("919999999999", types.DefaultUserServer),
		},
		{
			name:  "formatted phone number",
			input: "+91 99999 99999",
			want:  types.NewJID("919999999999", types.DefaultUserServer),
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "12345",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseJID(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseJID(%q) expected error, got %v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseJID(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("parseJID(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{
			name: "nil message",
			msg:  nil,
			want: "",
		},
		{
			name: "conversation",
			msg:  &waE2E.Message{Conversation: proto.String("hello")},
			want: "hello",
		},
		{
			name: "extended text",
			msg: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String("quoted reply text"),
			}},
			want: "quoted reply text",
		},
		{
			name: "media only",
			msg:  &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := extractText(tc.msg); got != tc.want {
				t.Errorf("extractText = %q, want %q", got, tc.want)
			}
		})
	}
}
