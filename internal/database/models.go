package database

import "time"

// BotState is the singleton operating-mode record for one bot identity.
// OwnerOnline suppresses replies to third parties; AssistantMode enables
// replies in the owner's self-chat. LastQRPayload caches the most recent
// pairing payload for the status page and plays no part in routing.
type BotState struct {
	AppID         string    `db:"app_id"`
	OwnerOnline   bool      `db:"owner_online"`
	AssistantMode bool      `db:"assistant_mode"`
	LastQRPayload string    `db:"last_qr_payload"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
