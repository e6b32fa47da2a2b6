package delivery

import (
	"context"

	"heraldbot/internal/broadcast"
)

// PresenceStatus is the live status reported by the platform for a member.
// Unknown means the platform gave us nothing (presence intent disabled or the
// member simply has no presence record).
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceIdle    PresenceStatus = "idle"
	PresenceDND     PresenceStatus = "dnd"
	PresenceOffline PresenceStatus = "offline"
	PresenceUnknown PresenceStatus = ""
)

// Member is the slice of a guild member the engine needs.
type Member struct {
	ID       string
	Bot      bool
	Presence PresenceStatus
}

// Channel is the slice of a guild channel the engine needs. Sendable means
// the channel accepts text content.
type Channel struct {
	ID       string
	Sendable bool
}

// Transport is the capability surface the engine delivers through. Any
// platform client that can satisfy it is substitutable; resolution methods
// report "not found" via their ok result and reserve the error return for
// transport-level failures.
type Transport interface {
	ResolveGuild(ctx context.Context, guildID string) (ok bool, err error)
	ResolveChannel(ctx context.Context, guildID, channelID string) (ch Channel, ok bool, err error)
	SendToChannel(ctx context.Context, channelID string, p broadcast.Payload) error
	GuildMembers(ctx context.Context, guildID string) ([]Member, error)
	SendDirect(ctx context.Context, userID string, p broadcast.Payload) error
}

// Report is the per-attempt outcome of a DM fan-out. Total is the size of
// the filtered recipient set, not the number of attempts made.
type Report struct {
	Sent     int  `json:"sent"`
	Failed   int  `json:"failed"`
	Total    int  `json:"total"`
	Canceled bool `json:"canceled"`
}
