// Package discord adapts a discordgo session to the delivery transport
// surface. State-cache lookups come first; REST is the fallback so cold
// caches still resolve.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"heraldbot/internal/broadcast"
	"heraldbot/internal/delivery"
	logx "heraldbot/pkg/logx"
)

const membersPageSize = 1000

// Adapter implements delivery.Transport on a live gateway session.
type Adapter struct {
	s   *discordgo.Session
	log logx.Logger
}

func NewAdapter(s *discordgo.Session, log logx.Logger) *Adapter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{s: s, log: log}
}

// Connect opens a session with the intents member enumeration and presence
// filtering need, and returns it ready for NewAdapter.
func Connect(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildPresences
	s.StateEnabled = true
	s.State.TrackMembers = true
	s.State.TrackPresences = true
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("discord gateway: %w", err)
	}
	return s, nil
}

func (a *Adapter) ResolveGuild(ctx context.Context, guildID string) (bool, error) {
	if _, err := a.s.State.Guild(guildID); err == nil {
		return true, nil
	}
	_, err := a.s.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("resolve guild %s: %w", guildID, err)
	}
	return true, nil
}

func (a *Adapter) ResolveChannel(ctx context.Context, guildID, channelID string) (delivery.Channel, bool, error) {
	ch, err := a.s.State.Channel(channelID)
	if err != nil {
		ch, err = a.s.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			if isNotFound(err) {
				return delivery.Channel{}, false, nil
			}
			return delivery.Channel{}, false, fmt.Errorf("resolve channel %s: %w", channelID, err)
		}
	}
	if ch.GuildID != guildID {
		return delivery.Channel{}, false, nil
	}
	return delivery.Channel{ID: ch.ID, Sendable: sendable(ch.Type)}, true, nil
}

func sendable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return true
	default:
		return false
	}
}

func (a *Adapter) SendToChannel(ctx context.Context, channelID string, p broadcast.Payload) error {
	_, err := a.s.ChannelMessageSendComplex(channelID, buildMessage(p), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// GuildMembers returns the full member list with whatever presence data the
// gateway has. Cached state is preferred; a REST page walk fills in when the
// cache is cold. Presence stays unknown for members the gateway never
// reported, which the engine treats as offline-leaning.
func (a *Adapter) GuildMembers(ctx context.Context, guildID string) ([]delivery.Member, error) {
	presences := a.presenceIndex(guildID)

	if g, err := a.s.State.Guild(guildID); err == nil && len(g.Members) > 0 {
		return convertMembers(g.Members, presences), nil
	}

	var out []delivery.Member
	after := ""
	for {
		page, err := a.s.GuildMembers(guildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list members %s: %w", guildID, err)
		}
		out = append(out, convertMembers(page, presences)...)
		if len(page) < membersPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (a *Adapter) presenceIndex(guildID string) map[string]delivery.PresenceStatus {
	g, err := a.s.State.Guild(guildID)
	if err != nil {
		return nil
	}
	idx := make(map[string]delivery.PresenceStatus, len(g.Presences))
	for _, p := range g.Presences {
		if p.User == nil {
			continue
		}
		idx[p.User.ID] = convertStatus(p.Status)
	}
	return idx
}

func convertMembers(ms []*discordgo.Member, presences map[string]delivery.PresenceStatus) []delivery.Member {
	out := make([]delivery.Member, 0, len(ms))
	for _, m := range ms {
		if m.User == nil {
			continue
		}
		out = append(out, delivery.Member{
			ID:       m.User.ID,
			Bot:      m.User.Bot,
			Presence: presences[m.User.ID],
		})
	}
	return out
}

func convertStatus(s discordgo.Status) delivery.PresenceStatus {
	switch s {
	case discordgo.StatusOnline:
		return delivery.PresenceOnline
	case discordgo.StatusIdle:
		return delivery.PresenceIdle
	case discordgo.StatusDoNotDisturb:
		return delivery.PresenceDND
	case discordgo.StatusOffline, discordgo.StatusInvisible:
		return delivery.PresenceOffline
	default:
		return delivery.PresenceUnknown
	}
}

func (a *Adapter) SendDirect(ctx context.Context, userID string, p broadcast.Payload) error {
	ch, err := a.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("dm channel for %s: %w", userID, err)
	}
	if _, err := a.s.ChannelMessageSendComplex(ch.ID, buildMessage(p), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("dm %s: %w", userID, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode == 404 || rerr.Response.StatusCode == 403
	}
	return false
}
