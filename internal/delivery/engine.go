package delivery

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"heraldbot/internal/broadcast"
	"heraldbot/internal/cancel"
	logx "heraldbot/pkg/logx"
)

// Config controls the delivery engine.
type Config struct {
	// DMRatePerSec paces the sequential DM fan-out. <=0 uses a default of 1
	// send per second, which keeps the loop friendly to platform rate limits.
	DMRatePerSec float64
}

// Engine executes a payload against a target. It never retries and never
// deduplicates: calling twice sends twice.
type Engine struct {
	transport Transport
	cancels   *cancel.Registry
	limiter   *rate.Limiter
	log       logx.Logger
}

func NewEngine(cfg Config, transport Transport, cancels *cancel.Registry, log logx.Logger) *Engine {
	rps := cfg.DMRatePerSec
	if rps <= 0 {
		rps = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		transport: transport,
		cancels:   cancels,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		log:       log,
	}
}

// ToChannel resolves the guild and channel and sends the payload as a single
// message. The cancellation flag is checked once, immediately before the
// send; the send itself is one network call and is not interruptible.
func (e *Engine) ToChannel(ctx context.Context, guildID, channelID string, p broadcast.Payload, cancelKey string) error {
	ok, err := e.transport.ResolveGuild(ctx, guildID)
	if err != nil {
		return platformErr("resolve guild", err)
	}
	if !ok {
		return ErrGuildNotFound
	}

	ch, ok, err := e.transport.ResolveChannel(ctx, guildID, channelID)
	if err != nil {
		return platformErr("resolve channel", err)
	}
	if !ok {
		return ErrChannelNotFound
	}
	if !ch.Sendable {
		return ErrChannelNotSendable
	}

	e.cancels.Begin(cancelKey)
	if e.cancels.Canceled(cancelKey) {
		return ErrCanceled
	}

	if err := e.transport.SendToChannel(ctx, channelID, p); err != nil {
		return platformErr("send to channel", err)
	}
	e.log.Info("channel broadcast sent", logx.String("guild", guildID), logx.String("channel", channelID), logx.Int("ctas", len(p.CTAs)))
	return nil
}

// ToDirect fans the payload out to guild members over DM, sequentially. Bots
// are excluded, then the presence filter is applied. The shared cancellation
// flag is consulted before each individual send; once set, iteration stops
// and the report carries the counts accumulated so far. A per-recipient send
// failure increments Failed and never aborts the loop.
func (e *Engine) ToDirect(ctx context.Context, guildID string, mode broadcast.DMMode, p broadcast.Payload, cancelKey string) (Report, error) {
	start := time.Now()

	ok, err := e.transport.ResolveGuild(ctx, guildID)
	if err != nil {
		return Report{}, platformErr("resolve guild", err)
	}
	if !ok {
		return Report{}, ErrGuildNotFound
	}

	members, err := e.transport.GuildMembers(ctx, guildID)
	if err != nil {
		return Report{}, platformErr("list members", err)
	}

	e.cancels.Begin(cancelKey)

	recipients := filterMembers(members, mode)
	rep := Report{Total: len(recipients)}

	for _, m := range recipients {
		if e.cancels.Canceled(cancelKey) {
			rep.Canceled = true
			break
		}
		if err := e.limiter.Wait(ctx); err != nil {
			rep.Canceled = true
			break
		}
		if err := e.transport.SendDirect(ctx, m.ID, p); err != nil {
			rep.Failed++
			e.log.Debug("dm refused", logx.String("member", m.ID), logx.Err(err))
			continue
		}
		rep.Sent++
	}

	e.log.Info("dm broadcast finished",
		logx.String("guild", guildID),
		logx.String("mode", string(mode)),
		logx.Int("sent", rep.Sent),
		logx.Int("failed", rep.Failed),
		logx.Int("total", rep.Total),
		logx.Bool("canceled", rep.Canceled),
		logx.Duration("took", time.Since(start)))
	return rep, nil
}

// filterMembers drops bot accounts and applies the presence mode. Online
// keeps members whose live status is anything other than offline/unknown;
// offline keeps the complement; all keeps everyone.
func filterMembers(members []Member, mode broadcast.DMMode) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Bot {
			continue
		}
		switch mode {
		case broadcast.DMOnline:
			if m.Presence == PresenceOffline || m.Presence == PresenceUnknown {
				continue
			}
		case broadcast.DMOffline:
			if m.Presence != PresenceOffline && m.Presence != PresenceUnknown {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
