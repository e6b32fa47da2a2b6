package scheduler

import (
	"context"
	"sync"
	"time"

	"heraldbot/internal/broadcast"
	"heraldbot/internal/cancel"
	"heraldbot/internal/delivery"
	"heraldbot/internal/store"
	logx "heraldbot/pkg/logx"
)

// Dispatcher is the slice of the delivery engine the scheduler fires jobs
// through. *delivery.Engine satisfies it.
type Dispatcher interface {
	ToChannel(ctx context.Context, guildID, channelID string, p broadcast.Payload, cancelKey string) error
	ToDirect(ctx context.Context, guildID string, mode broadcast.DMMode, p broadcast.Payload, cancelKey string) (delivery.Report, error)
}

// Config controls the scheduler.
type Config struct {
	// Grace is the re-arm staleness window: at boot, scheduled jobs whose run
	// time is further in the past than this are expired instead of fired late
	// en masse. <=0 uses 60s.
	Grace time.Duration
}

func (c Config) grace() time.Duration {
	if c.Grace <= 0 {
		return time.Minute
	}
	return c.Grace
}

// Service arms one-shot timers for scheduled jobs. Timers are runtime-only:
// the persisted job record is the source of truth and is re-read at fire time
// so a cancellation written after arming still wins.
type Service struct {
	cfg      Config
	store    store.Store
	dispatch Dispatcher
	cancels  *cancel.Registry
	log      logx.Logger

	tmu    sync.Mutex
	timers map[string]*time.Timer
	// vers lets a re-armed or disarmed job id invalidate callbacks from a
	// previously registered timer.
	vers map[string]uint64
}

func New(cfg Config, st store.Store, dispatch Dispatcher, cancels *cancel.Registry, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:      cfg,
		store:    st,
		dispatch: dispatch,
		cancels:  cancels,
		log:      log,
		timers:   map[string]*time.Timer{},
		vers:     map[string]uint64{},
	}
}

// Arm registers a one-shot timer for the job. Re-arming the same id replaces
// the previous timer.
func (s *Service) Arm(jobID string, runAt time.Time) {
	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}

	s.tmu.Lock()
	if t, ok := s.timers[jobID]; ok {
		_ = t.Stop()
		delete(s.timers, jobID)
	}
	ver := s.vers[jobID] + 1
	s.vers[jobID] = ver

	s.timers[jobID] = time.AfterFunc(delay, func() {
		s.tmu.Lock()
		if s.vers[jobID] != ver {
			s.tmu.Unlock()
			return
		}
		delete(s.timers, jobID)
		s.tmu.Unlock()

		s.fire(context.Background(), jobID)
	})
	s.tmu.Unlock()

	s.log.Debug("job armed", logx.String("job", jobID), logx.Time("run_at", runAt), logx.Duration("delay", delay))
}

// Disarm drops the runtime timer for the job, if any. It does not touch the
// persisted record; callers mark the job canceled themselves. Even without a
// Disarm the timer would fire as a no-op, because fire re-reads the store.
func (s *Service) Disarm(jobID string) {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if t, ok := s.timers[jobID]; ok {
		_ = t.Stop()
		delete(s.timers, jobID)
	}
	s.vers[jobID]++
}

// Stop drops all runtime timers. Persisted scheduled jobs re-arm on the next
// RearmAll.
func (s *Service) Stop() {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	for id, t := range s.timers {
		_ = t.Stop()
		delete(s.timers, id)
		s.vers[id]++
	}
}

// RearmAll reconstructs timers from persisted state at boot. Scheduled jobs
// inside the grace window (including future ones) are armed; jobs staler than
// the grace window transition to the terminal expired state and are persisted
// that way, so nothing lingers as scheduled forever after a long outage.
func (s *Service) RearmAll(ctx context.Context) {
	now := time.Now()
	cutoff := now.Add(-s.cfg.grace())

	jobs := s.store.LoadJobs(ctx)
	armed, expired := 0, 0
	dirty := false
	for id, j := range jobs {
		if j.Status != store.StatusScheduled {
			continue
		}
		if j.RunTime().Before(cutoff) {
			j.Status = store.StatusExpired
			jobs[id] = j
			expired++
			dirty = true
			continue
		}
		s.Arm(id, j.RunTime())
		armed++
	}
	if dirty {
		if err := s.store.SaveJobs(ctx, jobs); err != nil {
			s.log.Error("persisting expired jobs failed", logx.Err(err))
		}
	}
	s.log.Info("scheduler rearmed", logx.Int("armed", armed), logx.Int("expired", expired))
}

// fire executes one due job. The record is re-read first: a missing or
// non-scheduled job means an out-of-band cancellation (or a duplicate timer)
// and the callback is a silent no-op. The terminal status is written exactly
// once; the cancellation cell lives only for the duration of the attempt.
func (s *Service) fire(ctx context.Context, jobID string) {
	jobs := s.store.LoadJobs(ctx)
	j, ok := jobs[jobID]
	if !ok || j.Status != store.StatusScheduled {
		s.log.Debug("due job skipped", logx.String("job", jobID), logx.Bool("found", ok))
		return
	}

	s.cancels.Begin(jobID)
	defer s.cancels.End(jobID)

	switch j.Kind {
	case broadcast.TargetChannel:
		if err := s.dispatch.ToChannel(ctx, j.GuildID, j.ChannelID, j.Payload, jobID); err != nil {
			j.Status = store.StatusFailed
			j.Error = err.Error()
			s.log.Warn("scheduled channel broadcast failed", logx.String("job", jobID), logx.Err(err))
		} else {
			j.Status = store.StatusSent
			j.SentAt = time.Now().UnixMilli()
		}
	case broadcast.TargetDM:
		rep, err := s.dispatch.ToDirect(ctx, j.GuildID, j.DMMode, j.Payload, jobID)
		if err != nil {
			j.Status = store.StatusFailed
			j.Error = err.Error()
			s.log.Warn("scheduled dm broadcast failed", logx.String("job", jobID), logx.Err(err))
		} else {
			j.Status = store.StatusSent
			j.SentAt = time.Now().UnixMilli()
			j.Result = &store.Result{Sent: rep.Sent, Failed: rep.Failed, Total: rep.Total, Canceled: rep.Canceled}
		}
	default:
		j.Status = store.StatusFailed
		j.Error = "unknown target kind: " + string(j.Kind)
	}

	if err := s.store.UpsertJob(ctx, j); err != nil {
		s.log.Error("persisting job result failed", logx.String("job", jobID), logx.Err(err))
	}
}
