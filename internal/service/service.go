package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"heraldbot/internal/cancel"
	"heraldbot/internal/scheduler"
	"heraldbot/internal/store"
	logx "heraldbot/pkg/logx"
)

var (
	ErrNotFound         = errors.New("job not found")
	ErrMissingChannel   = errors.New("channel target requires a channel id")
	ErrUnknownTarget    = errors.New("unknown target kind")
	ErrEmptyDescription = errors.New("payload description is required")
	ErrCooldown         = errors.New("send cooldown active")
	ErrDailyLimit       = errors.New("daily send limit reached")
	ErrBadTemplateName  = errors.New("invalid template name")
)

// Config controls the core service.
type Config struct {
	// Cooldown is the minimum gap between sends per user. <=0 uses 30s.
	Cooldown time.Duration
	// DailyLimit caps sends per user per local calendar day. <=0 uses 30.
	DailyLimit int
	// Retention is how long terminal jobs stay in the store before the
	// janitor prunes them. <=0 uses 7 days.
	Retention time.Duration
}

func (c Config) cooldown() time.Duration {
	if c.Cooldown <= 0 {
		return 30 * time.Second
	}
	return c.Cooldown
}

func (c Config) dailyLimit() int {
	if c.DailyLimit <= 0 {
		return 30
	}
	return c.DailyLimit
}

func (c Config) retention() time.Duration {
	if c.Retention <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.Retention
}

type dailyCount struct {
	dateKey string
	count   int
}

// Service is the ingress surface the UI layer and the HTTP shim call into.
// It owns submission validation, the per-user send budget, and the job
// janitor; delivery and timing are delegated to the engine and scheduler.
type Service struct {
	cfg     Config
	store   store.Store
	engine  scheduler.Dispatcher
	sched   *scheduler.Service
	cancels *cancel.Registry
	log     logx.Logger

	cron *cron.Cron

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	daily    map[string]*dailyCount
}

func New(cfg Config, st store.Store, engine scheduler.Dispatcher, sched *scheduler.Service, cancels *cancel.Registry, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:      cfg,
		store:    st,
		engine:   engine,
		sched:    sched,
		cancels:  cancels,
		log:      log,
		limiters: map[string]*rate.Limiter{},
		daily:    map[string]*dailyCount{},
	}
}

// Start boots the persisted schedule and the janitor.
func (s *Service) Start() {
	s.sched.RearmAll(context.Background())

	s.cron = cron.New()
	_, err := s.cron.AddFunc("@hourly", s.pruneJobs)
	if err != nil {
		s.log.Error("janitor registration failed", logx.Err(err))
	}
	s.cron.Start()
}

func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.sched.Stop()
}
