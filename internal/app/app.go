// Package app wires the bot together: config, logging, storage, the gateway
// session, delivery, scheduling, and the optional HTTP ingress.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"heraldbot/internal/api"
	"heraldbot/internal/cancel"
	"heraldbot/internal/config"
	"heraldbot/internal/delivery"
	"heraldbot/internal/scheduler"
	"heraldbot/internal/service"
	"heraldbot/internal/store"
	discordtransport "heraldbot/internal/transport/discord"
	logx "heraldbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	session *discordgo.Session
	store   store.Store
	svc     *service.Service
	api     *api.Server
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath, logx.NewConsole("INFO").With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File != "",
			Path:    cfg.Logging.File,
		},
	})
	log = log.With(logx.String("comp", "app"))

	a := &App{cfgm: cfgm, log: log, logs: logSvc}

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(store.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st

	session, err := discordtransport.Connect(cfg.Discord.Token)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.session = session
	transport := discordtransport.NewAdapter(session, log.With(logx.String("comp", "discord")))

	cancels := cancel.NewRegistry()
	engine := delivery.NewEngine(delivery.Config{
		DMRatePerSec: cfg.Broadcast.DMRatePerSec,
	}, transport, cancels, log.With(logx.String("comp", "delivery")))

	grace, err := config.ParseDurationField("broadcast.grace", cfg.Broadcast.Grace)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(scheduler.Config{Grace: grace}, st, engine, cancels,
		log.With(logx.String("comp", "scheduler")))

	cooldown, err := config.ParseDurationField("broadcast.cooldown", cfg.Broadcast.Cooldown)
	if err != nil {
		return nil, err
	}
	retention, err := config.ParseDurationField("broadcast.retention", cfg.Broadcast.Retention)
	if err != nil {
		return nil, err
	}
	a.svc = service.New(service.Config{
		Cooldown:   cooldown,
		DailyLimit: cfg.Broadcast.DailyLimit,
		Retention:  retention,
	}, st, engine, sched, cancels, log.With(logx.String("comp", "service")))

	if cfg.API.Enabled {
		readTimeout, err := config.ParseDurationOrDefault("api.read_timeout", cfg.API.ReadTimeout, 10*time.Second)
		if err != nil {
			return nil, err
		}
		writeTimeout, err := config.ParseDurationField("api.write_timeout", cfg.API.WriteTimeout)
		if err != nil {
			return nil, err
		}
		a.api = api.NewServer(api.Config{
			Addr:         cfg.API.Addr,
			Key:          cfg.API.Key,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		}, a.svc, log.With(logx.String("comp", "api")))
	}

	return a, nil
}

// Service exposes the core service for interaction handlers.
func (a *App) Service() *service.Service { return a.svc }

// Start boots the schedule, the janitor, the config watcher, and the HTTP
// ingress. Returns immediately; the app runs until Stop.
func (a *App) Start(ctx context.Context) error {
	a.svc.Start()

	go func() {
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()
	go a.followConfig(ctx)

	if a.api != nil {
		go func() {
			if err := a.api.ListenAndServe(); err != nil {
				a.log.Error("api server failed", logx.Err(err))
			}
		}()
	}

	a.log.Info("heraldbot started", logx.Bool("api", a.api != nil))
	return nil
}

// followConfig applies hot-reloadable settings. Only logging reacts live;
// everything else takes effect on restart.
func (a *App) followConfig(ctx context.Context) {
	ch := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File != "",
					Path:    cfg.Logging.File,
				},
			})
			a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.api != nil {
		if err := a.api.Shutdown(ctx); err != nil {
			a.log.Warn("api shutdown", logx.Err(err))
		}
	}
	a.svc.Stop()
	if err := a.session.Close(); err != nil {
		a.log.Warn("gateway close", logx.Err(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close", logx.Err(err))
	}
	a.log.Info("heraldbot stopped")
	return a.logs.Close()
}
