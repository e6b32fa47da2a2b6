package store

import (
	"context"
	"errors"
	"strings"

	"heraldbot/internal/broadcast"
	logx "heraldbot/pkg/logx"
)

// Store is the persistence API for jobs and templates.
//
// Load methods swallow corruption and return an empty mapping: availability
// is deliberately favored over strict durability (a bad document must not
// keep the bot from starting). Save is the durability boundary — a record is
// durable once its Save/Upsert call returned nil, not before.
type Store interface {
	LoadJobs(ctx context.Context) map[string]Job
	SaveJobs(ctx context.Context, jobs map[string]Job) error
	UpsertJob(ctx context.Context, j Job) error

	LoadTemplates(ctx context.Context) map[string]broadcast.Payload
	SaveTemplate(ctx context.Context, name string, p broadcast.Payload) error
	DeleteTemplate(ctx context.Context, name string) error

	Close() error
}

// Open initializes the configured store. An empty driver means "file".
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
