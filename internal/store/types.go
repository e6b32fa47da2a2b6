package store

import (
	"time"

	"heraldbot/internal/broadcast"
)

// Config configures the job/template store.
//
// Driver values:
//   - "file": flat JSON documents, full overwrite per mutation (default)
//   - "sqlite": SQLite database file (optional build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Status is the job lifecycle state. A job is created scheduled and moves
// exactly once into a terminal state; terminal states are never revisited.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"

	// StatusExpired marks jobs whose run time was already past the re-arm
	// grace window at boot. They are finalized instead of lingering as
	// scheduled forever.
	StatusExpired Status = "expired"
)

func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusCanceled || s == StatusExpired
}

// Result is the persisted outcome of a DM fan-out.
type Result struct {
	Sent     int  `json:"sent"`
	Failed   int  `json:"failed"`
	Total    int  `json:"total"`
	Canceled bool `json:"canceled"`
}

// Job is a persisted, time-deferred broadcast request. Timestamps are epoch
// milliseconds to keep the document format portable.
type Job struct {
	broadcast.Target

	JobID     string            `json:"jobId"`
	GuildID   string            `json:"guildId"`
	Payload   broadcast.Payload `json:"payload"`
	RunAt     int64             `json:"runAt"`
	CreatedBy string            `json:"createdBy"`
	CreatedAt int64             `json:"createdAt"`
	Status    Status            `json:"status"`

	SentAt     int64   `json:"sentAt,omitempty"`
	CanceledAt int64   `json:"canceledAt,omitempty"`
	Result     *Result `json:"result,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (j Job) RunTime() time.Time { return time.UnixMilli(j.RunAt) }
