package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"heraldbot/internal/broadcast"
	"heraldbot/internal/delivery"
	"heraldbot/internal/scheduler"
	"heraldbot/internal/store"
	logx "heraldbot/pkg/logx"
)

func validateSubmission(target broadcast.Target, payload broadcast.Payload) error {
	if payload.Embed.Description == "" {
		return ErrEmptyDescription
	}
	switch target.Kind {
	case broadcast.TargetChannel:
		if target.ChannelID == "" {
			return ErrMissingChannel
		}
	case broadcast.TargetDM:
		// any mode, default applied by DMTarget
	default:
		return ErrUnknownTarget
	}
	return nil
}

// SubmitImmediate runs the payload against the target right away. The DM
// path returns a fan-out report; the channel path returns a nil report on
// success. Failures surface synchronously and are never persisted.
func (s *Service) SubmitImmediate(ctx context.Context, guildID string, target broadcast.Target, payload broadcast.Payload) (*delivery.Report, error) {
	if err := validateSubmission(target, payload); err != nil {
		return nil, err
	}

	key := "send_" + uuid.NewString()
	s.cancels.Begin(key)
	defer s.cancels.End(key)

	switch target.Kind {
	case broadcast.TargetChannel:
		if err := s.engine.ToChannel(ctx, guildID, target.ChannelID, payload, key); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		rep, err := s.engine.ToDirect(ctx, guildID, target.DMMode, payload, key)
		if err != nil {
			return nil, err
		}
		return &rep, nil
	}
}

// SubmitScheduled creates a scheduled job and arms its timer. The job record
// is durable once this returns: save happens before arming.
func (s *Service) SubmitScheduled(ctx context.Context, guildID string, target broadcast.Target, payload broadcast.Payload, runAt time.Time, createdBy string) (store.Job, error) {
	if err := validateSubmission(target, payload); err != nil {
		return store.Job{}, err
	}
	now := time.Now()
	if err := scheduler.ValidateLead(runAt, now); err != nil {
		return store.Job{}, err
	}
	if err := s.checkSendBudget(createdBy); err != nil {
		return store.Job{}, err
	}
	j := store.Job{
		Target:    target,
		JobID:     uuid.NewString(),
		GuildID:   guildID,
		Payload:   payload,
		RunAt:     runAt.UnixMilli(),
		CreatedBy: createdBy,
		CreatedAt: now.UnixMilli(),
		Status:    store.StatusScheduled,
	}
	if err := s.store.UpsertJob(ctx, j); err != nil {
		return store.Job{}, err
	}
	s.bumpSendUsage(createdBy)
	s.sched.Arm(j.JobID, runAt)
	s.log.Info("job scheduled",
		logx.String("job", j.JobID),
		logx.String("kind", string(target.Kind)),
		logx.Time("run_at", runAt),
		logx.String("by", createdBy))
	return j, nil
}

// CancelJob marks a scheduled job canceled and flips the shared cancellation
// flag so an already-running fan-out stops at its next iteration. Terminal
// jobs are left untouched.
func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	jobs := s.store.LoadJobs(ctx)
	j, ok := jobs[jobID]
	if !ok {
		return ErrNotFound
	}

	if j.Status == store.StatusScheduled {
		j.Status = store.StatusCanceled
		j.CanceledAt = time.Now().UnixMilli()
		if err := s.store.UpsertJob(ctx, j); err != nil {
			return err
		}
		s.sched.Disarm(jobID)
	}

	// The registry no-ops if no delivery is in flight under this key.
	s.cancels.Cancel(jobID)

	s.log.Info("job canceled", logx.String("job", jobID))
	return nil
}

// GetJob returns one job record.
func (s *Service) GetJob(ctx context.Context, jobID string) (store.Job, error) {
	j, ok := s.store.LoadJobs(ctx)[jobID]
	if !ok {
		return store.Job{}, ErrNotFound
	}
	return j, nil
}

// ListJobs returns jobs newest-first by run time. limit <= 0 means 10.
func (s *Service) ListJobs(ctx context.Context, limit int) []store.Job {
	if limit <= 0 {
		limit = 10
	}
	jobs := s.store.LoadJobs(ctx)
	out := make([]store.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].RunAt > out[k].RunAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
