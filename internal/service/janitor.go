package service

import (
	"context"
	"time"

	"heraldbot/internal/store"
	logx "heraldbot/pkg/logx"
)

// pruneJobs evicts terminal jobs older than the retention window so the jobs
// document stays bounded. Scheduled jobs are never pruned.
func (s *Service) pruneJobs() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.cfg.retention()).UnixMilli()

	jobs := s.store.LoadJobs(ctx)
	removed := 0
	for id, j := range jobs {
		if !j.Status.Terminal() {
			continue
		}
		if finishedAt(j) < cutoff {
			delete(jobs, id)
			removed++
		}
	}
	if removed == 0 {
		return
	}
	if err := s.store.SaveJobs(ctx, jobs); err != nil {
		s.log.Error("job prune failed", logx.Err(err))
		return
	}
	s.log.Info("old jobs pruned", logx.Int("removed", removed), logx.Int("kept", len(jobs)))
}

func finishedAt(j store.Job) int64 {
	switch {
	case j.SentAt != 0:
		return j.SentAt
	case j.CanceledAt != 0:
		return j.CanceledAt
	default:
		// failed/expired records carry no completion stamp; age by run time.
		return j.RunAt
	}
}
