package service

import (
	"time"

	"golang.org/x/time/rate"
)

// Per-user send budget: a cooldown between consecutive sends plus a daily
// cap. In-memory only; a restart resets both, which is acceptable for an
// operator guardrail.

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

// CheckSendBudget reports whether userID may send now. It does not consume
// the budget; callers that go through with the send call BumpSendUsage.
func (s *Service) CheckSendBudget(userID string) error {
	return s.checkSendBudget(userID)
}

// BumpSendUsage consumes one send from the user's budget.
func (s *Service) BumpSendUsage(userID string) {
	s.bumpSendUsage(userID)
}

func (s *Service) checkSendBudget(userID string) error {
	if userID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if lim, ok := s.limiters[userID]; ok {
		if lim.Tokens() < 1 {
			return ErrCooldown
		}
	}

	d := s.daily[userID]
	key := dateKey(time.Now())
	if d != nil && d.dateKey == key && d.count >= s.cfg.dailyLimit() {
		return ErrDailyLimit
	}
	return nil
}

func (s *Service) bumpSendUsage(userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(s.cfg.cooldown()), 1)
		s.limiters[userID] = lim
	}
	lim.Allow()

	key := dateKey(time.Now())
	d := s.daily[userID]
	if d == nil || d.dateKey != key {
		d = &dailyCount{dateKey: key}
		s.daily[userID] = d
	}
	d.count++
}
