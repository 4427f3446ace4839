package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunJanitor expires idle sessions until ctx is done. No-op when IdleTTL is zero.
func (s *Service) RunJanitor(ctx context.Context) {
	if s.cfg.IdleTTL <= 0 {
		return
	}
	interval := max(s.cfg.IdleTTL/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(s.now()); n > 0 {
				s.logger.Info("Expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// sweep ends sessions idle for longer than IdleTTL. Busy sessions are kept.
func (s *Service) sweep(now time.Time) int {
	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if !sess.busy && now.Sub(sess.lastActive) > s.cfg.IdleTTL {
			sess.closed = true
			sess.turns = nil
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
		sess.mu.Unlock()
	}
	if len(expired) > 0 {
		s.publishCount()
	}
	s.mu.Unlock()

	return len(expired)
}
