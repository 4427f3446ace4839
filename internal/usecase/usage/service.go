package usage

import (
	"context"
	"time"

	"github.com/view-avocats/assistant/internal/usecase/embedding"
)

// Report is the embedding token consumption of one accounting window.
type Report struct {
	Period      embedding.Period
	Provider    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	// Limit is 0 and Remaining -1 when the window is unlimited.
	Limit     int64
	Used      int64
	Remaining int64
	Exhausted bool
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period embedding.Period) Report {
	now := s.now().UTC()

	r := Report{Period: period, Remaining: -1}
	switch period {
	case embedding.PeriodDaily:
		r.PeriodStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 0, 1)
	default:
		r.Period = embedding.PeriodMonthly
		r.PeriodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 1, 0)
	}

	if s.br == nil {
		return r
	}
	r.Provider = s.br.Provider()
	r.Limit = s.br.Limit(r.Period)
	r.Used = s.br.Used(r.Period)
	r.Remaining = s.br.Remaining(r.Period)
	r.Exhausted = r.Limit > 0 && r.Remaining <= 0
	return r
}
