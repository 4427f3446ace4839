package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// Period is a budget accounting window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// BudgetStore is the persistence interface for budget counters.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetConfig holds the limits of one provider. A zero limit means unlimited.
type BudgetConfig struct {
	Provider     string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
}

type window struct {
	period Period
	limit  int64
	used   int64
	start  time.Time
}

func (w *window) truncate(t time.Time) time.Time {
	t = t.UTC()
	if w.period == PeriodDaily {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (w *window) roll(now time.Time) {
	if cur := w.truncate(now); cur.After(w.start) {
		w.used = 0
		w.start = cur
	}
}

func (w *window) key(provider string) string {
	layout := "2006-01"
	if w.period == PeriodDaily {
		layout = "2006-01-02"
	}
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, w.period, w.start.Format(layout))
}

// ttl keeps a persisted counter a little longer than its window.
func (w *window) ttl() time.Duration {
	if w.period == PeriodDaily {
		return 48 * time.Hour
	}
	return 62 * 24 * time.Hour
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker is an in-memory token budget tracker with optional persistence.
// Check is in-memory only; Record updates memory first, then writes behind to the store.
type BudgetTracker struct {
	mu       sync.Mutex
	provider string
	action   BudgetAction
	windows  []*window
	store    BudgetStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewBudgetTracker creates a budget tracker with the given limits.
func NewBudgetTracker(cfg BudgetConfig, logger *zap.Logger) *BudgetTracker {
	return newBudgetTracker(cfg, logger, time.Now)
}

func newBudgetTracker(cfg BudgetConfig, logger *zap.Logger, now func() time.Time) *BudgetTracker {
	action := cfg.Action
	if action == "" {
		action = BudgetActionWarn
	}
	b := &BudgetTracker{
		provider: cfg.Provider,
		action:   action,
		windows: []*window{
			{period: PeriodDaily, limit: cfg.DailyLimit},
			{period: PeriodMonthly, limit: cfg.MonthlyLimit},
		},
		logger: logger,
		now:    now,
	}
	for _, w := range b.windows {
		w.start = w.truncate(now())
	}
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range b.windows {
		w.roll(now)
		val, err := store.Get(ctx, w.key(b.provider))
		if err != nil {
			b.logger.Warn("Failed to load budget from store",
				zap.String("provider", b.provider),
				zap.String("period", string(w.period)),
				zap.Error(err),
			)
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.windows[0].used),
		zap.Int64("monthly_used", b.windows[1].used),
	)
	return b
}

// Check verifies the budget allows a new request. In-memory only (hot path).
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var exceeded []zap.Field
	for _, w := range b.windows {
		w.roll(now)
		if w.exceeded() {
			exceeded = append(exceeded,
				zap.Int64(string(w.period)+"_used", w.used),
				zap.Int64(string(w.period)+"_limit", w.limit),
			)
		}
	}
	if len(exceeded) == 0 {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded", append([]zap.Field{zap.String("provider", b.provider)}, exceeded...)...)
	return nil
}

type pendingWrite struct {
	key string
	ttl time.Duration
}

// Record registers consumed tokens after a request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := b.now()
	writes := make([]pendingWrite, 0, len(b.windows))
	for _, w := range b.windows {
		w.roll(now)
		w.used += tokens
		writes = append(writes, pendingWrite{key: w.key(b.provider), ttl: w.ttl()})
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request context so a cancelled request still gets counted.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, pw := range writes {
		if err := store.IncrBy(ctx, pw.key, tokens, pw.ttl); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", pw.key), zap.Error(err))
		}
	}
}

func (b *BudgetTracker) window(p Period) *window {
	for _, w := range b.windows {
		if w.period == p {
			return w
		}
	}
	panic("budget: unknown period " + string(p))
}

// Remaining returns tokens left in the period (-1 if unlimited).
func (b *BudgetTracker) Remaining(p Period) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.window(p)
	w.roll(b.now())
	return w.remaining()
}

// Used returns tokens consumed in the current period.
func (b *BudgetTracker) Used(p Period) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.window(p)
	w.roll(b.now())
	return w.used
}

// Limit returns the token cap of the period (0 if unlimited).
func (b *BudgetTracker) Limit(p Period) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window(p).limit
}

// Provider returns the provider the budget is tracked for.
func (b *BudgetTracker) Provider() string { return b.provider }
