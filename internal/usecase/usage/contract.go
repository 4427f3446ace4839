package usage

import "github.com/view-avocats/assistant/internal/usecase/embedding"

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Provider() string
	Limit(p embedding.Period) int64
	Used(p embedding.Period) int64
	Remaining(p embedding.Period) int64
}
