package syncapp

import (
	"sync"

	"github.com/erp/pricing/internal/domain/pricing"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/shopspring/decimal"
)

// changeStats accumulates price change statistics across item upserts.
// It is safe for concurrent use so batch upserts may be parallelized per SKU.
type changeStats struct {
	mu              sync.Mutex
	increased       int
	decreased       int
	unchanged       int
	largestIncrease *syncdomain.PriceMovement
	largestDecrease *syncdomain.PriceMovement
}

// record classifies the list price movement of one item
func (s *changeStats) record(sku string, previous, next decimal.Decimal) {
	change, percent := pricing.ClassifyPriceChange(previous, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch change {
	case pricing.PriceIncreased:
		s.increased++
		if s.largestIncrease == nil || percent.GreaterThan(s.largestIncrease.ChangePercent) {
			s.largestIncrease = &syncdomain.PriceMovement{
				SKU:           sku,
				PreviousPrice: previous,
				NewPrice:      next,
				ChangePercent: percent,
			}
		}
	case pricing.PriceDecreased:
		s.decreased++
		if s.largestDecrease == nil || percent.LessThan(s.largestDecrease.ChangePercent) {
			s.largestDecrease = &syncdomain.PriceMovement{
				SKU:           sku,
				PreviousPrice: previous,
				NewPrice:      next,
				ChangePercent: percent,
			}
		}
	default:
		s.unchanged++
	}
}

// summary builds the job summary from the accumulated counters
func (s *changeStats) summary() *syncdomain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &syncdomain.Summary{
		Increased:       s.increased,
		Decreased:       s.decreased,
		Unchanged:       s.unchanged,
		LargestIncrease: s.largestIncrease,
		LargestDecrease: s.largestDecrease,
	}
}
