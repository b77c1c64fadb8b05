package pipeline

import (
	"github.com/shopspring/decimal"

	"award-seat-alerts/internal/config"
	"award-seat-alerts/internal/provider"
)

// Criteria decides whether a deduplicated record qualifies for
// alerting. Implementations must be pure and total: no side effects,
// no mutation of the record, no panic on any well-formed input.
type Criteria func(provider.Availability) bool

// BuildCriteria compiles the watch filters into a single predicate.
// A record missing an optional field fails any criterion that needs
// that field; absence is never treated as zero.
func BuildCriteria(filters config.FiltersConfig) Criteria {
	var maxTaxes decimal.Decimal
	taxCapSet := filters.MaxTaxes > 0
	if taxCapSet {
		maxTaxes = decimal.NewFromFloat(filters.MaxTaxes)
	}

	return func(rec provider.Availability) bool {
		if filters.MinSeats > 0 {
			if rec.RemainingSeats == nil || *rec.RemainingSeats < filters.MinSeats {
				return false
			}
		}
		if filters.MaxMileage > 0 {
			if rec.MileageCost == nil || *rec.MileageCost > filters.MaxMileage {
				return false
			}
		}
		if taxCapSet {
			if rec.Taxes == nil || rec.Taxes.GreaterThan(maxTaxes) {
				return false
			}
		}
		if filters.DirectOnly {
			if rec.Direct == nil || !*rec.Direct {
				return false
			}
		}
		return true
	}
}
