package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"award-seat-alerts/internal/config"
	"award-seat-alerts/internal/provider"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func decp(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCriteriaMinSeats(t *testing.T) {
	eval := BuildCriteria(config.FiltersConfig{MinSeats: 2})

	if eval(provider.Availability{RemainingSeats: intp(1)}) {
		t.Fatal("1 seat should not satisfy min_seats=2")
	}
	if !eval(provider.Availability{RemainingSeats: intp(2)}) {
		t.Fatal("2 seats should satisfy min_seats=2")
	}
}

func TestCriteriaAbsentFieldFailsCriterion(t *testing.T) {
	eval := BuildCriteria(config.FiltersConfig{MinSeats: 1})

	// Absent seat count is "criterion not satisfiable", never zero.
	if eval(provider.Availability{}) {
		t.Fatal("record without seat count must not qualify when min_seats is set")
	}

	// Without a seat criterion the same record passes.
	eval = BuildCriteria(config.FiltersConfig{})
	if !eval(provider.Availability{}) {
		t.Fatal("record should qualify when no criterion needs the absent field")
	}
}

func TestCriteriaMaxMileage(t *testing.T) {
	eval := BuildCriteria(config.FiltersConfig{MaxMileage: 80000})

	if eval(provider.Availability{MileageCost: intp(90000)}) {
		t.Fatal("90k miles exceeds the 80k cap")
	}
	if !eval(provider.Availability{MileageCost: intp(80000)}) {
		t.Fatal("80k miles meets the cap")
	}
	if eval(provider.Availability{}) {
		t.Fatal("absent mileage must fail a mileage criterion")
	}
}

func TestCriteriaMaxTaxes(t *testing.T) {
	eval := BuildCriteria(config.FiltersConfig{MaxTaxes: 100})

	if eval(provider.Availability{Taxes: decp("150.25")}) {
		t.Fatal("taxes above the cap must not qualify")
	}
	if !eval(provider.Availability{Taxes: decp("56.40")}) {
		t.Fatal("taxes below the cap should qualify")
	}
	if eval(provider.Availability{}) {
		t.Fatal("absent taxes must fail a taxes criterion")
	}
}

func TestCriteriaDirectOnly(t *testing.T) {
	eval := BuildCriteria(config.FiltersConfig{DirectOnly: true})

	if eval(provider.Availability{Direct: boolp(false)}) {
		t.Fatal("connecting itinerary must not qualify")
	}
	if eval(provider.Availability{}) {
		t.Fatal("unknown directness must not qualify")
	}
	if !eval(provider.Availability{Direct: boolp(true)}) {
		t.Fatal("direct itinerary should qualify")
	}
}

func TestCriteriaDoesNotMutateRecord(t *testing.T) {
	eval := BuildCriteria(config.FiltersConfig{MinSeats: 1, MaxMileage: 80000})

	seats := 2
	mileage := 75000
	rec := provider.Availability{RemainingSeats: &seats, MileageCost: &mileage}
	_ = eval(rec)

	if seats != 2 || mileage != 75000 {
		t.Fatal("evaluator must not mutate the record")
	}
}
