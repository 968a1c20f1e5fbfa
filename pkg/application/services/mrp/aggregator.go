package mrp

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/application/services/shared"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// PeriodBucket decides how need-by dates are grouped into planning periods
type PeriodBucket int

const (
	// PeriodDay keeps one bucket per due date
	PeriodDay PeriodBucket = iota
	// PeriodWeek groups due dates into ISO weeks starting Monday
	PeriodWeek
)

// String method for PeriodBucket enum
func (p PeriodBucket) String() string {
	switch p {
	case PeriodDay:
		return "day"
	case PeriodWeek:
		return "week"
	default:
		return "unknown"
	}
}

// ParsePeriodBucket converts a config value into a PeriodBucket
func ParsePeriodBucket(s string) (PeriodBucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "daily":
		return PeriodDay, nil
	case "week", "weekly":
		return PeriodWeek, nil
	default:
		return PeriodDay, fmt.Errorf("invalid period: %s (expected: day or week)", s)
	}
}

// Start returns the first day of the bucket containing t
func (p PeriodBucket) Start(t time.Time) time.Time {
	d := shared.CivilDate(t)
	if p == PeriodWeek {
		offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
		return d.AddDate(0, 0, -offset)
	}
	return d
}

// AggregatedRequirement is the summed gross requirement of one item in one period
type AggregatedRequirement struct {
	ItemID  entities.ItemID
	Period  time.Time
	Gross   decimal.Decimal
	Sources []string
}

type aggregateKey struct {
	item   entities.ItemID
	period int64
}

// Aggregate merges explosion entries by item and period.
// Decimal addition is exact, so the totals do not depend on entry order.
// Zero totals are dropped; the result is ordered by period then item.
func Aggregate(entries []entities.ExplosionEntry, bucket PeriodBucket) []AggregatedRequirement {
	totals := make(map[aggregateKey]*AggregatedRequirement)
	sources := make(map[aggregateKey]map[string]bool)

	for _, entry := range entries {
		period := bucket.Start(entry.NeedBy)
		key := aggregateKey{item: entry.ItemID, period: period.Unix()}

		agg, ok := totals[key]
		if !ok {
			agg = &AggregatedRequirement{ItemID: entry.ItemID, Period: period, Gross: decimal.Zero}
			totals[key] = agg
			sources[key] = make(map[string]bool)
		}
		agg.Gross = agg.Gross.Add(entry.Quantity)
		sources[key][entry.OrderID] = true
	}

	result := make([]AggregatedRequirement, 0, len(totals))
	for key, agg := range totals {
		if !agg.Gross.IsPositive() {
			continue
		}
		for orderID := range sources[key] {
			agg.Sources = append(agg.Sources, orderID)
		}
		sort.Strings(agg.Sources)
		result = append(result, *agg)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Period.Equal(result[j].Period) {
			return result[i].Period.Before(result[j].Period)
		}
		return result[i].ItemID < result[j].ItemID
	})

	return result
}
