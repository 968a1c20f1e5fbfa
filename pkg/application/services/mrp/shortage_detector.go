package mrp

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/application/services/shared"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// DetectShortages nets aggregated requirements against free stock and scheduled receipts.
//
// Per item, periods are netted in ascending order. Available for a period is the stock
// left over from earlier periods plus receipts whose bucket falls on or before the period:
//
//	available = on_hand - allocated + scheduled_receipts (- consumed earlier)
//	shortage  = max(0, net_requirement - available)
//
// Leftover stock never goes below zero between periods, so a deficit is reported once.
func DetectShortages(
	aggregated []AggregatedRequirement,
	index *shared.Index,
	bucket PeriodBucket,
) ([]entities.Requirement, []entities.Warning, error) {
	byItem := make(map[entities.ItemID][]AggregatedRequirement)
	for _, agg := range aggregated {
		byItem[agg.ItemID] = append(byItem[agg.ItemID], agg)
	}

	itemIDs := make([]entities.ItemID, 0, len(byItem))
	for id := range byItem {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	requirements := make([]entities.Requirement, 0, len(aggregated))
	var warnings []entities.Warning

	for _, id := range itemIDs {
		item, ok := index.Item(id)
		if !ok {
			return nil, nil, &entities.UnknownItemError{ID: id, ReferencedBy: "aggregated requirement"}
		}

		periods := byItem[id]
		sort.Slice(periods, func(i, j int) bool { return periods[i].Period.Before(periods[j].Period) })

		receipts := index.Receipts(id)
		next := 0
		carry := item.FreeStock()
		lateReported := false

		for _, agg := range periods {
			received := decimal.Zero
			for next < len(receipts) && !bucket.Start(receipts[next].DueDate).After(agg.Period) {
				received = received.Add(receipts[next].Quantity)
				next++
			}

			available := carry.Add(received)
			net := agg.Gross
			shortage := decimal.Max(decimal.Zero, net.Sub(available))

			req := entities.Requirement{
				ItemID:            id,
				Period:            agg.Period,
				GrossRequirement:  agg.Gross,
				OnHand:            item.OnHand,
				Allocated:         item.Allocated,
				ScheduledReceipts: received,
				Available:         available,
				NetRequirement:    net,
				Shortage:          shortage,
				Severity:          severityOf(shortage, available),
				Sources:           agg.Sources,
			}
			requirements = append(requirements, req)

			if req.Short() && !lateReported && next < len(receipts) {
				late := receipts[next]
				warnings = append(warnings, entities.Warning{
					Code:   entities.WarningLateReceipt,
					ItemID: id,
					Message: fmt.Sprintf("receipt %s of %s due %s arrives after need-by %s",
						late.Source, late.Quantity, late.DueDate.Format("2006-01-02"), agg.Period.Format("2006-01-02")),
				})
				lateReported = true
			}

			carry = decimal.Max(decimal.Zero, available.Sub(net))
		}
	}

	sortRequirements(requirements)
	return requirements, warnings, nil
}

// FlaggedShortages returns the short requirements ordered by need-by ascending,
// shortage descending, then item id
func FlaggedShortages(requirements []entities.Requirement) []entities.Requirement {
	flagged := make([]entities.Requirement, 0)
	for _, req := range requirements {
		if req.Short() {
			flagged = append(flagged, req)
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		a, b := flagged[i], flagged[j]
		if !a.Period.Equal(b.Period) {
			return a.Period.Before(b.Period)
		}
		if cmp := a.Shortage.Cmp(b.Shortage); cmp != 0 {
			return cmp > 0
		}
		return a.ItemID < b.ItemID
	})

	return flagged
}

func severityOf(shortage, available decimal.Decimal) entities.Severity {
	switch {
	case !shortage.IsPositive():
		return entities.SeverityNone
	case !available.IsPositive():
		return entities.SeverityCritical
	default:
		return entities.SeverityPartial
	}
}

func sortRequirements(reqs []entities.Requirement) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].Period.Equal(reqs[j].Period) {
			return reqs[i].Period.Before(reqs[j].Period)
		}
		return reqs[i].ItemID < reqs[j].ItemID
	})
}
