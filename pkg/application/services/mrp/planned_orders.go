package mrp

import (
	"fmt"
	"time"

	"github.com/vsinha/printshop-mrp/pkg/application/services/shared"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// SuggestPlannedOrders proposes one order per shortage, offset backwards by the item lead time.
// Items with a physical BOM are made in-house; everything else is bought.
func SuggestPlannedOrders(
	shortages []entities.Requirement,
	index *shared.Index,
	today time.Time,
) ([]entities.PlannedOrder, error) {
	today = shared.CivilDate(today)
	orders := make([]entities.PlannedOrder, 0, len(shortages))

	for _, shortage := range shortages {
		if !shortage.Short() {
			continue
		}

		item, ok := index.Item(shortage.ItemID)
		if !ok {
			return nil, &entities.UnknownItemError{ID: shortage.ItemID, ReferencedBy: "shortage"}
		}

		orderType := entities.Buy
		if index.HasChildren(item.ID) {
			orderType = entities.Make
		}

		due := shortage.Period
		if due.Before(today) {
			due = today
		}
		release := due.AddDate(0, 0, -item.LeadTimeDays)
		late := false
		if release.Before(today) {
			release = today
			late = true
		}

		order, err := entities.NewPlannedOrder(item.ID, shortage.Shortage, release, due, orderType, late)
		if err != nil {
			return nil, fmt.Errorf("failed to plan order for %s: %w", item.ID, err)
		}
		orders = append(orders, *order)
	}

	return orders, nil
}
