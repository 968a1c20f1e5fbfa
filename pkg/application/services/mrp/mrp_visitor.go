package mrp

import (
	"fmt"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// MRPVisitor implements shared.NodeVisitor for explosion of one demand line
type MRPVisitor struct {
	demand   *entities.DemandLine
	entries  []entities.ExplosionEntry
	rollup   entities.CostRollup
	warnings *warningSet

	componentsOnly bool
}

// NewMRPVisitor creates a visitor for a demand line; warnings are collected into the shared set
func NewMRPVisitor(demand *entities.DemandLine, warnings *warningSet) *MRPVisitor {
	return &MRPVisitor{
		demand: demand,
		rollup: entities.CostRollup{
			OrderID:  demand.OrderID,
			ItemID:   demand.ItemID,
			NeedBy:   demand.NeedBy,
			Quantity: demand.Quantity,
		},
		warnings: warnings,
	}
}

// VisitNode emits a requirement entry for physical stocked nodes and accumulates cost for every node
func (v *MRPVisitor) VisitNode(node *entities.ExplosionNode, item *entities.Item, via *entities.BOMLine) error {
	if via != nil && via.QtyPer.IsZero() {
		v.warnings.add(entities.Warning{
			Code:    entities.WarningZeroQuantityPer,
			ItemID:  item.ID,
			Path:    node.Path,
			Message: fmt.Sprintf("BOM line %s -> %s has zero quantity per", via.ParentID, via.ComponentID),
		}, string(via.ParentID))
	}

	if node.Depth > 0 && node.Physical && item.Stocked() && item.LeadTimeDays == 0 {
		v.warnings.add(entities.Warning{
			Code:    entities.WarningZeroLeadTime,
			ItemID:  item.ID,
			Path:    node.Path,
			Message: fmt.Sprintf("component %s has zero lead time", item.ID),
		}, "")
	}

	cost := item.UnitCost.Mul(node.Quantity)
	if node.Physical {
		v.rollup.MaterialCost = v.rollup.MaterialCost.Add(cost)
	} else {
		v.rollup.CostOnlyCost = v.rollup.CostOnlyCost.Add(cost)
	}

	if node.Depth == 0 && v.componentsOnly {
		return nil
	}

	if node.Physical && item.Stocked() && node.Quantity.IsPositive() {
		v.entries = append(v.entries, entities.ExplosionEntry{
			ItemID:   item.ID,
			NeedBy:   node.NeedBy,
			Quantity: node.Quantity,
			OrderID:  v.demand.OrderID,
			Depth:    node.Depth,
		})
	}

	return nil
}

// Entries returns the requirement entries emitted so far
func (v *MRPVisitor) Entries() []entities.ExplosionEntry {
	return v.entries
}

// CostRollup returns the accumulated cost of the demand line
func (v *MRPVisitor) CostRollup() entities.CostRollup {
	r := v.rollup
	r.TotalCost = r.MaterialCost.Add(r.CostOnlyCost)
	return r
}

// warningSet deduplicates warnings so each finding is reported once per run.
// Among duplicates it keeps the lexicographically smallest path, which makes the
// result independent of demand-line order.
type warningSet struct {
	byKey map[string]entities.Warning
}

func newWarningSet() *warningSet {
	return &warningSet{byKey: make(map[string]entities.Warning)}
}

func (s *warningSet) add(w entities.Warning, discriminator string) {
	key := fmt.Sprintf("%s|%s|%s", w.Code, w.ItemID, discriminator)
	if existing, ok := s.byKey[key]; ok {
		if entities.FormatPath(existing.Path) <= entities.FormatPath(w.Path) {
			return
		}
	}
	path := make([]entities.ItemID, len(w.Path))
	copy(path, w.Path)
	w.Path = path
	s.byKey[key] = w
}

// list returns warnings ordered by code, item and message
func (s *warningSet) list() []entities.Warning {
	out := make([]entities.Warning, 0, len(s.byKey))
	for _, w := range s.byKey {
		out = append(out, w)
	}
	sortWarnings(out)
	return out
}
