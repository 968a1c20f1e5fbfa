package testing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// Today is the fixed planning date used across fixtures (a Monday)
var Today = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

// Dec parses a decimal literal - panics on invalid input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DaysFromToday returns the civil date n days after Today
func DaysFromToday(n int) time.Time {
	return Today.AddDate(0, 0, n)
}

// mustCreateItem is a helper for tests - panics on validation error
func mustCreateItem(
	id string,
	itemType entities.ItemType,
	uom string,
	onHand, allocated string,
	leadTime int,
	unitCost string,
) entities.Item {
	item, err := entities.NewItem(
		entities.ItemID(id),
		id,
		itemType,
		uom,
		Dec(onHand),
		Dec(allocated),
		leadTime,
		Dec(unitCost),
	)
	if err != nil {
		panic(err)
	}
	return *item
}

// mustCreateBOMLine is a helper for tests - panics on validation error
func mustCreateBOMLine(parent, component, qtyPer string, findNumber int) entities.BOMLine {
	line, err := entities.NewBOMLine(
		entities.ItemID(parent),
		entities.ItemID(component),
		Dec(qtyPer),
		"",
		decimal.Zero,
		false,
		findNumber,
	)
	if err != nil {
		panic(err)
	}
	return *line
}

// mustCreateDemand is a helper for tests - panics on validation error
func mustCreateDemand(orderID, itemID, qty string, daysOut int) entities.DemandLine {
	demand, err := entities.NewDemandLine(orderID, entities.ItemID(itemID), Dec(qty), DaysFromToday(daysOut))
	if err != nil {
		panic(err)
	}
	return *demand
}

// mustCreateReceipt is a helper for tests - panics on validation error
func mustCreateReceipt(itemID, qty string, daysOut int, source string) entities.ScheduledReceipt {
	receipt, err := entities.NewScheduledReceipt(entities.ItemID(itemID), Dec(qty), DaysFromToday(daysOut), source)
	if err != nil {
		panic(err)
	}
	return *receipt
}

// BuildABCSnapshot builds the three-level example: A needs 2 B, B needs 3 C, 4 C on hand,
// one A due in 7 days
func BuildABCSnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		Items: []entities.Item{
			mustCreateItem("A", entities.FinishedGood, "ea", "0", "0", 1, "5"),
			mustCreateItem("B", entities.Component, "ea", "0", "0", 2, "2"),
			mustCreateItem("C", entities.RawMaterial, "ea", "4", "0", 3, "0.5"),
		},
		BOMLines: []entities.BOMLine{
			mustCreateBOMLine("A", "B", "2", 10),
			mustCreateBOMLine("B", "C", "3", 10),
		},
		Demands: []entities.DemandLine{
			mustCreateDemand("SO-1", "A", "1", 7),
		},
		TakenAt: Today,
	}
}

// BuildPrintShopSnapshot builds a brochure job with unit conversion, a service step,
// a cost-only plate setup and an open purchase order
func BuildPrintShopSnapshot() *entities.Snapshot {
	ink := mustCreateBOMLine("BROCHURE-A4", "INK-CMYK", "1.5", 20)
	ink.UnitOfMeasure = "ml"

	plates := mustCreateBOMLine("BROCHURE-A4", "PLATE-SET", "0.004", 40)
	plates.CostOnly = true

	return &entities.Snapshot{
		Items: []entities.Item{
			mustCreateItem("BROCHURE-A4", entities.FinishedGood, "ea", "50", "20", 2, "0.40"),
			mustCreateItem("COVER-A4", entities.Component, "ea", "0", "0", 1, "0.10"),
			mustCreateItem("PAPER-A4-GLOSS", entities.RawMaterial, "sheet", "1000", "200", 5, "0.03"),
			mustCreateItem("CARDSTOCK-300G", entities.RawMaterial, "sheet", "100", "0", 7, "0.12"),
			mustCreateItem("INK-CMYK", entities.RawMaterial, "l", "0.5", "0", 10, "40"),
			mustCreateItem("BINDING", entities.Service, "ea", "0", "0", 0, "0.25"),
			mustCreateItem("PLATE-SET", entities.Component, "ea", "0", "0", 3, "60"),
			mustCreateItem("PLATE-ALU", entities.RawMaterial, "ea", "0", "0", 14, "15"),
		},
		BOMLines: []entities.BOMLine{
			mustCreateBOMLine("BROCHURE-A4", "PAPER-A4-GLOSS", "4", 10),
			ink,
			mustCreateBOMLine("BROCHURE-A4", "COVER-A4", "1", 30),
			plates,
			mustCreateBOMLine("BROCHURE-A4", "BINDING", "1", 50),
			mustCreateBOMLine("COVER-A4", "CARDSTOCK-300G", "1", 10),
			mustCreateBOMLine("PLATE-SET", "PLATE-ALU", "4", 10),
		},
		Demands: []entities.DemandLine{
			mustCreateDemand("SO-100", "BROCHURE-A4", "500", 21),
			mustCreateDemand("SO-101", "BROCHURE-A4", "250", 28),
		},
		Receipts: []entities.ScheduledReceipt{
			mustCreateReceipt("PAPER-A4-GLOSS", "2000", 10, "PO-7001"),
		},
		TakenAt: Today,
	}
}

// BuildCyclicSnapshot builds A -> B -> C -> A
func BuildCyclicSnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		Items: []entities.Item{
			mustCreateItem("A", entities.FinishedGood, "ea", "0", "0", 1, "1"),
			mustCreateItem("B", entities.Component, "ea", "0", "0", 1, "1"),
			mustCreateItem("C", entities.Component, "ea", "0", "0", 1, "1"),
		},
		BOMLines: []entities.BOMLine{
			mustCreateBOMLine("A", "B", "1", 10),
			mustCreateBOMLine("B", "C", "1", 10),
			mustCreateBOMLine("C", "A", "1", 10),
		},
		Demands: []entities.DemandLine{
			mustCreateDemand("SO-1", "A", "1", 7),
		},
		TakenAt: Today,
	}
}

// BuildChainSnapshot builds a single chain L0 -> L1 -> ... -> Ln with qty 1 per level
func BuildChainSnapshot(levels int) *entities.Snapshot {
	snapshot := &entities.Snapshot{TakenAt: Today}
	for i := 0; i <= levels; i++ {
		itemType := entities.Component
		if i == 0 {
			itemType = entities.FinishedGood
		}
		snapshot.Items = append(snapshot.Items, mustCreateItem(levelID(i), itemType, "ea", "0", "0", 1, "1"))
		if i > 0 {
			snapshot.BOMLines = append(snapshot.BOMLines, mustCreateBOMLine(levelID(i-1), levelID(i), "1", 10))
		}
	}
	snapshot.Demands = []entities.DemandLine{mustCreateDemand("SO-1", levelID(0), "1", 30)}
	return snapshot
}

// BuildWideSnapshot builds a tree with the given fan-out and depth plus one demand per root.
// Every node at the same level shares its item, so the catalog stays small while the explosion grows.
func BuildWideSnapshot(roots, fanOut, depth int) *entities.Snapshot {
	snapshot := &entities.Snapshot{TakenAt: Today}
	for level := 1; level <= depth; level++ {
		snapshot.Items = append(snapshot.Items,
			mustCreateItem(levelID(level), entities.Component, "ea", "10", "0", 2, "0.5"))
		if level > 1 {
			for f := 0; f < fanOut; f++ {
				// Distinct find numbers give parallel lines to the same component
				snapshot.BOMLines = append(snapshot.BOMLines, mustCreateBOMLine(levelID(level-1), levelID(level), "1", f))
			}
		}
	}
	for r := 0; r < roots; r++ {
		root := fmt.Sprintf("FG-%04d", r)
		snapshot.Items = append(snapshot.Items, mustCreateItem(root, entities.FinishedGood, "ea", "0", "0", 3, "10"))
		for f := 0; f < fanOut; f++ {
			snapshot.BOMLines = append(snapshot.BOMLines, mustCreateBOMLine(root, levelID(1), "2", f))
		}
		snapshot.Demands = append(snapshot.Demands, mustCreateDemand(fmt.Sprintf("SO-%04d", r), root, "1", 60+r%30))
	}
	return snapshot
}

func levelID(level int) string {
	return fmt.Sprintf("L%02d", level)
}
