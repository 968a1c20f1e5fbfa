package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemID represents a unique catalog identifier
type ItemID string

// ItemType classifies an item in the catalog
type ItemType int

const (
	FinishedGood ItemType = iota
	Component
	RawMaterial
	Service
)

// String method for ItemType enum
func (t ItemType) String() string {
	switch t {
	case FinishedGood:
		return "FinishedGood"
	case Component:
		return "Component"
	case RawMaterial:
		return "RawMaterial"
	case Service:
		return "Service"
	default:
		return "Unknown"
	}
}

// ParseItemType converts a catalog label into an ItemType
func ParseItemType(s string) (ItemType, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "finishedgood", "finished", "fg":
		return FinishedGood, nil
	case "component", "subassembly":
		return Component, nil
	case "rawmaterial", "raw", "material":
		return RawMaterial, nil
	case "service":
		return Service, nil
	default:
		return FinishedGood, fmt.Errorf("invalid item type: %s (expected: FinishedGood, Component, RawMaterial, or Service)", s)
	}
}

// Item represents a catalog item with its stock position
type Item struct {
	ID            ItemID
	Description   string
	Type          ItemType
	UnitOfMeasure string
	OnHand        decimal.Decimal
	Allocated     decimal.Decimal
	LeadTimeDays  int
	UnitCost      decimal.Decimal
}

// NewItem creates a validated Item
func NewItem(
	id ItemID,
	description string,
	itemType ItemType,
	uom string,
	onHand, allocated decimal.Decimal,
	leadTimeDays int,
	unitCost decimal.Decimal,
) (*Item, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if uom == "" {
		return nil, fmt.Errorf("unit of measure cannot be empty")
	}
	if onHand.IsNegative() {
		return nil, fmt.Errorf("on-hand quantity cannot be negative, got %s", onHand)
	}
	if allocated.IsNegative() {
		return nil, fmt.Errorf("allocated quantity cannot be negative, got %s", allocated)
	}
	if leadTimeDays < 0 {
		return nil, fmt.Errorf("lead time cannot be negative, got %d", leadTimeDays)
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", unitCost)
	}

	return &Item{
		ID:            id,
		Description:   description,
		Type:          itemType,
		UnitOfMeasure: uom,
		OnHand:        onHand,
		Allocated:     allocated,
		LeadTimeDays:  leadTimeDays,
		UnitCost:      unitCost,
	}, nil
}

// FreeStock returns on-hand minus allocated; negative when over-allocated
func (i *Item) FreeStock() decimal.Decimal {
	return i.OnHand.Sub(i.Allocated)
}

// Stocked reports whether the item is held as inventory
func (i *Item) Stocked() bool {
	return i.Type != Service
}
