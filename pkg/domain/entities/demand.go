package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DemandLine represents a sales or production order line requesting an item
type DemandLine struct {
	OrderID  string
	ItemID   ItemID
	Quantity decimal.Decimal
	NeedBy   time.Time
}

// NewDemandLine creates a validated DemandLine
func NewDemandLine(orderID string, itemID ItemID, quantity decimal.Decimal, needBy time.Time) (*DemandLine, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", quantity)
	}
	if needBy.IsZero() {
		return nil, fmt.Errorf("need-by date cannot be empty")
	}

	return &DemandLine{
		OrderID:  orderID,
		ItemID:   itemID,
		Quantity: quantity,
		NeedBy:   needBy,
	}, nil
}

// ScheduledReceipt represents incoming supply from an open purchase or production order
type ScheduledReceipt struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	DueDate  time.Time
	Source   string
}

// NewScheduledReceipt creates a validated ScheduledReceipt
func NewScheduledReceipt(itemID ItemID, quantity decimal.Decimal, dueDate time.Time, source string) (*ScheduledReceipt, error) {
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", quantity)
	}
	if dueDate.IsZero() {
		return nil, fmt.Errorf("due date cannot be empty")
	}

	return &ScheduledReceipt{
		ItemID:   itemID,
		Quantity: quantity,
		DueDate:  dueDate,
		Source:   source,
	}, nil
}

// ExplosionNode is one visited position in a BOM traversal
type ExplosionNode struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	NeedBy   time.Time
	Depth    int
	Path     []ItemID // ancestors, root first, ending with ItemID
	Physical bool     // false below a cost-only line
}

// ExplosionEntry is a single (item, need-by, quantity) requirement emitted by explosion
type ExplosionEntry struct {
	ItemID   ItemID
	NeedBy   time.Time
	Quantity decimal.Decimal
	OrderID  string
	Depth    int
}
