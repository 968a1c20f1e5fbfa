package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType represents the type of planned order
type OrderType int

const (
	Make OrderType = iota
	Buy
)

// String method for OrderType enum
func (o OrderType) String() string {
	switch o {
	case Make:
		return "Make"
	case Buy:
		return "Buy"
	default:
		return "Unknown"
	}
}

// MarshalText renders the order type label in JSON output
func (o OrderType) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// PlannedOrder is a suggested production or purchase order covering a shortage
type PlannedOrder struct {
	ItemID      ItemID          `json:"item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReleaseDate time.Time       `json:"release_date"`
	DueDate     time.Time       `json:"due_date"`
	OrderType   OrderType       `json:"order_type"`
	Late        bool            `json:"late"`
}

// NewPlannedOrder creates a validated PlannedOrder
func NewPlannedOrder(
	itemID ItemID,
	quantity decimal.Decimal,
	releaseDate, dueDate time.Time,
	orderType OrderType,
	late bool,
) (*PlannedOrder, error) {
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", quantity)
	}
	if releaseDate.After(dueDate) {
		return nil, fmt.Errorf("release date %v cannot be after due date %v", releaseDate, dueDate)
	}

	return &PlannedOrder{
		ItemID:      itemID,
		Quantity:    quantity,
		ReleaseDate: releaseDate,
		DueDate:     dueDate,
		OrderType:   orderType,
		Late:        late,
	}, nil
}
