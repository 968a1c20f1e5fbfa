package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BOMLine represents a single parent -> component edge in a Bill of Materials
type BOMLine struct {
	ParentID    ItemID
	ComponentID ItemID
	QtyPer      decimal.Decimal
	// UnitOfMeasure is the unit QtyPer is expressed in; empty means the component's unit
	UnitOfMeasure string
	// ConversionFactor converts line units into component units; zero means not set
	ConversionFactor decimal.Decimal
	CostOnly         bool
	FindNumber       int
}

// NewBOMLine creates a validated BOMLine
func NewBOMLine(
	parentID, componentID ItemID,
	qtyPer decimal.Decimal,
	uom string,
	conversionFactor decimal.Decimal,
	costOnly bool,
	findNumber int,
) (*BOMLine, error) {
	if string(parentID) == "" {
		return nil, fmt.Errorf("parent item id cannot be empty")
	}
	if string(componentID) == "" {
		return nil, fmt.Errorf("component item id cannot be empty")
	}
	if qtyPer.IsNegative() {
		return nil, fmt.Errorf("quantity per cannot be negative, got %s", qtyPer)
	}
	if conversionFactor.IsNegative() {
		return nil, fmt.Errorf("conversion factor cannot be negative, got %s", conversionFactor)
	}
	if findNumber < 0 {
		return nil, fmt.Errorf("find number cannot be negative, got %d", findNumber)
	}

	return &BOMLine{
		ParentID:         parentID,
		ComponentID:      componentID,
		QtyPer:           qtyPer,
		UnitOfMeasure:    uom,
		ConversionFactor: conversionFactor,
		CostOnly:         costOnly,
		FindNumber:       findNumber,
	}, nil
}

// HasConversionFactor reports whether the line carries its own unit conversion
func (l *BOMLine) HasConversionFactor() bool {
	return l.ConversionFactor.IsPositive()
}
