package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// unitPair identifies a directed unit conversion
type unitPair struct {
	from string
	to   string
}

// UnitConverter resolves quantity conversions between units of measure.
// A factor f for (from, to) means one unit of from equals f units of to.
type UnitConverter struct {
	factors map[unitPair]decimal.Decimal
}

// NewUnitConverter creates an empty converter; only identity conversions succeed
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{
		factors: make(map[unitPair]decimal.Decimal),
	}
}

// NewDefaultUnitConverter creates a converter preloaded with common print-shop units
func NewDefaultUnitConverter() *UnitConverter {
	uc := NewUnitConverter()
	uc.AddFactor("kg", "g", decimal.NewFromInt(1000))
	uc.AddFactor("m", "mm", decimal.NewFromInt(1000))
	uc.AddFactor("m", "cm", decimal.NewFromInt(100))
	uc.AddFactor("cm", "mm", decimal.NewFromInt(10))
	uc.AddFactor("l", "ml", decimal.NewFromInt(1000))
	uc.AddFactor("h", "min", decimal.NewFromInt(60))
	uc.AddFactor("dozen", "ea", decimal.NewFromInt(12))
	return uc
}

// AddFactor registers a conversion; the inverse direction is derived on lookup
func (uc *UnitConverter) AddFactor(from, to string, factor decimal.Decimal) {
	if !factor.IsPositive() {
		return
	}
	uc.factors[unitPair{from: normalizeUnit(from), to: normalizeUnit(to)}] = factor
}

// Factor returns the multiplier taking a quantity in from-units to to-units
func (uc *UnitConverter) Factor(from, to string) (decimal.Decimal, bool) {
	f, t := normalizeUnit(from), normalizeUnit(to)
	if f == t {
		return decimal.NewFromInt(1), true
	}
	if factor, ok := uc.factors[unitPair{from: f, to: t}]; ok {
		return factor, true
	}
	if inverse, ok := uc.factors[unitPair{from: t, to: f}]; ok {
		return decimal.NewFromInt(1).DivRound(inverse, 16), true
	}
	return decimal.Zero, false
}

// LineFactor resolves the factor converting a BOM line's quantity into the component's unit.
// Resolution order: equal units, the line's own factor, then the converter table.
func (uc *UnitConverter) LineFactor(line *entities.BOMLine, component *entities.Item) (decimal.Decimal, error) {
	lineUnit := line.UnitOfMeasure
	if lineUnit == "" || normalizeUnit(lineUnit) == normalizeUnit(component.UnitOfMeasure) {
		return decimal.NewFromInt(1), nil
	}
	if line.HasConversionFactor() {
		return line.ConversionFactor, nil
	}
	if uc != nil {
		if factor, ok := uc.Factor(lineUnit, component.UnitOfMeasure); ok {
			return factor, nil
		}
	}
	return decimal.Zero, &entities.IncompatibleUnitsError{
		From: lineUnit,
		To:   component.UnitOfMeasure,
		Item: component.ID,
	}
}

func normalizeUnit(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
