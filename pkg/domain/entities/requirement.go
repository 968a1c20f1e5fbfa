package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severity grades how badly a requirement is short
type Severity int

const (
	SeverityNone Severity = iota
	SeverityPartial
	SeverityCritical
)

// String method for Severity enum
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityPartial:
		return "Partial"
	case SeverityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// MarshalText renders the severity label in JSON and CSV output
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Requirement is the aggregated, netted requirement for one item in one period
type Requirement struct {
	ItemID            ItemID          `json:"item_id"`
	Period            time.Time       `json:"period"`
	GrossRequirement  decimal.Decimal `json:"gross_requirement"`
	OnHand            decimal.Decimal `json:"on_hand"`
	Allocated         decimal.Decimal `json:"allocated"`
	ScheduledReceipts decimal.Decimal `json:"scheduled_receipts"`
	Available         decimal.Decimal `json:"available"`
	NetRequirement    decimal.Decimal `json:"net_requirement"`
	Shortage          decimal.Decimal `json:"shortage"`
	Severity          Severity        `json:"severity"`
	Sources           []string        `json:"sources"`
}

// Short reports whether the requirement is flagged as a shortage
func (r *Requirement) Short() bool {
	return r.Shortage.IsPositive()
}

// WarningCode identifies a non-fatal data-quality finding
type WarningCode string

const (
	WarningZeroLeadTime    WarningCode = "ZERO_LEAD_TIME"
	WarningZeroQuantityPer WarningCode = "ZERO_QUANTITY_PER"
	WarningLateReceipt     WarningCode = "LATE_RECEIPT"
)

// Warning is a data-quality finding attached to a report
type Warning struct {
	Code    WarningCode `json:"code"`
	ItemID  ItemID      `json:"item_id"`
	Path    []ItemID    `json:"path,omitempty"`
	Message string      `json:"message"`
}

// CostRollup is the rolled-up cost of one demand line
type CostRollup struct {
	OrderID      string          `json:"order_id"`
	ItemID       ItemID          `json:"item_id"`
	NeedBy       time.Time       `json:"need_by"`
	Quantity     decimal.Decimal `json:"quantity"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	CostOnlyCost decimal.Decimal `json:"cost_only_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}
