package entities

import (
	"fmt"
	"time"
)

// CriticalPathNode represents one item on a lead-time path
type CriticalPathNode struct {
	ItemID         ItemID `json:"item_id"`
	LeadTimeDays   int    `json:"lead_time_days"`
	CumulativeDays int    `json:"cumulative_days"`
	Level          int    `json:"level"`
}

// CriticalPath represents the longest cumulative lead-time chain below a demand line
type CriticalPath struct {
	OrderID          string             `json:"order_id"`
	TopLevelItem     ItemID             `json:"top_level_item"`
	TotalLeadTime    int                `json:"total_lead_time_days"`
	Path             []ItemID           `json:"path"`
	PathDetails      []CriticalPathNode `json:"path_details"`
	BottleneckItem   ItemID             `json:"bottleneck_item"`
	EarliestComplete time.Time          `json:"earliest_complete"`
}

// Summary returns a formatted one-line summary of the path
func (p *CriticalPath) Summary() string {
	if len(p.Path) == 0 {
		return "No critical path found"
	}
	summary := fmt.Sprintf("%s: %d days over %d levels", p.TopLevelItem, p.TotalLeadTime, len(p.Path))
	if p.BottleneckItem != "" {
		summary += fmt.Sprintf(" | Bottleneck: %s", p.BottleneckItem)
	}
	return summary
}
