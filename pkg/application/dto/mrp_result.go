package dto

import (
	"time"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// MRPReport contains the complete output of an MRP run.
// Two runs over the same snapshot and options produce equal reports.
type MRPReport struct {
	AsOf          time.Time               `json:"as_of"`
	Period        string                  `json:"period"`
	Requirements  []entities.Requirement  `json:"requirements"`
	Shortages     []entities.Requirement  `json:"shortages"`
	PlannedOrders []entities.PlannedOrder `json:"planned_orders"`
	CostRollups   []entities.CostRollup   `json:"cost_rollups,omitempty"`
	CriticalPaths []entities.CriticalPath `json:"critical_paths,omitempty"`
	Warnings      []entities.Warning      `json:"warnings"`
	Stats         RunStats                `json:"stats"`
}

// RunStats summarizes the size of a run
type RunStats struct {
	DemandLines      int `json:"demand_lines"`
	NodesVisited     int `json:"nodes_visited"`
	ExplosionEntries int `json:"explosion_entries"`
	ItemsPlanned     int `json:"items_planned"`
}

// HasShortages reports whether any requirement is flagged short
func (r *MRPReport) HasShortages() bool {
	return len(r.Shortages) > 0
}
