package entities

import "time"

// Snapshot is a consistent read of catalog, BOM, demand and receipt data for one MRP run
type Snapshot struct {
	Items    []Item
	BOMLines []BOMLine
	Demands  []DemandLine
	Receipts []ScheduledReceipt
	TakenAt  time.Time
}
