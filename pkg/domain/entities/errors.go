package entities

import (
	"fmt"
	"strings"
)

// CyclicBOMError is returned when an item is reached again through its own ancestors
type CyclicBOMError struct {
	Item ItemID
	Path []ItemID
}

func (e *CyclicBOMError) Error() string {
	return fmt.Sprintf("cyclic BOM: item %s repeats on path %s", e.Item, FormatPath(e.Path))
}

// BOMTooDeepError is returned when traversal exceeds the configured depth ceiling
type BOMTooDeepError struct {
	Item  ItemID
	Depth int
	Limit int
	Path  []ItemID
}

func (e *BOMTooDeepError) Error() string {
	return fmt.Sprintf("BOM too deep: item %s at depth %d exceeds limit %d", e.Item, e.Depth, e.Limit)
}

// UnknownItemError is returned when a demand or BOM line references an item absent from the snapshot
type UnknownItemError struct {
	ID           ItemID
	ReferencedBy string
}

func (e *UnknownItemError) Error() string {
	if e.ReferencedBy == "" {
		return fmt.Sprintf("unknown item: %s", e.ID)
	}
	return fmt.Sprintf("unknown item: %s (referenced by %s)", e.ID, e.ReferencedBy)
}

// IncompatibleUnitsError is returned when no conversion between two units is available
type IncompatibleUnitsError struct {
	From string
	To   string
	Item ItemID
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("incompatible units for item %s: no conversion from %q to %q", e.Item, e.From, e.To)
}

// ExplosionTooLargeError is returned when a run visits more nodes than its budget allows
type ExplosionTooLargeError struct {
	Item  ItemID
	Nodes int
	Limit int
}

func (e *ExplosionTooLargeError) Error() string {
	return fmt.Sprintf("explosion too large: %d nodes exceeds limit %d while exploding %s", e.Nodes, e.Limit, e.Item)
}

// InvalidSnapshotError is returned when snapshot data cannot be indexed
type InvalidSnapshotError struct {
	Reason string
}

func (e *InvalidSnapshotError) Error() string {
	return "invalid snapshot: " + e.Reason
}

// FormatPath renders an item path as A -> B -> C
func FormatPath(path []ItemID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}
