package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// BOMValidator provides validation for BOM structure integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]entities.ItemID
	DuplicateLines []entities.BOMLine
	DanglingRefs   []entities.ItemID
	ZeroQtyLines   []entities.BOMLine
	Errors         []string
	Warnings       []string
}

// Valid reports whether the BOM carries no structural errors
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateBOM performs structural validation on a set of BOM lines
func (v *BOMValidator) ValidateBOM(bomLines []entities.BOMLine) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.ItemID, 0),
		DuplicateLines: make([]entities.BOMLine, 0),
		DanglingRefs:   make([]entities.ItemID, 0),
		ZeroQtyLines:   make([]entities.BOMLine, 0),
		Errors:         make([]string, 0),
		Warnings:       make([]string, 0),
	}

	adjacencyMap := v.buildAdjacencyMap(bomLines)

	cycles := v.detectCycles(adjacencyMap)
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	result.DuplicateLines = v.detectDuplicateLines(bomLines)

	for _, line := range bomLines {
		if line.QtyPer.IsZero() {
			result.ZeroQtyLines = append(result.ZeroQtyLines, line)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("BOM line %s -> %s has zero quantity per", line.ParentID, line.ComponentID))
		}
	}

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %s", entities.FormatPath(cycle)))
	}

	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d duplicate BOM lines", len(result.DuplicateLines)))
	}

	return result
}

// ValidateBOMItemConsistency validates BOM structure and that every referenced item exists in the catalog
func (v *BOMValidator) ValidateBOMItemConsistency(bomLines []entities.BOMLine, items []entities.Item) *ValidationResult {
	result := v.ValidateBOM(bomLines)

	catalog := make(map[entities.ItemID]bool, len(items))
	for _, item := range items {
		catalog[item.ID] = true
	}

	missing := make(map[entities.ItemID]bool)
	for _, line := range bomLines {
		if !catalog[line.ParentID] {
			missing[line.ParentID] = true
		}
		if !catalog[line.ComponentID] {
			missing[line.ComponentID] = true
		}
	}

	for id := range missing {
		result.DanglingRefs = append(result.DanglingRefs, id)
	}
	sort.Slice(result.DanglingRefs, func(i, j int) bool {
		return result.DanglingRefs[i] < result.DanglingRefs[j]
	})

	for _, id := range result.DanglingRefs {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM references unknown item: %s", id))
	}

	return result
}

// ValidateItemUniqueness validates that item ids are unique across the catalog
func (v *BOMValidator) ValidateItemUniqueness(items []entities.Item) *ValidationResult {
	result := &ValidationResult{
		Errors: make([]string, 0),
	}

	seen := make(map[entities.ItemID]bool)
	duplicates := make([]entities.ItemID, 0)

	for _, item := range items {
		if seen[item.ID] {
			duplicates = append(duplicates, item.ID)
		} else {
			seen[item.ID] = true
		}
	}

	if len(duplicates) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Duplicate item ids found: %v", duplicates))
	}

	return result
}

// buildAdjacencyMap creates a map of parent -> components relationships
func (v *BOMValidator) buildAdjacencyMap(bomLines []entities.BOMLine) map[entities.ItemID][]entities.ItemID {
	adjacencyMap := make(map[entities.ItemID][]entities.ItemID)

	for _, line := range bomLines {
		children := adjacencyMap[line.ParentID]

		found := false
		for _, child := range children {
			if child == line.ComponentID {
				found = true
				break
			}
		}

		if !found {
			adjacencyMap[line.ParentID] = append(children, line.ComponentID)
		}
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the BOM structure
func (v *BOMValidator) detectCycles(adjacencyMap map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	visited := make(map[entities.ItemID]bool)
	recursionStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	// Sorted roots keep the reported cycles stable between runs
	parents := make([]entities.ItemID, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	for _, parent := range parents {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func (v *BOMValidator) dfsDetectCycle(
	current entities.ItemID,
	adjacencyMap map[entities.ItemID][]entities.ItemID,
	visited map[entities.ItemID]bool,
	recursionStack map[entities.ItemID]bool,
	path []entities.ItemID,
	cycles *[][]entities.ItemID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, id := range path {
				if id == child {
					cycle := make([]entities.ItemID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child) // close the cycle
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateLines finds duplicate BOM lines (same parent, component, find number)
func (v *BOMValidator) detectDuplicateLines(bomLines []entities.BOMLine) []entities.BOMLine {
	seen := make(map[string]entities.BOMLine)
	duplicates := make([]entities.BOMLine, 0)

	for _, line := range bomLines {
		key := fmt.Sprintf("%s|%s|%d", line.ParentID, line.ComponentID, line.FindNumber)

		if existingLine, exists := seen[key]; exists {
			duplicates = append(duplicates, line, existingLine)
		} else {
			seen[key] = line
		}
	}

	return duplicates
}
