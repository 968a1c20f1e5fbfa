package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// BOMRepository provides in-memory BOM storage indexed by parent item
type BOMRepository struct {
	mu         sync.RWMutex
	bomLines   []entities.BOMLine
	bomIndexes map[entities.ItemID][]int
}

// NewBOMRepository creates a BOM repository sized for the expected number of lines
func NewBOMRepository(expectedBOMLines int) *BOMRepository {
	return &BOMRepository{
		bomLines:   make([]entities.BOMLine, 0, expectedBOMLines),
		bomIndexes: make(map[entities.ItemID][]int),
	}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// LoadBOMLines loads BOM lines into the repository
func (r *BOMRepository) LoadBOMLines(lines []*entities.BOMLine) error {
	for _, line := range lines {
		r.AddBOMLine(*line)
	}
	return nil
}

// AddBOMLine adds a BOM line to the repository
func (r *BOMRepository) AddBOMLine(line entities.BOMLine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := len(r.bomLines)
	r.bomLines = append(r.bomLines, line)
	r.bomIndexes[line.ParentID] = append(r.bomIndexes[line.ParentID], index)
}

// GetBOMLines returns the component lines of a parent ordered by find number
func (r *BOMRepository) GetBOMLines(_ context.Context, parentID entities.ItemID) ([]*entities.BOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.bomIndexes[parentID]
	lines := make([]*entities.BOMLine, 0, len(indexes))
	for _, index := range indexes {
		line := r.bomLines[index]
		lines = append(lines, &line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].FindNumber != lines[j].FindNumber {
			return lines[i].FindNumber < lines[j].FindNumber
		}
		return lines[i].ComponentID < lines[j].ComponentID
	})
	return lines, nil
}

// GetAllBOMLines returns all BOM lines in insertion order
func (r *BOMRepository) GetAllBOMLines(_ context.Context) ([]*entities.BOMLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]*entities.BOMLine, 0, len(r.bomLines))
	for i := range r.bomLines {
		line := r.bomLines[i]
		lines = append(lines, &line)
	}
	return lines, nil
}
