package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// SnapshotReader assembles a snapshot from repositories.
// The repositories hand out copies, so the snapshot never aliases repository storage.
type SnapshotReader struct {
	items    repositories.ItemRepository
	boms     repositories.BOMRepository
	demands  repositories.DemandRepository
	receipts repositories.ReceiptRepository
	now      func() time.Time
}

// NewSnapshotReader creates a snapshot source over repositories; receipts may be nil
func NewSnapshotReader(
	items repositories.ItemRepository,
	boms repositories.BOMRepository,
	demands repositories.DemandRepository,
	receipts repositories.ReceiptRepository,
) *SnapshotReader {
	return &SnapshotReader{
		items:    items,
		boms:     boms,
		demands:  demands,
		receipts: receipts,
		now:      time.Now,
	}
}

// Verify interface compliance
var _ repositories.SnapshotSource = (*SnapshotReader)(nil)

// LoadSnapshot reads every repository into one snapshot
func (s *SnapshotReader) LoadSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	items, err := s.items.GetAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	lines, err := s.boms.GetAllBOMLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM lines: %w", err)
	}
	demands, err := s.demands.GetDemands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read demands: %w", err)
	}

	snapshot := &entities.Snapshot{
		Items:    make([]entities.Item, 0, len(items)),
		BOMLines: make([]entities.BOMLine, 0, len(lines)),
		Demands:  make([]entities.DemandLine, 0, len(demands)),
		TakenAt:  s.now(),
	}
	for _, item := range items {
		snapshot.Items = append(snapshot.Items, *item)
	}
	for _, line := range lines {
		snapshot.BOMLines = append(snapshot.BOMLines, *line)
	}
	for _, demand := range demands {
		snapshot.Demands = append(snapshot.Demands, *demand)
	}

	if s.receipts != nil {
		receipts, err := s.receipts.GetAllReceipts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read scheduled receipts: %w", err)
		}
		for _, receipt := range receipts {
			snapshot.Receipts = append(snapshot.Receipts, *receipt)
		}
	}

	return snapshot, nil
}
