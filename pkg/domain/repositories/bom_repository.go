package repositories

import (
	"context"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// BOMRepository provides access to Bill of Materials data
type BOMRepository interface {
	// GetBOMLines returns the component lines of a parent item ordered by find number.
	GetBOMLines(ctx context.Context, parentID entities.ItemID) ([]*entities.BOMLine, error)
	GetAllBOMLines(ctx context.Context) ([]*entities.BOMLine, error)
	LoadBOMLines(lines []*entities.BOMLine) error
}
