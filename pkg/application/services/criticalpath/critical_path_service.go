package criticalpath

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vsinha/printshop-mrp/pkg/application/services/shared"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// CriticalPathService finds the longest cumulative lead-time chain below demand lines
type CriticalPathService struct {
	index  *shared.Index
	limits shared.Limits
	today  time.Time
}

// NewCriticalPathService creates a new critical path service over a snapshot index
func NewCriticalPathService(index *shared.Index, limits shared.Limits, today time.Time) *CriticalPathService {
	return &CriticalPathService{
		index:  index,
		limits: limits,
		today:  shared.CivilDate(today),
	}
}

// AnalyzeDemand returns the critical path of a single demand line.
// EarliestComplete is today plus the total lead time of the path.
func (cps *CriticalPathService) AnalyzeDemand(
	ctx context.Context,
	demand *entities.DemandLine,
) (*entities.CriticalPath, error) {
	visitor := NewCriticalPathVisitor()
	traverser := shared.NewBOMTraverser(cps.index, cps.limits, cps.today)
	if err := traverser.TraverseDemand(ctx, demand, visitor); err != nil {
		return nil, fmt.Errorf("failed to analyze critical path for %s: %w", demand.OrderID, err)
	}

	path := visitor.Result()
	path.OrderID = demand.OrderID
	path.EarliestComplete = cps.today.AddDate(0, 0, path.TotalLeadTime)
	return &path, nil
}

// AnalyzeDemands returns one critical path per demand line ordered by order id then item
func (cps *CriticalPathService) AnalyzeDemands(
	ctx context.Context,
	demands []entities.DemandLine,
) ([]entities.CriticalPath, error) {
	paths := make([]entities.CriticalPath, 0, len(demands))
	for i := range demands {
		path, err := cps.AnalyzeDemand(ctx, &demands[i])
		if err != nil {
			return nil, err
		}
		paths = append(paths, *path)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i].OrderID != paths[j].OrderID {
			return paths[i].OrderID < paths[j].OrderID
		}
		return paths[i].TopLevelItem < paths[j].TopLevelItem
	})
	return paths, nil
}
