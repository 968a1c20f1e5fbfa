package memory

import (
	"context"
	"sync"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// DemandRepository provides in-memory demand storage
type DemandRepository struct {
	mu      sync.RWMutex
	demands []entities.DemandLine
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{
		demands: []entities.DemandLine{},
	}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// LoadDemands loads demands into the repository
func (r *DemandRepository) LoadDemands(demands []*entities.DemandLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, demand := range demands {
		r.demands = append(r.demands, *demand)
	}
	return nil
}

// GetDemands returns all demand lines in load order
func (r *DemandRepository) GetDemands(_ context.Context) ([]*entities.DemandLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	demands := make([]*entities.DemandLine, 0, len(r.demands))
	for i := range r.demands {
		demand := r.demands[i]
		demands = append(demands, &demand)
	}
	return demands, nil
}
