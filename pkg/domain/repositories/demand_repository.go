package repositories

import (
	"context"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// DemandRepository provides access to demand data
type DemandRepository interface {
	GetDemands(ctx context.Context) ([]*entities.DemandLine, error)
	LoadDemands(demands []*entities.DemandLine) error
}
