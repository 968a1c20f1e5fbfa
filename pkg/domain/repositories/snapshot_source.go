package repositories

import (
	"context"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// SnapshotSource produces a consistent read of everything an MRP run needs.
// Implementations must read all data in one logical transaction.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (*entities.Snapshot, error)
}
