package memory

import (
	"context"
	"sync"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// ReceiptRepository provides in-memory storage of scheduled receipts
type ReceiptRepository struct {
	mu       sync.RWMutex
	receipts []entities.ScheduledReceipt
	byItem   map[entities.ItemID][]int
}

// NewReceiptRepository creates a new in-memory receipt repository
func NewReceiptRepository() *ReceiptRepository {
	return &ReceiptRepository{
		byItem: make(map[entities.ItemID][]int),
	}
}

// Verify interface compliance
var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)

// LoadReceipts loads receipts into the repository
func (r *ReceiptRepository) LoadReceipts(receipts []*entities.ScheduledReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, receipt := range receipts {
		r.byItem[receipt.ItemID] = append(r.byItem[receipt.ItemID], len(r.receipts))
		r.receipts = append(r.receipts, *receipt)
	}
	return nil
}

// GetReceipts returns the receipts of one item
func (r *ReceiptRepository) GetReceipts(_ context.Context, id entities.ItemID) ([]*entities.ScheduledReceipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.byItem[id]
	receipts := make([]*entities.ScheduledReceipt, 0, len(indexes))
	for _, index := range indexes {
		receipt := r.receipts[index]
		receipts = append(receipts, &receipt)
	}
	return receipts, nil
}

// GetAllReceipts returns all receipts in load order
func (r *ReceiptRepository) GetAllReceipts(_ context.Context) ([]*entities.ScheduledReceipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	receipts := make([]*entities.ScheduledReceipt, 0, len(r.receipts))
	for i := range r.receipts {
		receipt := r.receipts[i]
		receipts = append(receipts, &receipt)
	}
	return receipts, nil
}
