package repositories

import (
	"context"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// ReceiptRepository provides access to scheduled receipts from open orders
type ReceiptRepository interface {
	GetReceipts(ctx context.Context, id entities.ItemID) ([]*entities.ScheduledReceipt, error)
	GetAllReceipts(ctx context.Context) ([]*entities.ScheduledReceipt, error)
	LoadReceipts(receipts []*entities.ScheduledReceipt) error
}
