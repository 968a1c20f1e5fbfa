package repositories

import (
	"context"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// ItemRepository provides access to item catalog data
type ItemRepository interface {
	GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error)
	GetAllItems(ctx context.Context) ([]*entities.Item, error)
	LoadItems(items []*entities.Item) error
}
