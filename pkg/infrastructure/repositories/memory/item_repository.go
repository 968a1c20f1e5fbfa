package memory

import (
	"context"
	"sync"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// ItemRepository provides in-memory item catalog storage
type ItemRepository struct {
	mu       sync.RWMutex
	items    []entities.Item
	itemsMap map[entities.ItemID]int
}

// NewItemRepository creates a new in-memory item repository
func NewItemRepository(expectedItems int) *ItemRepository {
	return &ItemRepository{
		items:    make([]entities.Item, 0, expectedItems),
		itemsMap: make(map[entities.ItemID]int, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// LoadItems loads items into the repository
func (r *ItemRepository) LoadItems(items []*entities.Item) error {
	for _, item := range items {
		r.AddItem(*item)
	}
	return nil
}

// AddItem adds an item, replacing any item with the same id
func (r *ItemRepository) AddItem(item entities.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.itemsMap[item.ID]; exists {
		r.items[index] = item
		return
	}
	r.itemsMap[item.ID] = len(r.items)
	r.items = append(r.items, item)
}

// GetItem returns the catalog record for an item id
func (r *ItemRepository) GetItem(_ context.Context, id entities.ItemID) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.itemsMap[id]
	if !exists {
		return nil, &entities.UnknownItemError{ID: id, ReferencedBy: "item catalog lookup"}
	}
	item := r.items[index]
	return &item, nil
}

// GetAllItems returns all items in insertion order
func (r *ItemRepository) GetAllItems(_ context.Context) ([]*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*entities.Item, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	return items, nil
}
