package shared

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/services"
)

// Index is an immutable, id-keyed arena over one snapshot.
// It is safe to share between concurrent runs once built.
type Index struct {
	items     map[entities.ItemID]*entities.Item
	itemOrder []entities.ItemID
	children  map[entities.ItemID][]*entities.BOMLine
	receipts  map[entities.ItemID][]entities.ScheduledReceipt
	converter *services.UnitConverter
}

// NewIndex copies the snapshot into an indexed arena. A nil converter only allows identity conversions.
func NewIndex(snapshot *entities.Snapshot, converter *services.UnitConverter) (*Index, error) {
	if snapshot == nil {
		return nil, &entities.InvalidSnapshotError{Reason: "snapshot is nil"}
	}
	if converter == nil {
		converter = services.NewUnitConverter()
	}

	ix := &Index{
		items:     make(map[entities.ItemID]*entities.Item, len(snapshot.Items)),
		itemOrder: make([]entities.ItemID, 0, len(snapshot.Items)),
		children:  make(map[entities.ItemID][]*entities.BOMLine),
		receipts:  make(map[entities.ItemID][]entities.ScheduledReceipt),
		converter: converter,
	}

	for i := range snapshot.Items {
		item := snapshot.Items[i]
		if _, exists := ix.items[item.ID]; exists {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("duplicate item id %s", item.ID)}
		}
		ix.items[item.ID] = &item
		ix.itemOrder = append(ix.itemOrder, item.ID)
	}
	sort.Slice(ix.itemOrder, func(i, j int) bool { return ix.itemOrder[i] < ix.itemOrder[j] })

	for i := range snapshot.BOMLines {
		line := snapshot.BOMLines[i]
		ix.children[line.ParentID] = append(ix.children[line.ParentID], &line)
	}
	for parent := range ix.children {
		lines := ix.children[parent]
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].FindNumber != lines[j].FindNumber {
				return lines[i].FindNumber < lines[j].FindNumber
			}
			return lines[i].ComponentID < lines[j].ComponentID
		})
	}

	for _, receipt := range snapshot.Receipts {
		if _, exists := ix.items[receipt.ItemID]; !exists {
			return nil, &entities.UnknownItemError{
				ID:           receipt.ItemID,
				ReferencedBy: fmt.Sprintf("scheduled receipt %s", receipt.Source),
			}
		}
		ix.receipts[receipt.ItemID] = append(ix.receipts[receipt.ItemID], receipt)
	}
	for id := range ix.receipts {
		rs := ix.receipts[id]
		sort.SliceStable(rs, func(i, j int) bool {
			if !rs[i].DueDate.Equal(rs[j].DueDate) {
				return rs[i].DueDate.Before(rs[j].DueDate)
			}
			return rs[i].Source < rs[j].Source
		})
	}

	return ix, nil
}

// Item returns the catalog item for an id
func (ix *Index) Item(id entities.ItemID) (*entities.Item, bool) {
	item, ok := ix.items[id]
	return item, ok
}

// ItemIDs returns all item ids in ascending order
func (ix *Index) ItemIDs() []entities.ItemID {
	return ix.itemOrder
}

// Children returns the BOM lines below a parent ordered by find number then component id
func (ix *Index) Children(id entities.ItemID) []*entities.BOMLine {
	return ix.children[id]
}

// HasChildren reports whether the item has any physical BOM lines
func (ix *Index) HasChildren(id entities.ItemID) bool {
	for _, line := range ix.children[id] {
		if !line.CostOnly {
			return true
		}
	}
	return false
}

// Receipts returns scheduled receipts for an item ordered by due date
func (ix *Index) Receipts(id entities.ItemID) []entities.ScheduledReceipt {
	return ix.receipts[id]
}

// LineFactor converts a BOM line quantity into the component's unit of measure
func (ix *Index) LineFactor(line *entities.BOMLine, component *entities.Item) (decimal.Decimal, error) {
	return ix.converter.LineFactor(line, component)
}

// CivilDate truncates a time to midnight UTC of its calendar day
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
