package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/vsinha/printshop-mrp/pkg/application/services/testing"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

func loadedRepositories(t *testing.T) (*ItemRepository, *BOMRepository, *DemandRepository, *ReceiptRepository) {
	t.Helper()
	snapshot := testhelpers.BuildPrintShopSnapshot()

	items := NewItemRepository(len(snapshot.Items))
	for _, item := range snapshot.Items {
		items.AddItem(item)
	}
	boms := NewBOMRepository(len(snapshot.BOMLines))
	for _, line := range snapshot.BOMLines {
		boms.AddBOMLine(line)
	}
	demands := NewDemandRepository()
	for i := range snapshot.Demands {
		require.NoError(t, demands.LoadDemands([]*entities.DemandLine{&snapshot.Demands[i]}))
	}
	receipts := NewReceiptRepository()
	for i := range snapshot.Receipts {
		require.NoError(t, receipts.LoadReceipts([]*entities.ScheduledReceipt{&snapshot.Receipts[i]}))
	}
	return items, boms, demands, receipts
}

func TestItemRepository(t *testing.T) {
	ctx := context.Background()
	items, _, _, _ := loadedRepositories(t)

	item, err := items.GetItem(ctx, "INK-CMYK")
	require.NoError(t, err)
	assert.Equal(t, "l", item.UnitOfMeasure)

	// Returned items are copies
	item.LeadTimeDays = 99
	again, err := items.GetItem(ctx, "INK-CMYK")
	require.NoError(t, err)
	assert.Equal(t, 10, again.LeadTimeDays)

	_, err = items.GetItem(ctx, "MISSING")
	var unknown *entities.UnknownItemError
	assert.True(t, errors.As(err, &unknown))

	updated := *again
	updated.OnHand = testhelpers.Dec("9")
	items.AddItem(updated)
	all, err := items.GetAllItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestBOMRepository_GetBOMLines(t *testing.T) {
	ctx := context.Background()
	_, boms, _, _ := loadedRepositories(t)

	lines, err := boms.GetBOMLines(ctx, "BROCHURE-A4")
	require.NoError(t, err)
	require.Len(t, lines, 5)
	for i := 1; i < len(lines); i++ {
		assert.Less(t, lines[i-1].FindNumber, lines[i].FindNumber)
	}

	none, err := boms.GetBOMLines(ctx, "PAPER-A4-GLOSS")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := boms.GetAllBOMLines(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestReceiptRepository(t *testing.T) {
	ctx := context.Background()
	_, _, _, receipts := loadedRepositories(t)

	paper, err := receipts.GetReceipts(ctx, "PAPER-A4-GLOSS")
	require.NoError(t, err)
	require.Len(t, paper, 1)
	assert.Equal(t, "PO-7001", paper[0].Source)

	none, err := receipts.GetReceipts(ctx, "INK-CMYK")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSnapshotReader_LoadSnapshot(t *testing.T) {
	items, boms, demands, receipts := loadedRepositories(t)
	reader := NewSnapshotReader(items, boms, demands, receipts)

	snapshot, err := reader.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Items, 8)
	assert.Len(t, snapshot.BOMLines, 7)
	assert.Len(t, snapshot.Demands, 2)
	assert.Len(t, snapshot.Receipts, 1)
	assert.False(t, snapshot.TakenAt.IsZero())

	withoutReceipts, err := NewSnapshotReader(items, boms, demands, nil).LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, withoutReceipts.Receipts)
}
