package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printshop-mrp/pkg/application/services/mrp"
	testhelpers "github.com/vsinha/printshop-mrp/pkg/application/services/testing"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	original := testhelpers.BuildPrintShopSnapshot()

	require.NoError(t, store.SaveSnapshot(ctx, original))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)

	require.Len(t, loaded.Items, len(original.Items))
	require.Len(t, loaded.BOMLines, len(original.BOMLines))
	require.Len(t, loaded.Demands, len(original.Demands))
	require.Len(t, loaded.Receipts, len(original.Receipts))

	// rows come back ordered by key
	assert.Equal(t, entities.ItemID("BINDING"), loaded.Items[0].ID)
	assert.Equal(t, entities.Service, loaded.Items[0].Type)

	var plates *entities.BOMLine
	for i := range loaded.BOMLines {
		if loaded.BOMLines[i].ComponentID == "PLATE-SET" {
			plates = &loaded.BOMLines[i]
		}
	}
	require.NotNil(t, plates)
	assert.True(t, plates.CostOnly)
	assert.True(t, plates.QtyPer.Equal(testhelpers.Dec("0.004")))

	assert.True(t, loaded.Demands[0].NeedBy.Equal(testhelpers.DaysFromToday(21)))
	assert.Equal(t, "PO-7001", loaded.Receipts[0].Source)

	// the engine sees the same plan either way
	opts := mrp.RunOptions{Today: testhelpers.Today, IncludeCostRollup: true}
	want, err := mrp.NewMRPService().Run(ctx, original, opts)
	require.NoError(t, err)
	got, err := mrp.NewMRPService().Run(ctx, loaded, opts)
	require.NoError(t, err)

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestStore_SaveReplacesPreviousData(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	require.NoError(t, store.SaveSnapshot(ctx, testhelpers.BuildPrintShopSnapshot()))
	require.NoError(t, store.SaveSnapshot(ctx, testhelpers.BuildABCSnapshot()))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 3)
	assert.Len(t, loaded.BOMLines, 2)
	assert.Empty(t, loaded.Receipts)
}

func TestStore_InvalidRow(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	_, err := store.db.ExecContext(ctx, `INSERT INTO items (item_id, item_type, unit_of_measure) VALUES ('X', 'Gadget', 'ea')`)
	require.NoError(t, err)

	_, err = store.LoadSnapshot(ctx)
	var invalid *entities.InvalidSnapshotError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Reason, "item X")
}

func TestStore_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "printshop.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(ctx, testhelpers.BuildABCSnapshot()))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Demands, 1)
}

func TestStore_CancelledContext(t *testing.T) {
	store := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.LoadSnapshot(ctx)
	assert.Error(t, err)
}
