package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

const (
	testItems = `item_id,description,type,unit_of_measure,on_hand,allocated,lead_time_days,unit_cost
BROCHURE-A4,A4 brochure,FinishedGood,ea,50,20,2,0.40
PAPER-A4-GLOSS,Gloss paper,RawMaterial,sheet,1000,200,5,0.03
INK-CMYK,Process ink,RawMaterial,l,0.5,,10,40
PLATE-SET,Plate setup,Component,ea,0,0,3,60
`
	testBOM = `parent_id,component_id,qty_per,unit_of_measure,conversion_factor,cost_only,find_number
# sheets per brochure
BROCHURE-A4,PAPER-A4-GLOSS,4,,,,10
BROCHURE-A4,INK-CMYK,1.5,ml,,false,20
BROCHURE-A4,PLATE-SET,0.004,,,true,40
`
	testDemands = `order_id,item_id,quantity,need_by
SO-100,BROCHURE-A4,500,2025-03-24
`
	testReceipts = `item_id,quantity,due_date,source
PAPER-A4-GLOSS,2000,2025-03-13,PO-7001
`
)

func writeScenario(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestDirectorySource_LoadSnapshot(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		ItemsFile:    testItems,
		BOMFile:      testBOM,
		DemandsFile:  testDemands,
		ReceiptsFile: testReceipts,
	})

	source := NewDirectorySource(dir)
	source.now = func() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) }

	snapshot, err := source.LoadSnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Items, 4)
	assert.Equal(t, entities.FinishedGood, snapshot.Items[0].Type)
	assert.Equal(t, "30", snapshot.Items[0].FreeStock().String())
	assert.True(t, snapshot.Items[2].Allocated.IsZero(), "blank allocated reads as zero")

	require.Len(t, snapshot.BOMLines, 3)
	assert.Equal(t, "ml", snapshot.BOMLines[1].UnitOfMeasure)
	assert.False(t, snapshot.BOMLines[1].HasConversionFactor())
	assert.True(t, snapshot.BOMLines[2].CostOnly)
	assert.Equal(t, "0.004", snapshot.BOMLines[2].QtyPer.String())

	require.Len(t, snapshot.Demands, 1)
	assert.Equal(t, time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC), snapshot.Demands[0].NeedBy)

	require.Len(t, snapshot.Receipts, 1)
	assert.Equal(t, "PO-7001", snapshot.Receipts[0].Source)
	assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), snapshot.TakenAt)
}

func TestDirectorySource_ReceiptsOptional(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		ItemsFile:   testItems,
		BOMFile:     testBOM,
		DemandsFile: testDemands,
	})

	snapshot, err := NewDirectorySource(dir).LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Receipts)
}

func TestDirectorySource_MissingRequiredFile(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		ItemsFile:   testItems,
		DemandsFile: testDemands,
	})

	_, err := NewDirectorySource(dir).LoadSnapshot(context.Background())
	assert.ErrorContains(t, err, "failed to open BOM file")
}

func TestSnapshotSource_ExplicitFiles(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		"catalog.csv":   testItems,
		"structure.csv": testBOM,
		"orders.csv":    testDemands,
	})

	snapshot, err := NewSnapshotSource(Files{
		Items:   filepath.Join(dir, "catalog.csv"),
		BOM:     filepath.Join(dir, "structure.csv"),
		Demands: filepath.Join(dir, "orders.csv"),
	}).LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Items, 4)
	assert.Empty(t, snapshot.Receipts)
}

func TestDirectorySource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirectorySource(t.TempDir()).LoadSnapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRecords_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		header  []string
		wantErr string
	}{
		{
			name:    "empty file",
			input:   "",
			header:  demandsHeader,
			wantErr: "missing its header row",
		},
		{
			name:    "wrong header",
			input:   "order,item,qty,date\n",
			header:  demandsHeader,
			wantErr: "header mismatch",
		},
		{
			name:    "short row",
			input:   "order_id,item_id,quantity,need_by\nSO-1,A,1\n",
			header:  demandsHeader,
			wantErr: "wrong number of fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecords(strings.NewReader(tt.input), "demands", tt.header)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoader_RowErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		load    func(*Loader, string) error
		wantErr string
	}{
		{
			name:    "items header only",
			file:    ItemsFile,
			content: strings.Join(itemsHeader, ",") + "\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadItems(p); return err },
			wantErr: "at least one data row",
		},
		{
			name:    "unknown item type",
			file:    ItemsFile,
			content: strings.Join(itemsHeader, ",") + "\nX,x,Gadget,ea,0,0,1,1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadItems(p); return err },
			wantErr: "line 2: invalid item type",
		},
		{
			name:    "negative on hand",
			file:    ItemsFile,
			content: strings.Join(itemsHeader, ",") + "\nX,x,Component,ea,-1,0,1,1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadItems(p); return err },
			wantErr: "cannot be negative",
		},
		{
			name:    "missing qty_per",
			file:    BOMFile,
			content: strings.Join(bomHeader, ",") + "\nA,B,,,,,10\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadBOM(p); return err },
			wantErr: "qty_per is required",
		},
		{
			name:    "bad cost_only",
			file:    BOMFile,
			content: strings.Join(bomHeader, ",") + "\nA,B,1,,,maybe,10\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadBOM(p); return err },
			wantErr: "invalid cost_only",
		},
		{
			name:    "bad need_by",
			file:    DemandsFile,
			content: strings.Join(demandsHeader, ",") + "\nSO-1,A,1,03/24/2025\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemands(p); return err },
			wantErr: "expected YYYY-MM-DD",
		},
		{
			name:    "zero receipt",
			file:    ReceiptsFile,
			content: strings.Join(receiptsHeader, ",") + "\nA,0,2025-03-24,PO-1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadReceipts(p); return err },
			wantErr: "quantity must be positive",
		},
		{
			name:    "line number counts comments",
			file:    BOMFile,
			content: strings.Join(bomHeader, ",") + "\n# plates\n# ink\nA,B,1,,,,10\nA,C,x,,,,20\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadBOM(p); return err },
			wantErr: "BOM CSV line 5: invalid qty_per: x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeScenario(t, map[string]string{tt.file: tt.content})
			err := tt.load(NewLoader(), filepath.Join(dir, tt.file))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDirectorySource_SelfReferencingLineLoads(t *testing.T) {
	dir := writeScenario(t, map[string]string{
		ItemsFile:   testItems,
		BOMFile:     testBOM + "PLATE-SET,PLATE-SET,1,,,,90\n",
		DemandsFile: testDemands,
	})

	snapshot, err := NewDirectorySource(dir).LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.BOMLines, 4)
	assert.Equal(t, snapshot.BOMLines[3].ParentID, snapshot.BOMLines[3].ComponentID)
}
