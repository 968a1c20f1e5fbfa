package mrp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printshop-mrp/pkg/application/services/shared"
	testhelpers "github.com/vsinha/printshop-mrp/pkg/application/services/testing"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

func TestAggregate(t *testing.T) {
	day := testhelpers.DaysFromToday
	entries := []entities.ExplosionEntry{
		{ItemID: "P", NeedBy: day(3), Quantity: testhelpers.Dec("0.1"), OrderID: "SO-2"},
		{ItemID: "P", NeedBy: day(3), Quantity: testhelpers.Dec("0.2"), OrderID: "SO-1"},
		{ItemID: "P", NeedBy: day(4), Quantity: testhelpers.Dec("1"), OrderID: "SO-1"},
		{ItemID: "K", NeedBy: day(3), Quantity: testhelpers.Dec("5"), OrderID: "SO-1"},
		{ItemID: "Z", NeedBy: day(3), Quantity: testhelpers.Dec("0"), OrderID: "SO-1"},
	}

	got := Aggregate(entries, PeriodDay)
	require.Len(t, got, 3)
	assert.Equal(t, entities.ItemID("K"), got[0].ItemID)
	assert.Equal(t, entities.ItemID("P"), got[1].ItemID)
	assertDec(t, "0.3", got[1].Gross)
	assert.Equal(t, []string{"SO-1", "SO-2"}, got[1].Sources)
	assert.Equal(t, day(4), got[2].Period)

	weekly := Aggregate(entries, PeriodWeek)
	require.Len(t, weekly, 2)
	assertDec(t, "1.3", weekly[1].Gross)
	assert.Equal(t, testhelpers.Today, weekly[1].Period)
}

func TestParsePeriodBucket(t *testing.T) {
	tests := []struct {
		in      string
		want    PeriodBucket
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"day", PeriodDay, false},
		{"Weekly", PeriodWeek, false},
		{" week ", PeriodWeek, false},
		{"month", PeriodDay, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriodBucket(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectShortages_TimePhased(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: []entities.Item{{
			ID: "P", Type: entities.RawMaterial, UnitOfMeasure: "ea",
			OnHand: testhelpers.Dec("10"), Allocated: testhelpers.Dec("4"),
		}},
		Receipts: []entities.ScheduledReceipt{
			{ItemID: "P", Quantity: testhelpers.Dec("3"), DueDate: testhelpers.DaysFromToday(2), Source: "PO-1"},
			{ItemID: "P", Quantity: testhelpers.Dec("50"), DueDate: testhelpers.DaysFromToday(20), Source: "PO-2"},
		},
	}
	index, err := shared.NewIndex(snapshot, nil)
	require.NoError(t, err)

	aggregated := []AggregatedRequirement{
		{ItemID: "P", Period: testhelpers.DaysFromToday(1), Gross: testhelpers.Dec("4"), Sources: []string{"SO-1"}},
		{ItemID: "P", Period: testhelpers.DaysFromToday(5), Gross: testhelpers.Dec("8"), Sources: []string{"SO-2"}},
		{ItemID: "P", Period: testhelpers.DaysFromToday(9), Gross: testhelpers.Dec("1"), Sources: []string{"SO-3"}},
	}

	reqs, warnings, err := DetectShortages(aggregated, index, PeriodDay)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	// free stock 6 covers day 1 and leaves 2
	assertDec(t, "6", reqs[0].Available)
	assert.Equal(t, entities.SeverityNone, reqs[0].Severity)

	// 2 left + 3 received against 8
	assertDec(t, "3", reqs[1].ScheduledReceipts)
	assertDec(t, "5", reqs[1].Available)
	assertDec(t, "3", reqs[1].Shortage)
	assert.Equal(t, entities.SeverityPartial, reqs[1].Severity)

	assertDec(t, "0", reqs[2].Available)
	assertDec(t, "1", reqs[2].Shortage)
	assert.Equal(t, entities.SeverityCritical, reqs[2].Severity)

	require.Len(t, warnings, 1)
	assert.Equal(t, entities.WarningLateReceipt, warnings[0].Code)
	assert.Contains(t, warnings[0].Message, "PO-2")

	flagged := FlaggedShortages(reqs)
	require.Len(t, flagged, 2)
	assert.Equal(t, testhelpers.DaysFromToday(5), flagged[0].Period)
}

func TestDetectShortages_OverAllocated(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: []entities.Item{{
			ID: "P", Type: entities.RawMaterial, UnitOfMeasure: "ea",
			OnHand: testhelpers.Dec("2"), Allocated: testhelpers.Dec("5"),
		}},
	}
	index, err := shared.NewIndex(snapshot, nil)
	require.NoError(t, err)

	reqs, _, err := DetectShortages([]AggregatedRequirement{
		{ItemID: "P", Period: testhelpers.DaysFromToday(1), Gross: testhelpers.Dec("1")},
		{ItemID: "P", Period: testhelpers.DaysFromToday(2), Gross: testhelpers.Dec("1")},
	}, index, PeriodDay)
	require.NoError(t, err)

	// the deficit of 3 is charged to the first period only
	assertDec(t, "-3", reqs[0].Available)
	assertDec(t, "4", reqs[0].Shortage)
	assertDec(t, "0", reqs[1].Available)
	assertDec(t, "1", reqs[1].Shortage)
}

func TestFlaggedShortages_Ordering(t *testing.T) {
	day := testhelpers.DaysFromToday
	reqs := []entities.Requirement{
		{ItemID: "X", Period: day(2), Shortage: testhelpers.Dec("1")},
		{ItemID: "B", Period: day(1), Shortage: testhelpers.Dec("5")},
		{ItemID: "A", Period: day(1), Shortage: testhelpers.Dec("5")},
		{ItemID: "C", Period: day(1), Shortage: testhelpers.Dec("9")},
		{ItemID: "D", Period: day(1), Shortage: testhelpers.Dec("0")},
	}

	flagged := FlaggedShortages(reqs)
	ids := make([]entities.ItemID, len(flagged))
	for i, r := range flagged {
		ids[i] = r.ItemID
	}
	assert.Equal(t, []entities.ItemID{"C", "A", "B", "X"}, ids)
}
