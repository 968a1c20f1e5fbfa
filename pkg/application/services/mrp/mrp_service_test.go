package mrp

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printshop-mrp/pkg/application/dto"
	testhelpers "github.com/vsinha/printshop-mrp/pkg/application/services/testing"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

func runDefault(t *testing.T, snapshot *entities.Snapshot) *dto.MRPReport {
	t.Helper()
	report, err := NewMRPService().Run(context.Background(), snapshot, RunOptions{
		Today:             testhelpers.Today,
		IncludeCostRollup: true,
	})
	require.NoError(t, err)
	return report
}

func assertDec(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, testhelpers.Dec(expected).Equal(actual),
		append([]interface{}{"expected %s, got %s", expected, actual}, msgAndArgs...)...)
}

func findRequirement(reqs []entities.Requirement, id entities.ItemID, period time.Time) *entities.Requirement {
	for i := range reqs {
		if reqs[i].ItemID == id && reqs[i].Period.Equal(period) {
			return &reqs[i]
		}
	}
	return nil
}

func TestMRPService_Run_ABCExample(t *testing.T) {
	report := runDefault(t, testhelpers.BuildABCSnapshot())

	b := findRequirement(report.Requirements, "B", testhelpers.DaysFromToday(5))
	require.NotNil(t, b)
	assertDec(t, "2", b.GrossRequirement)
	assertDec(t, "2", b.Shortage)
	assert.Equal(t, entities.SeverityCritical, b.Severity)

	c := findRequirement(report.Requirements, "C", testhelpers.DaysFromToday(2))
	require.NotNil(t, c)
	assertDec(t, "6", c.GrossRequirement)
	assertDec(t, "4", c.Available)
	assertDec(t, "2", c.Shortage)
	assert.Equal(t, entities.SeverityPartial, c.Severity)
	assert.Equal(t, []string{"SO-1"}, c.Sources)

	require.Len(t, report.Shortages, 3)
	assert.Equal(t, entities.ItemID("C"), report.Shortages[0].ItemID)
	assert.Equal(t, entities.ItemID("B"), report.Shortages[1].ItemID)
	assert.Equal(t, entities.ItemID("A"), report.Shortages[2].ItemID)
	assertDec(t, "1", report.Shortages[2].Shortage)

	assert.True(t, report.HasShortages())
	assert.Equal(t, "day", report.Period)
	assert.Equal(t, 3, report.Stats.NodesVisited)
	assert.Equal(t, 3, report.Stats.ItemsPlanned)
}

func TestMRPService_Run_ComponentsOnly(t *testing.T) {
	report, err := NewMRPService().Run(context.Background(), testhelpers.BuildABCSnapshot(), RunOptions{
		Today:             testhelpers.Today,
		IncludeCostRollup: true,
		ComponentsOnly:    true,
	})
	require.NoError(t, err)

	require.Len(t, report.Shortages, 2)
	assert.Equal(t, entities.ItemID("C"), report.Shortages[0].ItemID)
	assert.Equal(t, entities.ItemID("B"), report.Shortages[1].ItemID)
	for _, req := range report.Requirements {
		assert.NotEqual(t, entities.ItemID("A"), req.ItemID)
	}

	full := runDefault(t, testhelpers.BuildABCSnapshot())
	require.Len(t, report.CostRollups, 1)
	assert.True(t, full.CostRollups[0].TotalCost.Equal(report.CostRollups[0].TotalCost))
}

func TestMRPService_Run_PlannedOrders(t *testing.T) {
	report := runDefault(t, testhelpers.BuildABCSnapshot())
	require.Len(t, report.PlannedOrders, 3)

	c := report.PlannedOrders[0]
	assert.Equal(t, entities.ItemID("C"), c.ItemID)
	assert.Equal(t, entities.Buy, c.OrderType)
	assertDec(t, "2", c.Quantity)
	assert.Equal(t, testhelpers.DaysFromToday(2), c.DueDate)
	// Three days of lead time before day two cannot be met
	assert.Equal(t, testhelpers.Today, c.ReleaseDate)
	assert.True(t, c.Late)

	b := report.PlannedOrders[1]
	assert.Equal(t, entities.Make, b.OrderType)
	assert.Equal(t, testhelpers.DaysFromToday(3), b.ReleaseDate)
	assert.False(t, b.Late)
}

func TestMRPService_Run_ExactMultiLevelQuantities(t *testing.T) {
	snapshot := testhelpers.BuildABCSnapshot()
	snapshot.Demands[0].Quantity = testhelpers.Dec("7")
	snapshot.BOMLines[1].QtyPer = testhelpers.Dec("0.3")

	report := runDefault(t, snapshot)

	// 7 A x 2 B x 0.3 C
	c := findRequirement(report.Requirements, "C", testhelpers.DaysFromToday(2))
	require.NotNil(t, c)
	assertDec(t, "4.2", c.GrossRequirement)
	assertDec(t, "0.2", c.Shortage)

	b := findRequirement(report.Requirements, "B", testhelpers.DaysFromToday(5))
	require.NotNil(t, b)
	assertDec(t, "14", b.GrossRequirement)
}

func TestMRPService_Run_PrintShop(t *testing.T) {
	report, err := NewMRPService().Run(context.Background(), testhelpers.BuildPrintShopSnapshot(), RunOptions{
		Today:                testhelpers.Today,
		IncludeCostRollup:    true,
		IncludeCriticalPaths: true,
	})
	require.NoError(t, err)

	t.Run("unit conversion from ml to l", func(t *testing.T) {
		ink := findRequirement(report.Requirements, "INK-CMYK", testhelpers.DaysFromToday(11))
		require.NotNil(t, ink)
		assertDec(t, "0.75", ink.GrossRequirement)
		assertDec(t, "0.25", ink.Shortage)
		assert.Equal(t, entities.SeverityPartial, ink.Severity)
	})

	t.Run("scheduled receipt covers first period only", func(t *testing.T) {
		first := findRequirement(report.Requirements, "PAPER-A4-GLOSS", testhelpers.DaysFromToday(16))
		require.NotNil(t, first)
		assertDec(t, "2000", first.ScheduledReceipts)
		assertDec(t, "2800", first.Available)
		assert.False(t, first.Short())

		second := findRequirement(report.Requirements, "PAPER-A4-GLOSS", testhelpers.DaysFromToday(23))
		require.NotNil(t, second)
		assertDec(t, "800", second.Available)
		assertDec(t, "200", second.Shortage)
	})

	t.Run("allocated stock is not available", func(t *testing.T) {
		brochure := findRequirement(report.Requirements, "BROCHURE-A4", testhelpers.DaysFromToday(21))
		require.NotNil(t, brochure)
		assertDec(t, "30", brochure.Available)
		assertDec(t, "470", brochure.Shortage)
	})

	t.Run("services and cost-only lines generate no requirement", func(t *testing.T) {
		for _, req := range report.Requirements {
			assert.NotEqual(t, entities.ItemID("BINDING"), req.ItemID)
			assert.NotEqual(t, entities.ItemID("PLATE-SET"), req.ItemID)
			assert.NotEqual(t, entities.ItemID("PLATE-ALU"), req.ItemID)
		}
	})

	t.Run("cost roll-up per demand line", func(t *testing.T) {
		require.Len(t, report.CostRollups, 2)
		first := report.CostRollups[0]
		assert.Equal(t, "SO-100", first.OrderID)
		assertDec(t, "525", first.MaterialCost)
		assertDec(t, "240", first.CostOnlyCost)
		assertDec(t, "765", first.TotalCost)

		second := report.CostRollups[1]
		assertDec(t, "262.5", second.MaterialCost)
		assertDec(t, "120", second.CostOnlyCost)
	})

	t.Run("shortage ordering", func(t *testing.T) {
		for i := 1; i < len(report.Shortages); i++ {
			prev, cur := report.Shortages[i-1], report.Shortages[i]
			if prev.Period.Equal(cur.Period) {
				assert.True(t, prev.Shortage.GreaterThanOrEqual(cur.Shortage))
			} else {
				assert.True(t, prev.Period.Before(cur.Period))
			}
		}
		cover := findRequirement(report.Shortages, "COVER-A4", testhelpers.DaysFromToday(20))
		card := findRequirement(report.Shortages, "CARDSTOCK-300G", testhelpers.DaysFromToday(20))
		require.NotNil(t, cover)
		require.NotNil(t, card)
	})

	t.Run("critical paths", func(t *testing.T) {
		require.Len(t, report.CriticalPaths, 2)
		path := report.CriticalPaths[0]
		assert.Equal(t, []entities.ItemID{"BROCHURE-A4", "INK-CMYK"}, path.Path)
		assert.Equal(t, 12, path.TotalLeadTime)
		assert.Equal(t, entities.ItemID("INK-CMYK"), path.BottleneckItem)
	})

	assert.Empty(t, report.Warnings)
}

func TestMRPService_Run_CostOnlyLine(t *testing.T) {
	snapshot := testhelpers.BuildABCSnapshot()
	snapshot.BOMLines[0].CostOnly = true

	report := runDefault(t, snapshot)

	for _, req := range report.Requirements {
		assert.Equal(t, entities.ItemID("A"), req.ItemID, "cost-only subtree must not generate requirements")
	}
	require.Len(t, report.CostRollups, 1)
	assertDec(t, "5", report.CostRollups[0].MaterialCost)
	assertDec(t, "7", report.CostRollups[0].CostOnlyCost)
	assertDec(t, "12", report.CostRollups[0].TotalCost)
}

func mustSelfLine(t *testing.T, id entities.ItemID) entities.BOMLine {
	t.Helper()
	line, err := entities.NewBOMLine(id, id, decimal.NewFromInt(1), "", decimal.Zero, false, 90)
	require.NoError(t, err)
	return *line
}

func TestMRPService_Run_StructuralErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("cycle fails within bounded time", func(t *testing.T) {
		done := make(chan error, 1)
		go func() {
			_, err := NewMRPService().Run(ctx, testhelpers.BuildCyclicSnapshot(), RunOptions{Today: testhelpers.Today})
			done <- err
		}()

		select {
		case err := <-done:
			var cyclic *entities.CyclicBOMError
			require.True(t, errors.As(err, &cyclic), "expected CyclicBOMError, got %v", err)
			assert.Equal(t, entities.ItemID("A"), cyclic.Item)
			assert.Equal(t, []entities.ItemID{"A", "B", "C", "A"}, cyclic.Path)
		case <-time.After(2 * time.Second):
			t.Fatal("explosion of a cyclic BOM did not terminate")
		}
	})

	t.Run("self-referencing line", func(t *testing.T) {
		snapshot := testhelpers.BuildABCSnapshot()
		snapshot.BOMLines = append(snapshot.BOMLines, mustSelfLine(t, "A"))
		_, err := NewMRPService().Run(ctx, snapshot, RunOptions{Today: testhelpers.Today})
		var cyclic *entities.CyclicBOMError
		require.True(t, errors.As(err, &cyclic), "expected CyclicBOMError, got %v", err)
		assert.Equal(t, entities.ItemID("A"), cyclic.Item)
		assert.Equal(t, []entities.ItemID{"A", "A"}, cyclic.Path)
	})

	t.Run("depth ceiling", func(t *testing.T) {
		_, err := NewMRPService().Run(ctx, testhelpers.BuildChainSnapshot(51), RunOptions{Today: testhelpers.Today})
		var deep *entities.BOMTooDeepError
		require.True(t, errors.As(err, &deep), "expected BOMTooDeepError, got %v", err)
		assert.Equal(t, 51, deep.Depth)
		assert.Equal(t, 50, deep.Limit)

		_, err = NewMRPService().Run(ctx, testhelpers.BuildChainSnapshot(50), RunOptions{Today: testhelpers.Today})
		assert.NoError(t, err)
	})

	t.Run("run option overrides depth", func(t *testing.T) {
		_, err := NewMRPService().Run(ctx, testhelpers.BuildChainSnapshot(5), RunOptions{Today: testhelpers.Today, MaxDepth: 4})
		var deep *entities.BOMTooDeepError
		assert.True(t, errors.As(err, &deep))
	})

	t.Run("node budget", func(t *testing.T) {
		_, err := NewMRPService().Run(ctx, testhelpers.BuildWideSnapshot(1, 3, 4), RunOptions{Today: testhelpers.Today, MaxNodes: 10})
		var tooLarge *entities.ExplosionTooLargeError
		require.True(t, errors.As(err, &tooLarge), "expected ExplosionTooLargeError, got %v", err)
		assert.Equal(t, 10, tooLarge.Limit)
	})

	t.Run("unknown component", func(t *testing.T) {
		snapshot := testhelpers.BuildABCSnapshot()
		snapshot.BOMLines[1].ComponentID = "GHOST"
		_, err := NewMRPService().Run(ctx, snapshot, RunOptions{Today: testhelpers.Today})
		var unknown *entities.UnknownItemError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, entities.ItemID("GHOST"), unknown.ID)
	})

	t.Run("unknown demand item", func(t *testing.T) {
		snapshot := testhelpers.BuildABCSnapshot()
		snapshot.Demands[0].ItemID = "NOPE"
		_, err := NewMRPService().Run(ctx, snapshot, RunOptions{Today: testhelpers.Today})
		var unknown *entities.UnknownItemError
		require.True(t, errors.As(err, &unknown))
		assert.Contains(t, unknown.ReferencedBy, "SO-1")
	})

	t.Run("incompatible units", func(t *testing.T) {
		snapshot := testhelpers.BuildABCSnapshot()
		snapshot.BOMLines[1].UnitOfMeasure = "kg"
		_, err := NewMRPService().Run(ctx, snapshot, RunOptions{Today: testhelpers.Today})
		var units *entities.IncompatibleUnitsError
		require.True(t, errors.As(err, &units))
		assert.Equal(t, "kg", units.From)
		assert.Equal(t, "ea", units.To)
	})

	t.Run("duplicate item ids", func(t *testing.T) {
		snapshot := testhelpers.BuildABCSnapshot()
		snapshot.Items = append(snapshot.Items, snapshot.Items[0])
		_, err := NewMRPService().Run(ctx, snapshot, RunOptions{Today: testhelpers.Today})
		var invalid *entities.InvalidSnapshotError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewMRPService().Run(cancelled, testhelpers.BuildABCSnapshot(), RunOptions{Today: testhelpers.Today})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMRPService_Run_PermutationInvariance(t *testing.T) {
	base := testhelpers.BuildWideSnapshot(12, 2, 3)
	baseline, err := json.Marshal(runDefault(t, base))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffled := testhelpers.BuildWideSnapshot(12, 2, 3)
		rng.Shuffle(len(shuffled.Demands), func(a, b int) {
			shuffled.Demands[a], shuffled.Demands[b] = shuffled.Demands[b], shuffled.Demands[a]
		})
		rng.Shuffle(len(shuffled.Items), func(a, b int) {
			shuffled.Items[a], shuffled.Items[b] = shuffled.Items[b], shuffled.Items[a]
		})

		got, err := json.Marshal(runDefault(t, shuffled))
		require.NoError(t, err)
		assert.JSONEq(t, string(baseline), string(got))
	}
}

func TestMRPService_Run_Idempotent(t *testing.T) {
	snapshot := testhelpers.BuildPrintShopSnapshot()
	service := NewMRPService()
	opts := RunOptions{Today: testhelpers.Today, IncludeCostRollup: true, IncludeCriticalPaths: true}

	first, err := service.Run(context.Background(), snapshot, opts)
	require.NoError(t, err)
	second, err := service.Run(context.Background(), snapshot, opts)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMRPService_Run_ConcurrentRunsShareSnapshot(t *testing.T) {
	snapshot := testhelpers.BuildPrintShopSnapshot()
	service := NewMRPService()
	opts := RunOptions{Today: testhelpers.Today, IncludeCostRollup: true, IncludeCriticalPaths: true}

	baseline, err := service.Run(context.Background(), snapshot, opts)
	require.NoError(t, err)
	want, err := json.Marshal(baseline)
	require.NoError(t, err)

	const runs = 16
	results := make([][]byte, runs)
	errs := make([]error, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := service.Run(context.Background(), snapshot, opts)
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = json.Marshal(report)
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i], "run %d", i)
		assert.Equal(t, string(want), string(results[i]), "run %d", i)
	}
}

func TestMRPService_Run_CostRollupOrderIgnoresDemandOrder(t *testing.T) {
	build := func(first, second string) *entities.Snapshot {
		snapshot := testhelpers.BuildABCSnapshot()
		demand := snapshot.Demands[0]
		a, b := demand, demand
		a.Quantity = testhelpers.Dec(first)
		b.Quantity = testhelpers.Dec(second)
		snapshot.Demands = []entities.DemandLine{a, b}
		return snapshot
	}

	forward := runDefault(t, build("1", "3"))
	reversed := runDefault(t, build("3", "1"))

	require.Len(t, forward.CostRollups, 2)
	assertDec(t, "1", forward.CostRollups[0].Quantity)
	assertDec(t, "3", forward.CostRollups[1].Quantity)

	a, err := json.Marshal(forward.CostRollups)
	require.NoError(t, err)
	b, err := json.Marshal(reversed.CostRollups)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMRPService_Run_NoNegativeShortages(t *testing.T) {
	snapshot := testhelpers.BuildPrintShopSnapshot()
	for i := range snapshot.Items {
		snapshot.Items[i].OnHand = testhelpers.Dec("100000")
	}

	report := runDefault(t, snapshot)
	require.NotEmpty(t, report.Requirements)
	for _, req := range report.Requirements {
		assert.True(t, req.Shortage.IsZero(), "item %s has shortage %s", req.ItemID, req.Shortage)
		assert.Equal(t, entities.SeverityNone, req.Severity)
	}
	assert.Empty(t, report.Shortages)
	assert.Empty(t, report.PlannedOrders)
}

func TestMRPService_Run_Warnings(t *testing.T) {
	snapshot := testhelpers.BuildABCSnapshot()
	snapshot.Items[2].LeadTimeDays = 0
	snapshot.BOMLines = append(snapshot.BOMLines, entities.BOMLine{
		ParentID:    "A",
		ComponentID: "C",
		QtyPer:      decimal.Zero,
		FindNumber:  20,
	})
	snapshot.Receipts = []entities.ScheduledReceipt{{
		ItemID:   "B",
		Quantity: testhelpers.Dec("5"),
		DueDate:  testhelpers.DaysFromToday(30),
		Source:   "PO-1",
	}}

	report := runDefault(t, snapshot)

	codes := make(map[entities.WarningCode]int)
	for _, w := range report.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, 1, codes[entities.WarningZeroLeadTime], "zero lead time is reported once per item")
	assert.Equal(t, 1, codes[entities.WarningZeroQuantityPer])
	assert.Equal(t, 1, codes[entities.WarningLateReceipt])

	for _, w := range report.Warnings {
		if w.Code == entities.WarningZeroLeadTime {
			// A -> B -> C sorts before A -> C
			assert.Equal(t, []entities.ItemID{"A", "B", "C"}, w.Path)
		}
	}
}

func TestMRPService_Run_WeeklyBuckets(t *testing.T) {
	snapshot := testhelpers.BuildABCSnapshot()
	snapshot.Demands = append(snapshot.Demands, entities.DemandLine{
		OrderID:  "SO-2",
		ItemID:   "A",
		Quantity: testhelpers.Dec("1"),
		NeedBy:   testhelpers.DaysFromToday(9),
	})

	week := PeriodWeek
	report, err := NewMRPService().Run(context.Background(), snapshot, RunOptions{
		Today:  testhelpers.Today,
		Period: &week,
	})
	require.NoError(t, err)
	assert.Equal(t, "week", report.Period)

	// Days 7 and 9 fall into the ISO week starting Monday day 7
	a := findRequirement(report.Requirements, "A", testhelpers.DaysFromToday(7))
	require.NotNil(t, a)
	assertDec(t, "2", a.GrossRequirement)
	assert.Equal(t, []string{"SO-1", "SO-2"}, a.Sources)
}

func TestMRPService_Run_NeedByNeverBeforeToday(t *testing.T) {
	snapshot := testhelpers.BuildABCSnapshot()
	snapshot.Demands[0].NeedBy = testhelpers.DaysFromToday(1)

	report := runDefault(t, snapshot)
	for _, req := range report.Requirements {
		assert.False(t, req.Period.Before(testhelpers.Today), "%s period %s is before today", req.ItemID, req.Period)
	}
}
