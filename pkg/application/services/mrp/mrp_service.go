package mrp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vsinha/printshop-mrp/pkg/application/dto"
	"github.com/vsinha/printshop-mrp/pkg/application/services/criticalpath"
	"github.com/vsinha/printshop-mrp/pkg/application/services/shared"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/services"
)

// EngineConfig holds the defaults an MRP service applies to every run
type EngineConfig struct {
	// MaxDepth is the BOM nesting ceiling (0 = shared.DefaultMaxDepth)
	MaxDepth int
	// MaxNodes bounds the nodes visited by one run (0 = shared.DefaultMaxNodes)
	MaxNodes int
	// Period is the default aggregation bucket
	Period PeriodBucket
	// Converter resolves unit conversions not carried on BOM lines (nil = default table)
	Converter *services.UnitConverter
}

// RunOptions adjusts a single run. Zero values fall back to the engine config.
type RunOptions struct {
	// Today anchors need-by clamping and planned order release dates (zero = current date)
	Today                time.Time
	MaxDepth             int
	MaxNodes             int
	Period               *PeriodBucket
	IncludeCostRollup    bool
	IncludeCriticalPaths bool
	// ComponentsOnly leaves the demanded item itself out of the requirements, so only
	// consumed components are netted. Its cost still counts toward the roll-up.
	ComponentsOnly bool
}

// MRPService runs explosion, aggregation and shortage detection over a snapshot.
// It keeps no state between runs, so one service may serve concurrent runs.
type MRPService struct {
	config EngineConfig
}

// NewMRPService creates a new MRP service with default configuration
func NewMRPService() *MRPService {
	return NewMRPServiceWithConfig(EngineConfig{
		MaxDepth: shared.DefaultMaxDepth,
		MaxNodes: shared.DefaultMaxNodes,
		Period:   PeriodDay,
	})
}

// NewMRPServiceWithConfig creates a new MRP service with custom configuration
func NewMRPServiceWithConfig(config EngineConfig) *MRPService {
	if config.Converter == nil {
		config.Converter = services.NewDefaultUnitConverter()
	}
	return &MRPService{config: config}
}

// ExplosionResult is the raw output of exploding every demand line
type ExplosionResult struct {
	Entries      []entities.ExplosionEntry
	CostRollups  []entities.CostRollup
	Warnings     []entities.Warning
	NodesVisited int
}

// Run performs a complete MRP run. Any structural error aborts the run without a partial report.
func (s *MRPService) Run(ctx context.Context, snapshot *entities.Snapshot, opts RunOptions) (*dto.MRPReport, error) {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = shared.CivilDate(today)

	bucket := s.config.Period
	if opts.Period != nil {
		bucket = *opts.Period
	}
	limits := s.limits(opts)

	index, err := shared.NewIndex(snapshot, s.config.Converter)
	if err != nil {
		return nil, fmt.Errorf("failed to index snapshot: %w", err)
	}

	// Pass 1: explode every demand line into requirement entries
	explosion, err := s.Explode(ctx, index, snapshot.Demands, limits, today, opts.ComponentsOnly)
	if err != nil {
		return nil, err
	}

	// Pass 2: merge entries per item and period
	aggregated := Aggregate(explosion.Entries, bucket)

	// Pass 3: net against free stock and scheduled receipts
	requirements, receiptWarnings, err := DetectShortages(aggregated, index, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to detect shortages: %w", err)
	}
	shortages := FlaggedShortages(requirements)

	// Pass 4: suggest orders covering each shortage
	orders, err := SuggestPlannedOrders(shortages, index, today)
	if err != nil {
		return nil, err
	}

	warnings := append(explosion.Warnings, receiptWarnings...)
	sortWarnings(warnings)

	report := &dto.MRPReport{
		AsOf:          today,
		Period:        bucket.String(),
		Requirements:  requirements,
		Shortages:     shortages,
		PlannedOrders: orders,
		Warnings:      warnings,
		Stats: dto.RunStats{
			DemandLines:      len(snapshot.Demands),
			NodesVisited:     explosion.NodesVisited,
			ExplosionEntries: len(explosion.Entries),
			ItemsPlanned:     countItems(requirements),
		},
	}

	if opts.IncludeCostRollup {
		report.CostRollups = explosion.CostRollups
	}

	if opts.IncludeCriticalPaths {
		cps := criticalpath.NewCriticalPathService(index, limits, today)
		paths, err := cps.AnalyzeDemands(ctx, snapshot.Demands)
		if err != nil {
			return nil, err
		}
		report.CriticalPaths = paths
	}

	return report, nil
}

// Explode walks the BOM below every demand line and collects entries, cost roll-ups and warnings
func (s *MRPService) Explode(
	ctx context.Context,
	index *shared.Index,
	demands []entities.DemandLine,
	limits shared.Limits,
	today time.Time,
	componentsOnly bool,
) (*ExplosionResult, error) {
	traverser := shared.NewBOMTraverser(index, limits, today)
	warnings := newWarningSet()
	result := &ExplosionResult{
		CostRollups: make([]entities.CostRollup, 0, len(demands)),
	}

	for i := range demands {
		demand := &demands[i]
		visitor := NewMRPVisitor(demand, warnings)
		visitor.componentsOnly = componentsOnly
		if err := traverser.TraverseDemand(ctx, demand, visitor); err != nil {
			return nil, fmt.Errorf("failed to explode demand %s for %s: %w", demand.OrderID, demand.ItemID, err)
		}
		result.Entries = append(result.Entries, visitor.Entries()...)
		result.CostRollups = append(result.CostRollups, visitor.CostRollup())
	}

	sortCostRollups(result.CostRollups)

	result.Warnings = warnings.list()
	result.NodesVisited = traverser.Visited()
	return result, nil
}

func (s *MRPService) limits(opts RunOptions) shared.Limits {
	limits := shared.Limits{MaxDepth: s.config.MaxDepth, MaxNodes: s.config.MaxNodes}
	if opts.MaxDepth > 0 {
		limits.MaxDepth = opts.MaxDepth
	}
	if opts.MaxNodes > 0 {
		limits.MaxNodes = opts.MaxNodes
	}
	return limits
}

// sortCostRollups orders roll-ups by every demand-line field so input order never shows
func sortCostRollups(rollups []entities.CostRollup) {
	sort.SliceStable(rollups, func(i, j int) bool {
		a, b := rollups[i], rollups[j]
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if !a.NeedBy.Equal(b.NeedBy) {
			return a.NeedBy.Before(b.NeedBy)
		}
		return a.Quantity.LessThan(b.Quantity)
	})
}

func sortWarnings(warnings []entities.Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Code != warnings[j].Code {
			return warnings[i].Code < warnings[j].Code
		}
		if warnings[i].ItemID != warnings[j].ItemID {
			return warnings[i].ItemID < warnings[j].ItemID
		}
		return warnings[i].Message < warnings[j].Message
	})
}

func countItems(requirements []entities.Requirement) int {
	seen := make(map[entities.ItemID]bool)
	for _, req := range requirements {
		seen[req.ItemID] = true
	}
	return len(seen)
}
