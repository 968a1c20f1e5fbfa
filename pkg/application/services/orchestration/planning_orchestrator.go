package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vsinha/printshop-mrp/pkg/application/dto"
	"github.com/vsinha/printshop-mrp/pkg/application/services/mrp"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/events"
)

// PlanningOrchestrator loads a snapshot, runs MRP over it and publishes the outcome
type PlanningOrchestrator struct {
	mrpService *mrp.MRPService
	source     repositories.SnapshotSource
	eventStore events.EventStore
	log        zerolog.Logger
	newRunID   func() string
}

// NewPlanningOrchestrator creates a new planning orchestrator. eventStore may be nil.
func NewPlanningOrchestrator(
	mrpService *mrp.MRPService,
	source repositories.SnapshotSource,
	eventStore events.EventStore,
	log zerolog.Logger,
) *PlanningOrchestrator {
	return &PlanningOrchestrator{
		mrpService: mrpService,
		source:     source,
		eventStore: eventStore,
		log:        log.With().Str("component", "planning_orchestrator").Logger(),
		newRunID:   func() string { return uuid.NewString() },
	}
}

// PlanningResult wraps a report with the run metadata kept out of the report itself
type PlanningResult struct {
	RunID      string
	Report     *dto.MRPReport
	SnapshotAt time.Time
	Duration   time.Duration
}

// RunCompletePlanning takes one snapshot from the source and plans it
func (po *PlanningOrchestrator) RunCompletePlanning(ctx context.Context, opts mrp.RunOptions) (*PlanningResult, error) {
	if po.source == nil {
		return nil, fmt.Errorf("no snapshot source configured")
	}

	snapshot, err := po.source.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return po.RunSnapshot(ctx, snapshot, opts)
}

// RunSnapshot plans an already loaded snapshot
func (po *PlanningOrchestrator) RunSnapshot(
	ctx context.Context,
	snapshot *entities.Snapshot,
	opts mrp.RunOptions,
) (*PlanningResult, error) {
	runID := po.newRunID()
	log := po.log.With().Str("run_id", runID).Logger()
	started := time.Now()

	if len(snapshot.Demands) == 0 {
		log.Warn().Msg("snapshot has no demand lines")
	}

	po.publish(runID, events.NewMRPRunStartedEvent(runID, snapshot))
	log.Info().
		Int("demand_lines", len(snapshot.Demands)).
		Int("items", len(snapshot.Items)).
		Int("bom_lines", len(snapshot.BOMLines)).
		Msg("MRP run started")

	report, err := po.mrpService.Run(ctx, snapshot, opts)
	if err != nil {
		po.publish(runID, events.NewMRPRunFailedEvent(runID, err))
		log.Error().Err(err).Msg("MRP run failed")
		return nil, fmt.Errorf("MRP run %s failed: %w", runID, err)
	}

	for _, w := range report.Warnings {
		log.Warn().
			Str("code", string(w.Code)).
			Str("item_id", string(w.ItemID)).
			Str("path", entities.FormatPath(w.Path)).
			Msg(w.Message)
	}
	for _, shortage := range report.Shortages {
		po.publish(runID, events.NewShortageDetectedEvent(runID, shortage))
	}
	for _, order := range report.PlannedOrders {
		po.publish(runID, events.NewOrderSuggestedEvent(runID, order))
	}

	duration := time.Since(started)
	po.publish(runID, events.NewMRPRunCompletedEvent(
		runID, len(report.Requirements), len(report.Shortages), len(report.Warnings), duration))

	log.Info().
		Int("requirements", len(report.Requirements)).
		Int("shortages", len(report.Shortages)).
		Int("nodes_visited", report.Stats.NodesVisited).
		Dur("duration", duration).
		Msg("MRP run completed")

	return &PlanningResult{
		RunID:      runID,
		Report:     report,
		SnapshotAt: snapshot.TakenAt,
		Duration:   duration,
	}, nil
}

func (po *PlanningOrchestrator) publish(runID string, event events.Event) {
	if po.eventStore == nil {
		return
	}
	if err := po.eventStore.AppendEvent(runID, event); err != nil {
		po.log.Warn().Err(err).Str("event_type", event.Type()).Msg("failed to publish event")
	}
}

// GetSummary returns a formatted summary of the planning results
func (result *PlanningResult) GetSummary() string {
	r := result.Report
	summary := fmt.Sprintf("Planning Summary (run %s, %d items planned):\n", result.RunID, r.Stats.ItemsPlanned)
	summary += fmt.Sprintf("  MRP: %d requirements, %d shortages, %d planned orders, %d warnings\n",
		len(r.Requirements), len(r.Shortages), len(r.PlannedOrders), len(r.Warnings))
	summary += fmt.Sprintf("  Explosion: %d demand lines, %d nodes visited", r.Stats.DemandLines, r.Stats.NodesVisited)
	for _, path := range r.CriticalPaths {
		summary += fmt.Sprintf("\n  Critical Path %s: %s", path.OrderID, path.Summary())
	}
	return summary
}
