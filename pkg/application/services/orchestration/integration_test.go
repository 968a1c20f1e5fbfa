package orchestration

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printshop-mrp/pkg/application/services/mrp"
	testhelpers "github.com/vsinha/printshop-mrp/pkg/application/services/testing"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/infrastructure/events"
	infratesting "github.com/vsinha/printshop-mrp/pkg/infrastructure/testing"
)

type failingSource struct{}

func (failingSource) LoadSnapshot(context.Context) (*entities.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func eventTypes(t *testing.T, store events.EventStore, runID string) []string {
	t.Helper()
	stream, err := store.ReadEvents(runID, 1)
	require.NoError(t, err)
	types := make([]string, len(stream))
	for i, e := range stream {
		types[i] = e.Type()
	}
	return types
}

func TestPlanningOrchestrator_RunCompletePlanning(t *testing.T) {
	repos := infratesting.BuildRepositories(testhelpers.BuildABCSnapshot())
	store := events.NewInMemoryEventStore(zerolog.Nop())
	var logs bytes.Buffer

	orchestrator := NewPlanningOrchestrator(mrp.NewMRPService(), repos.SnapshotReader(), store, zerolog.New(&logs))

	result, err := orchestrator.RunCompletePlanning(context.Background(), mrp.RunOptions{
		Today:                testhelpers.Today,
		IncludeCriticalPaths: true,
	})
	require.NoError(t, err)

	assert.Len(t, result.RunID, 36)
	require.Len(t, result.Report.Shortages, 3)
	require.Len(t, result.Report.CriticalPaths, 1)
	assert.Contains(t, result.GetSummary(), "3 shortages")
	assert.Contains(t, result.GetSummary(), "Bottleneck: C")

	assert.Equal(t, []string{
		events.MRPRunStartedEvent,
		events.ShortageDetectedEvent,
		events.ShortageDetectedEvent,
		events.ShortageDetectedEvent,
		events.OrderSuggestedEvent,
		events.OrderSuggestedEvent,
		events.OrderSuggestedEvent,
		events.MRPRunCompletedEvent,
	}, eventTypes(t, store, result.RunID))

	assert.Contains(t, logs.String(), result.RunID)
	assert.Contains(t, logs.String(), "MRP run completed")
}

func TestPlanningOrchestrator_RunIDsDifferReportsDoNot(t *testing.T) {
	repos := infratesting.BuildRepositories(testhelpers.BuildPrintShopSnapshot())
	orchestrator := NewPlanningOrchestrator(mrp.NewMRPService(), repos.SnapshotReader(), nil, zerolog.Nop())
	opts := mrp.RunOptions{Today: testhelpers.Today}

	first, err := orchestrator.RunCompletePlanning(context.Background(), opts)
	require.NoError(t, err)
	second, err := orchestrator.RunCompletePlanning(context.Background(), opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Report, second.Report)
}

func TestPlanningOrchestrator_StructuralErrorPublishesFailure(t *testing.T) {
	store := events.NewInMemoryEventStore(zerolog.Nop())
	orchestrator := NewPlanningOrchestrator(mrp.NewMRPService(), nil, store, zerolog.Nop())
	orchestrator.newRunID = func() string { return "run-fixed" }

	_, err := orchestrator.RunSnapshot(context.Background(), testhelpers.BuildCyclicSnapshot(), mrp.RunOptions{Today: testhelpers.Today})
	var cyclic *entities.CyclicBOMError
	require.True(t, errors.As(err, &cyclic))
	assert.Contains(t, err.Error(), "run-fixed")

	assert.Equal(t, []string{events.MRPRunStartedEvent, events.MRPRunFailedEvent}, eventTypes(t, store, "run-fixed"))
}

func TestPlanningOrchestrator_SourceErrors(t *testing.T) {
	orchestrator := NewPlanningOrchestrator(mrp.NewMRPService(), failingSource{}, nil, zerolog.Nop())
	_, err := orchestrator.RunCompletePlanning(context.Background(), mrp.RunOptions{})
	assert.ErrorContains(t, err, "connection refused")

	orchestrator = NewPlanningOrchestrator(mrp.NewMRPService(), nil, nil, zerolog.Nop())
	_, err = orchestrator.RunCompletePlanning(context.Background(), mrp.RunOptions{})
	assert.Error(t, err)
}
