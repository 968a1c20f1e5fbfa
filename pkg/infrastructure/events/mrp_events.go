package events

import (
	"time"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

const (
	MRPRunStartedEvent   = "mrp.run.started"
	MRPRunCompletedEvent = "mrp.run.completed"
	MRPRunFailedEvent    = "mrp.run.failed"

	ShortageDetectedEvent = "shortage.detected"
	OrderSuggestedEvent   = "order.suggested"
)

type MRPRunStarted struct {
	RunID       string    `json:"run_id"`
	DemandLines int       `json:"demand_lines"`
	Items       int       `json:"items"`
	SnapshotAt  time.Time `json:"snapshot_at"`
}

type MRPRunCompleted struct {
	RunID        string        `json:"run_id"`
	Requirements int           `json:"requirements"`
	Shortages    int           `json:"shortages"`
	Warnings     int           `json:"warnings"`
	Duration     time.Duration `json:"duration"`
}

type MRPRunFailed struct {
	RunID  string `json:"run_id"`
	Reason string `json:"reason"`
}

type ShortageDetected struct {
	RunID       string               `json:"run_id"`
	Requirement entities.Requirement `json:"requirement"`
}

type OrderSuggested struct {
	RunID        string                `json:"run_id"`
	PlannedOrder entities.PlannedOrder `json:"planned_order"`
}

func NewMRPRunStartedEvent(runID string, snapshot *entities.Snapshot) Event {
	return NewEvent(MRPRunStartedEvent, runID, MRPRunStarted{
		RunID:       runID,
		DemandLines: len(snapshot.Demands),
		Items:       len(snapshot.Items),
		SnapshotAt:  snapshot.TakenAt,
	})
}

func NewMRPRunCompletedEvent(runID string, requirements, shortages, warnings int, duration time.Duration) Event {
	return NewEvent(MRPRunCompletedEvent, runID, MRPRunCompleted{
		RunID:        runID,
		Requirements: requirements,
		Shortages:    shortages,
		Warnings:     warnings,
		Duration:     duration,
	})
}

func NewMRPRunFailedEvent(runID string, err error) Event {
	return NewEvent(MRPRunFailedEvent, runID, MRPRunFailed{RunID: runID, Reason: err.Error()})
}

func NewShortageDetectedEvent(runID string, requirement entities.Requirement) Event {
	return NewEvent(ShortageDetectedEvent, runID, ShortageDetected{RunID: runID, Requirement: requirement})
}

func NewOrderSuggestedEvent(runID string, order entities.PlannedOrder) Event {
	return NewEvent(OrderSuggestedEvent, runID, OrderSuggested{RunID: runID, PlannedOrder: order})
}
