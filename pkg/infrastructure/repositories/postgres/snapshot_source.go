package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// Schema creates the tables the snapshot source reads
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	item_id         TEXT PRIMARY KEY,
	description     TEXT NOT NULL DEFAULT '',
	item_type       TEXT NOT NULL,
	unit_of_measure TEXT NOT NULL,
	on_hand         NUMERIC NOT NULL DEFAULT 0 CHECK (on_hand >= 0),
	allocated       NUMERIC NOT NULL DEFAULT 0 CHECK (allocated >= 0),
	lead_time_days  INTEGER NOT NULL DEFAULT 0 CHECK (lead_time_days >= 0),
	unit_cost       NUMERIC NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bom_lines (
	parent_id         TEXT NOT NULL REFERENCES items (item_id),
	component_id      TEXT NOT NULL REFERENCES items (item_id),
	qty_per           NUMERIC NOT NULL,
	unit_of_measure   TEXT NOT NULL DEFAULT '',
	conversion_factor NUMERIC NOT NULL DEFAULT 0,
	cost_only         BOOLEAN NOT NULL DEFAULT FALSE,
	find_number       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (parent_id, component_id, find_number)
);

CREATE TABLE IF NOT EXISTS demands (
	order_id TEXT NOT NULL,
	item_id  TEXT NOT NULL REFERENCES items (item_id),
	quantity NUMERIC NOT NULL,
	need_by  DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
	item_id  TEXT NOT NULL REFERENCES items (item_id),
	quantity NUMERIC NOT NULL,
	due_date DATE NOT NULL,
	source   TEXT NOT NULL DEFAULT ''
);
`

// txBeginner is the part of pgxpool.Pool the source needs
type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type itemRow struct {
	ID            string          `db:"item_id"`
	Description   string          `db:"description"`
	Type          string          `db:"item_type"`
	UnitOfMeasure string          `db:"unit_of_measure"`
	OnHand        decimal.Decimal `db:"on_hand"`
	Allocated     decimal.Decimal `db:"allocated"`
	LeadTimeDays  int             `db:"lead_time_days"`
	UnitCost      decimal.Decimal `db:"unit_cost"`
}

type bomRow struct {
	ParentID         string          `db:"parent_id"`
	ComponentID      string          `db:"component_id"`
	QtyPer           decimal.Decimal `db:"qty_per"`
	UnitOfMeasure    string          `db:"unit_of_measure"`
	ConversionFactor decimal.Decimal `db:"conversion_factor"`
	CostOnly         bool            `db:"cost_only"`
	FindNumber       int             `db:"find_number"`
}

type demandRow struct {
	OrderID  string          `db:"order_id"`
	ItemID   string          `db:"item_id"`
	Quantity decimal.Decimal `db:"quantity"`
	NeedBy   time.Time       `db:"need_by"`
}

type receiptRow struct {
	ItemID   string          `db:"item_id"`
	Quantity decimal.Decimal `db:"quantity"`
	DueDate  time.Time       `db:"due_date"`
	Source   string          `db:"source"`
}

// SnapshotSource reads planning snapshots from PostgreSQL
type SnapshotSource struct {
	db  txBeginner
	now func() time.Time
}

var _ repositories.SnapshotSource = (*SnapshotSource)(nil)

// NewSnapshotSource creates a source over a pool created by NewPool
func NewSnapshotSource(db txBeginner) *SnapshotSource {
	return &SnapshotSource{db: db, now: time.Now}
}

// LoadSnapshot reads every table in a single repeatable-read, read-only transaction,
// so concurrent writers never produce a torn snapshot
func (s *SnapshotSource) LoadSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	items, err := queryRows[itemRow](ctx, tx, `SELECT item_id, description, item_type, unit_of_measure,
		on_hand, allocated, lead_time_days, unit_cost FROM items ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	lines, err := queryRows[bomRow](ctx, tx, `SELECT parent_id, component_id, qty_per, unit_of_measure,
		conversion_factor, cost_only, find_number FROM bom_lines ORDER BY parent_id, find_number, component_id`)
	if err != nil {
		return nil, fmt.Errorf("read bom lines: %w", err)
	}
	demands, err := queryRows[demandRow](ctx, tx, `SELECT order_id, item_id, quantity, need_by
		FROM demands ORDER BY need_by, order_id, item_id`)
	if err != nil {
		return nil, fmt.Errorf("read demands: %w", err)
	}
	receipts, err := queryRows[receiptRow](ctx, tx, `SELECT item_id, quantity, due_date, source
		FROM receipts ORDER BY item_id, due_date, source`)
	if err != nil {
		return nil, fmt.Errorf("read receipts: %w", err)
	}

	snapshot, err := buildSnapshot(items, lines, demands, receipts)
	if err != nil {
		return nil, err
	}
	snapshot.TakenAt = s.now().UTC()

	return snapshot, tx.Commit(ctx)
}

func queryRows[T any](ctx context.Context, tx pgx.Tx, sql string) ([]T, error) {
	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

func buildSnapshot(items []itemRow, lines []bomRow, demands []demandRow, receipts []receiptRow) (*entities.Snapshot, error) {
	snapshot := &entities.Snapshot{
		Items:    make([]entities.Item, 0, len(items)),
		BOMLines: make([]entities.BOMLine, 0, len(lines)),
		Demands:  make([]entities.DemandLine, 0, len(demands)),
		Receipts: make([]entities.ScheduledReceipt, 0, len(receipts)),
	}

	for _, row := range items {
		itemType, err := entities.ParseItemType(row.Type)
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("item %s: %v", row.ID, err)}
		}
		item, err := entities.NewItem(entities.ItemID(row.ID), row.Description, itemType, row.UnitOfMeasure,
			row.OnHand, row.Allocated, row.LeadTimeDays, row.UnitCost)
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("item %s: %v", row.ID, err)}
		}
		snapshot.Items = append(snapshot.Items, *item)
	}

	for _, row := range lines {
		line, err := entities.NewBOMLine(entities.ItemID(row.ParentID), entities.ItemID(row.ComponentID),
			row.QtyPer, row.UnitOfMeasure, row.ConversionFactor, row.CostOnly, row.FindNumber)
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("bom line %s -> %s: %v", row.ParentID, row.ComponentID, err)}
		}
		snapshot.BOMLines = append(snapshot.BOMLines, *line)
	}

	for _, row := range demands {
		demand, err := entities.NewDemandLine(row.OrderID, entities.ItemID(row.ItemID), row.Quantity, row.NeedBy)
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("demand %s: %v", row.OrderID, err)}
		}
		snapshot.Demands = append(snapshot.Demands, *demand)
	}

	for _, row := range receipts {
		receipt, err := entities.NewScheduledReceipt(entities.ItemID(row.ItemID), row.Quantity, row.DueDate, row.Source)
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("receipt %s for %s: %v", row.Source, row.ItemID, err)}
		}
		snapshot.Receipts = append(snapshot.Receipts, *receipt)
	}

	return snapshot, nil
}
