package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

const dateLayout = "2006-01-02"

// Quantities are stored as TEXT so decimals round-trip exactly.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	item_id         TEXT PRIMARY KEY,
	description     TEXT NOT NULL DEFAULT '',
	item_type       TEXT NOT NULL,
	unit_of_measure TEXT NOT NULL,
	on_hand         TEXT NOT NULL DEFAULT '0',
	allocated       TEXT NOT NULL DEFAULT '0',
	lead_time_days  INTEGER NOT NULL DEFAULT 0,
	unit_cost       TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS bom_lines (
	parent_id         TEXT NOT NULL,
	component_id      TEXT NOT NULL,
	qty_per           TEXT NOT NULL,
	unit_of_measure   TEXT NOT NULL DEFAULT '',
	conversion_factor TEXT NOT NULL DEFAULT '0',
	cost_only         INTEGER NOT NULL DEFAULT 0,
	find_number       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (parent_id, component_id, find_number)
);

CREATE TABLE IF NOT EXISTS demands (
	order_id TEXT NOT NULL,
	item_id  TEXT NOT NULL,
	quantity TEXT NOT NULL,
	need_by  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
	item_id  TEXT NOT NULL,
	quantity TEXT NOT NULL,
	due_date TEXT NOT NULL,
	source   TEXT NOT NULL DEFAULT ''
);
`

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
	NeedBy   string          `db:"need_by"`
}

type receiptRow struct {
	ItemID   string          `db:"item_id"`
	Quantity decimal.Decimal `db:"quantity"`
	DueDate  string          `db:"due_date"`
	Source   string          `db:"source"`
}

// Store keeps snapshots in a SQLite database
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ repositories.SnapshotSource = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSnapshot reads all four tables inside one transaction
func (s *Store) LoadSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	var items []itemRow
	if err := tx.SelectContext(ctx, &items, `SELECT * FROM items ORDER BY item_id`); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	var lines []bomRow
	if err := tx.SelectContext(ctx, &lines, `SELECT * FROM bom_lines ORDER BY parent_id, find_number, component_id`); err != nil {
		return nil, fmt.Errorf("failed to read bom lines: %w", err)
	}
	var demands []demandRow
	if err := tx.SelectContext(ctx, &demands, `SELECT * FROM demands ORDER BY need_by, order_id, item_id`); err != nil {
		return nil, fmt.Errorf("failed to read demands: %w", err)
	}
	var receipts []receiptRow
	if err := tx.SelectContext(ctx, &receipts, `SELECT * FROM receipts ORDER BY item_id, due_date, source`); err != nil {
		return nil, fmt.Errorf("failed to read receipts: %w", err)
	}

	snapshot := &entities.Snapshot{TakenAt: s.now().UTC()}

	for _, row := range items {
		item, err := row.toEntity()
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("item %s: %v", row.ID, err)}
		}
		snapshot.Items = append(snapshot.Items, *item)
	}
	for _, row := range lines {
		line, err := entities.NewBOMLine(
			entities.ItemID(row.ParentID), entities.ItemID(row.ComponentID),
			row.QtyPer, row.UnitOfMeasure, row.ConversionFactor, row.CostOnly, row.FindNumber)
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("bom line %s -> %s: %v", row.ParentID, row.ComponentID, err)}
		}
		snapshot.BOMLines = append(snapshot.BOMLines, *line)
	}
	for _, row := range demands {
		demand, err := row.toEntity()
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("demand %s: %v", row.OrderID, err)}
		}
		snapshot.Demands = append(snapshot.Demands, *demand)
	}
	for _, row := range receipts {
		receipt, err := row.toEntity()
		if err != nil {
			return nil, &entities.InvalidSnapshotError{Reason: fmt.Sprintf("receipt %s for %s: %v", row.Source, row.ItemID, err)}
		}
		snapshot.Receipts = append(snapshot.Receipts, *receipt)
	}

	return snapshot, tx.Commit()
}

// SaveSnapshot replaces the stored data with the given snapshot
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *entities.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"items", "bom_lines", "demands", "receipts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, item := range snapshot.Items {
		row := itemRow{
			ID:            string(item.ID),
			Description:   item.Description,
			Type:          item.Type.String(),
			UnitOfMeasure: item.UnitOfMeasure,
			OnHand:        item.OnHand,
			Allocated:     item.Allocated,
			LeadTimeDays:  item.LeadTimeDays,
			UnitCost:      item.UnitCost,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO items
			(item_id, description, item_type, unit_of_measure, on_hand, allocated, lead_time_days, unit_cost)
			VALUES (:item_id, :description, :item_type, :unit_of_measure, :on_hand, :allocated, :lead_time_days, :unit_cost)`, row); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
		}
	}

	for _, line := range snapshot.BOMLines {
		row := bomRow{
			ParentID:         string(line.ParentID),
			ComponentID:      string(line.ComponentID),
			QtyPer:           line.QtyPer,
			UnitOfMeasure:    line.UnitOfMeasure,
			ConversionFactor: line.ConversionFactor,
			CostOnly:         line.CostOnly,
			FindNumber:       line.FindNumber,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO bom_lines
			(parent_id, component_id, qty_per, unit_of_measure, conversion_factor, cost_only, find_number)
			VALUES (:parent_id, :component_id, :qty_per, :unit_of_measure, :conversion_factor, :cost_only, :find_number)`, row); err != nil {
			return fmt.Errorf("failed to insert bom line %s -> %s: %w", line.ParentID, line.ComponentID, err)
		}
	}

	for _, demand := range snapshot.Demands {
		row := demandRow{
			OrderID:  demand.OrderID,
			ItemID:   string(demand.ItemID),
			Quantity: demand.Quantity,
			NeedBy:   demand.NeedBy.Format(dateLayout),
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO demands (order_id, item_id, quantity, need_by)
			VALUES (:order_id, :item_id, :quantity, :need_by)`, row); err != nil {
			return fmt.Errorf("failed to insert demand %s: %w", demand.OrderID, err)
		}
	}

	for _, receipt := range snapshot.Receipts {
		row := receiptRow{
			ItemID:   string(receipt.ItemID),
			Quantity: receipt.Quantity,
			DueDate:  receipt.DueDate.Format(dateLayout),
			Source:   receipt.Source,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO receipts (item_id, quantity, due_date, source)
			VALUES (:item_id, :quantity, :due_date, :source)`, row); err != nil {
			return fmt.Errorf("failed to insert receipt for %s: %w", receipt.ItemID, err)
		}
	}

	return tx.Commit()
}

func (row itemRow) toEntity() (*entities.Item, error) {
	itemType, err := entities.ParseItemType(row.Type)
	if err != nil {
		return nil, err
	}
	return entities.NewItem(entities.ItemID(row.ID), row.Description, itemType, row.UnitOfMeasure,
		row.OnHand, row.Allocated, row.LeadTimeDays, row.UnitCost)
}

func (row demandRow) toEntity() (*entities.DemandLine, error) {
	needBy, err := time.Parse(dateLayout, row.NeedBy)
	if err != nil {
		return nil, fmt.Errorf("invalid need_by %q", row.NeedBy)
	}
	return entities.NewDemandLine(row.OrderID, entities.ItemID(row.ItemID), row.Quantity, needBy)
}

func (row receiptRow) toEntity() (*entities.ScheduledReceipt, error) {
	dueDate, err := time.Parse(dateLayout, row.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date %q", row.DueDate)
	}
	return entities.NewScheduledReceipt(entities.ItemID(row.ItemID), row.Quantity, dueDate, row.Source)
}
