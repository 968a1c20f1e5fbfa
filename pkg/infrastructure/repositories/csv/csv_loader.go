package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
	"github.com/vsinha/printshop-mrp/pkg/domain/repositories"
)

// File names read from a scenario directory
const (
	ItemsFile    = "items.csv"
	BOMFile      = "bom.csv"
	DemandsFile  = "demands.csv"
	ReceiptsFile = "receipts.csv"
)

const dateLayout = "2006-01-02"

var (
	itemsHeader    = []string{"item_id", "description", "type", "unit_of_measure", "on_hand", "allocated", "lead_time_days", "unit_cost"}
	bomHeader      = []string{"parent_id", "component_id", "qty_per", "unit_of_measure", "conversion_factor", "cost_only", "find_number"}
	demandsHeader  = []string{"order_id", "item_id", "quantity", "need_by"}
	receiptsHeader = []string{"item_id", "quantity", "due_date", "source"}
)

// Loader handles loading MRP data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadItems loads the item catalog from a CSV file
func (l *Loader) LoadItems(filename string) ([]entities.Item, error) {
	records, err := readRecords(filename, "items", itemsHeader)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("items CSV must have header and at least one data row")
	}

	items := make([]entities.Item, 0, len(records))
	for _, record := range records {
		item, err := parseItem(record.fields)
		if err != nil {
			return nil, fmt.Errorf("items CSV line %d: %w", record.line, err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// LoadBOM loads BOM lines from a CSV file
func (l *Loader) LoadBOM(filename string) ([]entities.BOMLine, error) {
	records, err := readRecords(filename, "BOM", bomHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]entities.BOMLine, 0, len(records))
	for _, record := range records {
		line, err := parseBOMLine(record.fields)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV line %d: %w", record.line, err)
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// LoadDemands loads demand lines from a CSV file
func (l *Loader) LoadDemands(filename string) ([]entities.DemandLine, error) {
	records, err := readRecords(filename, "demands", demandsHeader)
	if err != nil {
		return nil, err
	}

	demands := make([]entities.DemandLine, 0, len(records))
	for _, record := range records {
		demand, err := parseDemand(record.fields)
		if err != nil {
			return nil, fmt.Errorf("demands CSV line %d: %w", record.line, err)
		}
		demands = append(demands, *demand)
	}
	return demands, nil
}

// LoadReceipts loads scheduled receipts from a CSV file
func (l *Loader) LoadReceipts(filename string) ([]entities.ScheduledReceipt, error) {
	records, err := readRecords(filename, "receipts", receiptsHeader)
	if err != nil {
		return nil, err
	}

	receipts := make([]entities.ScheduledReceipt, 0, len(records))
	for _, record := range records {
		receipt, err := parseReceipt(record.fields)
		if err != nil {
			return nil, fmt.Errorf("receipts CSV line %d: %w", record.line, err)
		}
		receipts = append(receipts, *receipt)
	}
	return receipts, nil
}

// Files names the CSV files of one scenario
type Files struct {
	Items    string
	BOM      string
	Demands  string
	Receipts string
}

// ScenarioFiles returns the standard file layout under dir
func ScenarioFiles(dir string) Files {
	return Files{
		Items:    filepath.Join(dir, ItemsFile),
		BOM:      filepath.Join(dir, BOMFile),
		Demands:  filepath.Join(dir, DemandsFile),
		Receipts: filepath.Join(dir, ReceiptsFile),
	}
}

// SnapshotSource reads a snapshot from CSV files.
// The receipts file is optional; the other three are required.
type SnapshotSource struct {
	files  Files
	loader *Loader
	now    func() time.Time
}

var _ repositories.SnapshotSource = (*SnapshotSource)(nil)

// NewSnapshotSource creates a snapshot source over explicit files
func NewSnapshotSource(files Files) *SnapshotSource {
	return &SnapshotSource{files: files, loader: NewLoader(), now: time.Now}
}

// NewDirectorySource creates a snapshot source over a scenario directory
func NewDirectorySource(dir string) *SnapshotSource {
	return NewSnapshotSource(ScenarioFiles(dir))
}

// LoadSnapshot reads every file once
func (s *SnapshotSource) LoadSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.loader.LoadItems(s.files.Items)
	if err != nil {
		return nil, err
	}
	lines, err := s.loader.LoadBOM(s.files.BOM)
	if err != nil {
		return nil, err
	}
	demands, err := s.loader.LoadDemands(s.files.Demands)
	if err != nil {
		return nil, err
	}

	var receipts []entities.ScheduledReceipt
	if s.files.Receipts != "" {
		if _, statErr := os.Stat(s.files.Receipts); statErr == nil {
			if receipts, err = s.loader.LoadReceipts(s.files.Receipts); err != nil {
				return nil, err
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat receipts file %s: %w", s.files.Receipts, statErr)
		}
	}

	return &entities.Snapshot{
		Items:    items,
		BOMLines: lines,
		Demands:  demands,
		Receipts: receipts,
		TakenAt:  s.now().UTC(),
	}, nil
}

// Helper functions for parsing CSV records

// row is one data record and the file line it starts on
type row struct {
	line   int
	fields []string
}

// readRecords opens a CSV file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([]row, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	return parseRecords(file, kind, expectedHeader)
}

func parseRecords(r io.Reader, kind string, expectedHeader []string) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(expectedHeader)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s CSV is missing its header row", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	var records []row
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, row{line: line, fields: fields})
	}
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (*entities.Item, error) {
	itemType, err := entities.ParseItemType(record[2])
	if err != nil {
		return nil, err
	}

	onHand, err := parseDecimal("on_hand", record[4], true)
	if err != nil {
		return nil, err
	}
	allocated, err := parseDecimal("allocated", record[5], true)
	if err != nil {
		return nil, err
	}

	leadTimeDays, err := strconv.Atoi(strings.TrimSpace(record[6]))
	if err != nil {
		return nil, fmt.Errorf("invalid lead_time_days: %s", record[6])
	}

	unitCost, err := parseDecimal("unit_cost", record[7], true)
	if err != nil {
		return nil, err
	}

	return entities.NewItem(
		entities.ItemID(strings.TrimSpace(record[0])),
		record[1],
		itemType,
		strings.TrimSpace(record[3]),
		onHand,
		allocated,
		leadTimeDays,
		unitCost,
	)
}

func parseBOMLine(record []string) (*entities.BOMLine, error) {
	qtyPer, err := parseDecimal("qty_per", record[2], false)
	if err != nil {
		return nil, err
	}

	factor, err := parseDecimal("conversion_factor", record[4], true)
	if err != nil {
		return nil, err
	}

	costOnly := false
	if s := strings.TrimSpace(record[5]); s != "" {
		if costOnly, err = strconv.ParseBool(s); err != nil {
			return nil, fmt.Errorf("invalid cost_only: %s", record[5])
		}
	}

	findNumber, err := strconv.Atoi(strings.TrimSpace(record[6]))
	if err != nil {
		return nil, fmt.Errorf("invalid find_number: %s", record[6])
	}

	return entities.NewBOMLine(
		entities.ItemID(strings.TrimSpace(record[0])),
		entities.ItemID(strings.TrimSpace(record[1])),
		qtyPer,
		strings.TrimSpace(record[3]),
		factor,
		costOnly,
		findNumber,
	)
}

func parseDemand(record []string) (*entities.DemandLine, error) {
	quantity, err := parseDecimal("quantity", record[2], false)
	if err != nil {
		return nil, err
	}

	needBy, err := time.Parse(dateLayout, strings.TrimSpace(record[3]))
	if err != nil {
		return nil, fmt.Errorf("invalid need_by format: %s (expected YYYY-MM-DD)", record[3])
	}

	return entities.NewDemandLine(strings.TrimSpace(record[0]), entities.ItemID(strings.TrimSpace(record[1])), quantity, needBy)
}

func parseReceipt(record []string) (*entities.ScheduledReceipt, error) {
	quantity, err := parseDecimal("quantity", record[1], false)
	if err != nil {
		return nil, err
	}

	dueDate, err := time.Parse(dateLayout, strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid due_date format: %s (expected YYYY-MM-DD)", record[2])
	}

	return entities.NewScheduledReceipt(entities.ItemID(strings.TrimSpace(record[0])), quantity, dueDate, strings.TrimSpace(record[3]))
}

// parseDecimal parses a quantity column; blank cells are zero only when optional
func parseDecimal(column, value string, optional bool) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if optional {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%s is required", column)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", column, value)
	}
	return d, nil
}
