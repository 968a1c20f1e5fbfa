package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

// WriteScenario writes a snapshot as a scenario directory readable by NewDirectorySource.
// The receipts file is only written when the snapshot has receipts.
func WriteScenario(dir string, snapshot *entities.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	items := make([][]string, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, []string{
			string(item.ID),
			item.Description,
			item.Type.String(),
			item.UnitOfMeasure,
			item.OnHand.String(),
			item.Allocated.String(),
			strconv.Itoa(item.LeadTimeDays),
			item.UnitCost.String(),
		})
	}
	if err := writeFile(filepath.Join(dir, ItemsFile), itemsHeader, items); err != nil {
		return err
	}

	lines := make([][]string, 0, len(snapshot.BOMLines))
	for _, line := range snapshot.BOMLines {
		lines = append(lines, []string{
			string(line.ParentID),
			string(line.ComponentID),
			line.QtyPer.String(),
			line.UnitOfMeasure,
			optionalDecimal(line.ConversionFactor),
			strconv.FormatBool(line.CostOnly),
			strconv.Itoa(line.FindNumber),
		})
	}
	if err := writeFile(filepath.Join(dir, BOMFile), bomHeader, lines); err != nil {
		return err
	}

	demands := make([][]string, 0, len(snapshot.Demands))
	for _, d := range snapshot.Demands {
		demands = append(demands, []string{d.OrderID, string(d.ItemID), d.Quantity.String(), d.NeedBy.Format(dateLayout)})
	}
	if err := writeFile(filepath.Join(dir, DemandsFile), demandsHeader, demands); err != nil {
		return err
	}

	if len(snapshot.Receipts) == 0 {
		return nil
	}
	receipts := make([][]string, 0, len(snapshot.Receipts))
	for _, r := range snapshot.Receipts {
		receipts = append(receipts, []string{string(r.ItemID), r.Quantity.String(), r.DueDate.Format(dateLayout), r.Source})
	}
	return writeFile(filepath.Join(dir, ReceiptsFile), receiptsHeader, receipts)
}

func writeFile(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func optionalDecimal(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
