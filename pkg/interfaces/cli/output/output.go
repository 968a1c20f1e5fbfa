package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsinha/printshop-mrp/pkg/application/dto"
	"github.com/vsinha/printshop-mrp/pkg/application/services/orchestration"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// Output file names written under Config.OutputDir
const (
	TextFile          = "mrp_report.txt"
	JSONFile          = "mrp_report.json"
	RequirementsFile  = "requirements.csv"
	ShortagesFile     = "shortages.csv"
	PlannedOrdersFile = "planned_orders.csv"
	WarningsFile      = "warnings.csv"
	PDFFile           = "shortage_report.pdf"
	SVGFile           = "planned_orders.svg"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "pdf", "svg"}

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
}

// Generate renders a planning result in the configured format.
// Formats that produce a single document go to w unless OutputDir is set.
func Generate(w io.Writer, result *orchestration.PlanningResult, config Config) error {
	switch config.Format {
	case "text", "":
		return emit(w, config, TextFile, []byte(renderText(result)))
	case "json":
		data, err := json.MarshalIndent(result.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return emit(w, config, JSONFile, append(data, '\n'))
	case "csv":
		return generateCSVOutput(w, result.Report, config)
	case "pdf":
		if config.OutputDir == "" {
			return fmt.Errorf("output directory required for PDF format")
		}
		data, err := RenderPDF(result)
		if err != nil {
			return err
		}
		return emit(w, config, PDFFile, data)
	case "svg":
		svg := NewGanttChart(result.Report).GenerateSVG(result.Report)
		return emit(w, config, SVGFile, []byte(svg))
	default:
		return fmt.Errorf("unsupported output format: %s (expected one of %s)", config.Format, strings.Join(Formats, ", "))
	}
}

// emit writes data to w, or to name under OutputDir when one is configured
func emit(w io.Writer, config Config, name string, data []byte) error {
	if config.OutputDir == "" {
		_, err := w.Write(data)
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "Results saved to: %s\n", filename)
	}
	return nil
}

func renderText(result *orchestration.PlanningResult) string {
	r := result.Report
	var b strings.Builder

	b.WriteString("MRP Results Summary\n")
	b.WriteString("===================\n\n")
	fmt.Fprintf(&b, "Run ID:          %s\n", result.RunID)
	fmt.Fprintf(&b, "As of:           %s (%s buckets)\n", r.AsOf.Format(dateLayout), r.Period)
	fmt.Fprintf(&b, "Demand lines:    %d\n", r.Stats.DemandLines)
	fmt.Fprintf(&b, "Requirements:    %d\n", len(r.Requirements))
	fmt.Fprintf(&b, "Shortages:       %d\n", len(r.Shortages))
	fmt.Fprintf(&b, "Planned orders:  %d\n", len(r.PlannedOrders))
	fmt.Fprintf(&b, "Nodes visited:   %d\n", r.Stats.NodesVisited)
	fmt.Fprintf(&b, "Run time:        %v\n\n", result.Duration)

	if len(r.Shortages) > 0 {
		b.WriteString("Shortages:\n")
		fmt.Fprintf(&b, "%-20s %-12s %12s %12s %12s %-9s\n", "Item", "Need By", "Required", "Available", "Short", "Severity")
		fmt.Fprintf(&b, "%-20s %-12s %12s %12s %12s %-9s\n",
			strings.Repeat("-", 20), strings.Repeat("-", 12), strings.Repeat("-", 12),
			strings.Repeat("-", 12), strings.Repeat("-", 12), strings.Repeat("-", 9))
		for _, s := range r.Shortages {
			fmt.Fprintf(&b, "%-20s %-12s %12s %12s %12s %-9s\n",
				s.ItemID, s.Period.Format(dateLayout), s.NetRequirement, s.Available, s.Shortage, s.Severity)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No shortages.\n\n")
	}

	if len(r.PlannedOrders) > 0 {
		b.WriteString("Planned Orders:\n")
		fmt.Fprintf(&b, "%-20s %-5s %12s %-12s %-12s %s\n", "Item", "Type", "Qty", "Release", "Due", "")
		for _, o := range r.PlannedOrders {
			late := ""
			if o.Late {
				late = "LATE"
			}
			fmt.Fprintf(&b, "%-20s %-5s %12s %-12s %-12s %s\n",
				o.ItemID, o.OrderType, o.Quantity, o.ReleaseDate.Format(dateLayout), o.DueDate.Format(dateLayout), late)
		}
		b.WriteString("\n")
	}

	if len(r.CostRollups) > 0 {
		b.WriteString("Cost Roll-up:\n")
		for _, c := range r.CostRollups {
			fmt.Fprintf(&b, "  %-12s %-20s %s qty %-8s material %-10s cost-only %-10s total %s\n",
				c.OrderID, c.ItemID, c.NeedBy.Format(dateLayout), c.Quantity, c.MaterialCost.StringFixed(2), c.CostOnlyCost.StringFixed(2), c.TotalCost.StringFixed(2))
		}
		b.WriteString("\n")
	}

	if len(r.CriticalPaths) > 0 {
		b.WriteString("Critical Paths:\n")
		for i := range r.CriticalPaths {
			p := &r.CriticalPaths[i]
			fmt.Fprintf(&b, "  %-12s %s\n", p.OrderID, p.Summary())
			fmt.Fprintf(&b, "  %-12s %s (earliest completion %s)\n", "", entities.FormatPath(p.Path), p.EarliestComplete.Format(dateLayout))
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  [%s] %s: %s", w.Code, w.ItemID, w.Message)
			if len(w.Path) > 0 {
				fmt.Fprintf(&b, " (%s)", entities.FormatPath(w.Path))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func generateCSVOutput(w io.Writer, report *dto.MRPReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{RequirementsFile, requirementRows(report.Requirements)},
		{ShortagesFile, requirementRows(report.Shortages)},
		{PlannedOrdersFile, plannedOrderRows(report.PlannedOrders)},
		{WarningsFile, warningRows(report.Warnings)},
	}

	for _, f := range files {
		filename := filepath.Join(config.OutputDir, f.name)
		if err := writeCSV(filename, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		if config.Verbose {
			fmt.Fprintf(w, "Results saved to: %s\n", filename)
		}
	}

	return nil
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func requirementRows(reqs []entities.Requirement) [][]string {
	rows := [][]string{{
		"item_id", "period", "gross_requirement", "on_hand", "allocated", "scheduled_receipts",
		"available", "net_requirement", "shortage", "severity", "sources",
	}}
	for _, r := range reqs {
		rows = append(rows, []string{
			string(r.ItemID),
			r.Period.Format(dateLayout),
			r.GrossRequirement.String(),
			r.OnHand.String(),
			r.Allocated.String(),
			r.ScheduledReceipts.String(),
			r.Available.String(),
			r.NetRequirement.String(),
			r.Shortage.String(),
			r.Severity.String(),
			strings.Join(r.Sources, ";"),
		})
	}
	return rows
}

func plannedOrderRows(orders []entities.PlannedOrder) [][]string {
	rows := [][]string{{"item_id", "order_type", "quantity", "release_date", "due_date", "late"}}
	for _, o := range orders {
		rows = append(rows, []string{
			string(o.ItemID),
			o.OrderType.String(),
			o.Quantity.String(),
			o.ReleaseDate.Format(dateLayout),
			o.DueDate.Format(dateLayout),
			strconv.FormatBool(o.Late),
		})
	}
	return rows
}

func warningRows(warnings []entities.Warning) [][]string {
	rows := [][]string{{"code", "item_id", "path", "message"}}
	for _, w := range warnings {
		rows = append(rows, []string{string(w.Code), string(w.ItemID), entities.FormatPath(w.Path), w.Message})
	}
	return rows
}
