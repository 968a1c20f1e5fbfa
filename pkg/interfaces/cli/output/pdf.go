package output

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/vsinha/printshop-mrp/pkg/application/services/orchestration"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

var (
	pdfPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	pdfGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	pdfCritical = &props.Color{Red: 198, Green: 40, Blue: 40}
)

// RenderPDF builds the printable shortage report: summary, shortages, then planned orders
func RenderPDF(result *orchestration.PlanningResult) ([]byte, error) {
	report := result.Report

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Material Shortage Report", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(pdfHeaderRow(result))
	m.AddRows(line.NewRow(1, props.Line{Color: pdfPrimary, Thickness: 0.5}))
	m.AddRows(pdfSummaryRow(result))
	m.AddRows(line.NewRow(4))

	m.AddRows(pdfSectionRow(fmt.Sprintf("Shortages (%d)", len(report.Shortages))))
	if len(report.Shortages) == 0 {
		m.AddRows(row.New(7).Add(col.New(12).Add(text.New("No shortages.", props.Text{Size: 8, Top: 1, Color: pdfGray}))))
	} else {
		m.AddRows(pdfTableHeader([]string{"Item", "Need By", "Required", "Available", "Short", "Severity"}, []int{4, 2, 2, 2, 1, 1}))
		m.AddRows(pdfShortageRows(report.Shortages)...)
	}

	m.AddRows(line.NewRow(4))
	m.AddRows(pdfSectionRow(fmt.Sprintf("Planned Orders (%d)", len(report.PlannedOrders))))
	if len(report.PlannedOrders) > 0 {
		m.AddRows(pdfTableHeader([]string{"Item", "Type", "Quantity", "Release", "Due", "Late"}, []int{4, 1, 2, 2, 2, 1}))
		m.AddRows(pdfOrderRows(report.PlannedOrders)...)
	}

	if len(report.Warnings) > 0 {
		m.AddRows(line.NewRow(4))
		m.AddRows(pdfSectionRow(fmt.Sprintf("Warnings (%d)", len(report.Warnings))))
		for _, w := range report.Warnings {
			m.AddRows(row.New(6).Add(col.New(12).Add(text.New(
				fmt.Sprintf("[%s] %s: %s", w.Code, w.ItemID, w.Message),
				props.Text{Size: 7, Top: 1, Color: pdfGray},
			))))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

func pdfHeaderRow(result *orchestration.PlanningResult) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("Material Shortage Report", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: pdfPrimary, Top: 1,
			}),
			text.New("Run "+result.RunID, props.Text{Size: 7, Top: 9, Color: pdfGray}),
		),
		col.New(5).Add(
			text.New("As of "+result.Report.AsOf.Format(dateLayout), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1,
			}),
			text.New(result.Report.Period+" buckets", props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: pdfGray,
			}),
		),
	)
}

func pdfSummaryRow(result *orchestration.PlanningResult) core.Row {
	r := result.Report
	cell := func(label string, value int) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: pdfGray, Top: 1, Align: align.Center}),
			text.New(fmt.Sprintf("%d", value), props.Text{Style: fontstyle.Bold, Size: 12, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("Demand lines", r.Stats.DemandLines),
		cell("Requirements", len(r.Requirements)),
		cell("Shortages", len(r.Shortages)),
		cell("Planned orders", len(r.PlannedOrders)),
	)
}

func pdfSectionRow(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(text.New(title, props.Text{
		Style: fontstyle.Bold, Size: 10, Color: pdfPrimary, Top: 1,
	})))
}

func pdfTableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, len(labels))
	for i, label := range labels {
		a := align.Right
		if i == 0 {
			a = align.Left
		}
		cols[i] = col.New(sizes[i]).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Right: 1,
		}))
	}
	return row.New(7).Add(cols...)
}

func pdfShortageRows(shortages []entities.Requirement) []core.Row {
	rows := make([]core.Row, 0, len(shortages))
	for _, s := range shortages {
		cell := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		severity := cell
		if s.Severity == entities.SeverityCritical {
			severity.Color = pdfCritical
			severity.Style = fontstyle.Bold
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(string(s.ItemID), props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(s.Period.Format(dateLayout), cell)),
			col.New(2).Add(text.New(s.NetRequirement.String(), cell)),
			col.New(2).Add(text.New(s.Available.String(), cell)),
			col.New(1).Add(text.New(s.Shortage.String(), cell)),
			col.New(1).Add(text.New(s.Severity.String(), severity)),
		))
	}
	return rows
}

func pdfOrderRows(orders []entities.PlannedOrder) []core.Row {
	rows := make([]core.Row, 0, len(orders))
	for _, o := range orders {
		cell := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		late := ""
		if o.Late {
			late = "LATE"
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(string(o.ItemID), props.Text{Size: 8, Top: 1})),
			col.New(1).Add(text.New(o.OrderType.String(), cell)),
			col.New(2).Add(text.New(o.Quantity.String(), cell)),
			col.New(2).Add(text.New(o.ReleaseDate.Format(dateLayout), cell)),
			col.New(2).Add(text.New(o.DueDate.Format(dateLayout), cell)),
			col.New(1).Add(text.New(late, props.Text{Size: 8, Align: align.Right, Top: 1, Color: pdfCritical})),
		))
	}
	return rows
}
