package output

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printshop-mrp/pkg/application/dto"
	"github.com/vsinha/printshop-mrp/pkg/domain/entities"
)

const (
	colorMake = "#4CAF50"
	colorBuy  = "#2196F3"
	colorLate = "#E53935"
)

// GanttChart lays planned orders out on a release-to-due timeline
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	EndTime      time.Time
}

// GanttBar represents a single planned order in the chart
type GanttBar struct {
	ItemID      entities.ItemID
	OrderType   entities.OrderType
	Quantity    decimal.Decimal
	ReleaseDate time.Time
	DueDate     time.Time
	Late        bool
	X           int
	Width       int
	Color       string
}

// NewGanttChart sizes a chart for the planned orders of a report
func NewGanttChart(report *dto.MRPReport) *GanttChart {
	if len(report.PlannedOrders) == 0 {
		return &GanttChart{
			Width:        800,
			Height:       200,
			MarginLeft:   150,
			MarginTop:    50,
			MarginRight:  50,
			MarginBottom: 50,
			RowHeight:    25,
		}
	}

	startTime := report.PlannedOrders[0].ReleaseDate
	endTime := report.PlannedOrders[0].DueDate
	for _, order := range report.PlannedOrders {
		if order.ReleaseDate.Before(startTime) {
			startTime = order.ReleaseDate
		}
		if order.DueDate.After(endTime) {
			endTime = order.DueDate
		}
	}

	// 10% padding, at least a day on each side
	padding := time.Duration(float64(endTime.Sub(startTime)) * 0.1)
	if padding < 24*time.Hour {
		padding = 24 * time.Hour
	}
	startTime = startTime.Add(-padding)
	endTime = endTime.Add(padding)

	items := make(map[entities.ItemID]bool)
	for _, order := range report.PlannedOrders {
		items[order.ItemID] = true
	}

	rowHeight := 30
	return &GanttChart{
		Width:        1200,
		Height:       len(items)*rowHeight + 200,
		MarginLeft:   200,
		MarginTop:    60,
		MarginRight:  100,
		MarginBottom: 80,
		RowHeight:    rowHeight,
		StartTime:    startTime,
		EndTime:      endTime,
	}
}

// GenerateSVG renders the chart
func (gc *GanttChart) GenerateSVG(report *dto.MRPReport) string {
	if len(report.PlannedOrders) == 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height))
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.item-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.order-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.order-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style></defs>`)

	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Planned Orders as of %s</text>`,
		gc.Width/2, report.AsOf.Format(dateLayout)))

	rows := gc.organizeBars(gc.createBars(report.PlannedOrders))

	gc.drawTimeAxis(&svg)
	gc.drawTimeGrid(&svg, len(rows))
	gc.drawItemRows(&svg, rows)
	gc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) createBars(orders []entities.PlannedOrder) []GanttBar {
	bars := make([]GanttBar, 0, len(orders))
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight

	for _, order := range orders {
		x := gc.xFor(order.ReleaseDate, chartWidth)
		width := gc.xFor(order.DueDate, chartWidth) - x
		if width < 2 {
			width = 2
		}

		bars = append(bars, GanttBar{
			ItemID:      order.ItemID,
			OrderType:   order.OrderType,
			Quantity:    order.Quantity,
			ReleaseDate: order.ReleaseDate,
			DueDate:     order.DueDate,
			Late:        order.Late,
			X:           x,
			Width:       width,
			Color:       barColor(order),
		})
	}

	return bars
}

// xFor maps a date onto the horizontal axis
func (gc *GanttChart) xFor(t time.Time, chartWidth int) int {
	total := gc.EndTime.Sub(gc.StartTime)
	return gc.MarginLeft + int(float64(t.Sub(gc.StartTime))/float64(total)*float64(chartWidth))
}

// organizeBars groups bars by item, ordered by earliest release then item id
func (gc *GanttChart) organizeBars(bars []GanttBar) [][]GanttBar {
	byItem := make(map[entities.ItemID][]GanttBar)
	for _, bar := range bars {
		byItem[bar.ItemID] = append(byItem[bar.ItemID], bar)
	}

	rows := make([][]GanttBar, 0, len(byItem))
	for _, itemBars := range byItem {
		sort.Slice(itemBars, func(i, j int) bool { return itemBars[i].ReleaseDate.Before(itemBars[j].ReleaseDate) })
		rows = append(rows, itemBars)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i][0].ReleaseDate.Equal(rows[j][0].ReleaseDate) {
			return rows[i][0].ReleaseDate.Before(rows[j][0].ReleaseDate)
		}
		return rows[i][0].ItemID < rows[j][0].ItemID
	})

	return rows
}

func (gc *GanttChart) interval() (time.Duration, string) {
	days := int(math.Ceil(gc.EndTime.Sub(gc.StartTime).Hours() / 24))
	switch {
	case days <= 30:
		return 24 * time.Hour, "Jan 2"
	case days <= 180:
		return 7 * 24 * time.Hour, "Jan 2"
	default:
		return 30 * 24 * time.Hour, "Jan 2006"
	}
}

func (gc *GanttChart) drawTimeAxis(svg *strings.Builder) {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	interval, labelFormat := gc.interval()

	for t := gc.StartTime.Truncate(interval); t.Before(gc.EndTime); t = t.Add(interval) {
		x := gc.xFor(t, chartWidth)
		if x >= gc.MarginLeft && x <= gc.Width-gc.MarginRight {
			svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="time-label" text-anchor="middle">%s</text>`,
				x, gc.Height-gc.MarginBottom+15, t.Format(labelFormat)))
		}
	}

	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, gc.Height-gc.MarginBottom, gc.Width-gc.MarginRight, gc.Height-gc.MarginBottom))
}

// rowHeight keeps rows clear of the time axis
func (gc *GanttChart) rowHeight(numRows int) int {
	available := gc.Height - gc.MarginBottom - 30 - gc.MarginTop
	height := available / numRows
	if height > gc.RowHeight {
		height = gc.RowHeight
	}
	return height
}

func (gc *GanttChart) drawTimeGrid(svg *strings.Builder, numRows int) {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	gridBottom := gc.MarginTop + numRows*gc.rowHeight(numRows)
	interval, _ := gc.interval()

	for t := gc.StartTime.Truncate(interval); t.Before(gc.EndTime); t = t.Add(interval) {
		x := gc.xFor(t, chartWidth)
		if x >= gc.MarginLeft && x <= gc.Width-gc.MarginRight {
			svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
				x, gc.MarginTop, x, gridBottom))
		}
	}
}

func (gc *GanttChart) drawItemRows(svg *strings.Builder, rows [][]GanttBar) {
	rowHeight := gc.rowHeight(len(rows))

	for i, bars := range rows {
		y := gc.MarginTop + i*rowHeight

		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="item-label" text-anchor="end">%s</text>`,
			gc.MarginLeft-15, y+rowHeight/2+4, html.EscapeString(string(bars[0].ItemID))))
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			gc.MarginLeft, y+rowHeight, gc.Width-gc.MarginRight, y+rowHeight))

		for _, bar := range bars {
			gc.drawBar(svg, bar, y, rowHeight)
		}
	}
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, rowY int, rowHeight int) {
	barHeight := rowHeight - 4
	barY := rowY + 2

	svg.WriteString(fmt.Sprintf(`<g><rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="order-bar"/>`,
		bar.X, barY, bar.Width, barHeight, bar.Color))

	if bar.Width > 40 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="order-text" text-anchor="middle">Qty: %s</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, bar.Quantity))
	}

	tooltip := fmt.Sprintf("Item: %s, Qty: %s, Release: %s, Due: %s, Type: %s",
		bar.ItemID, bar.Quantity,
		bar.ReleaseDate.Format(dateLayout),
		bar.DueDate.Format(dateLayout),
		bar.OrderType)
	if bar.Late {
		tooltip += ", LATE"
	}
	svg.WriteString(fmt.Sprintf(`<title>%s</title></g>`, html.EscapeString(tooltip)))
}

func (gc *GanttChart) drawLegend(svg *strings.Builder) {
	legendX := gc.Width - gc.MarginRight - 200
	legendY := 40

	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="180" height="60" fill="white" stroke="#ccc" stroke-width="1"/>`,
		legendX, legendY))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="item-label" font-weight="bold">Legend</text>`,
		legendX+10, legendY+15))

	items := []struct {
		color string
		label string
	}{
		{colorMake, "Make Orders"},
		{colorBuy, "Buy Orders"},
		{colorLate, "Late Release"},
	}
	for i, item := range items {
		itemY := legendY + 25 + i*12
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`,
			legendX+10, itemY, item.color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="time-label">%s</text>`,
			legendX+30, itemY+6, item.label))
	}
}

func barColor(order entities.PlannedOrder) string {
	if order.Late {
		return colorLate
	}
	if order.OrderType == entities.Make {
		return colorMake
	}
	return colorBuy
}

func (gc *GanttChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Planned Orders</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}
