// Package charts draws the dashboard's bar charts as SVG or PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/ui/format"
)

var ErrNoData = errors.New("no data to chart")

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

type Options struct {
	Width  int
	Height int
}

func SalesByRegion(w io.Writer, data []models.RegionSales, format Format, opts Options) error {
	bars := make([]chart.Value, len(data))
	for i, d := range data {
		bars[i] = chart.Value{Label: d.Region, Value: d.Sales}
	}
	return render(w, "Sales by Region", bars, 0, format, opts)
}

// SalesBySubCategory draws sub-categories in the order given, which for a
// View is ascending by sales.
func SalesBySubCategory(w io.Writer, data []models.SubCategorySales, format Format, opts Options) error {
	bars := make([]chart.Value, len(data))
	for i, d := range data {
		bars[i] = chart.Value{Label: d.SubCategory, Value: d.Sales}
	}
	return render(w, "Sales by Sub-Category", bars, 45, format, opts)
}

func render(w io.Writer, title string, bars []chart.Value, labelRotation float64, format Format, opts Options) error {
	if len(bars) == 0 {
		return ErrNoData
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   barWidth(opts.Width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.Style{TextRotationDegrees: labelRotation},
		YAxis: chart.YAxis{
			Range:          valueRange(bars),
			ValueFormatter: formatMoney,
		},
		Bars: bars,
	}

	provider := chart.SVG
	if format == PNG {
		provider = chart.PNG
	}
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", format, err)
	}
	return nil
}

func barWidth(width, n int) int {
	if width <= 0 || n == 0 {
		return 40
	}
	return max(8, min(60, width/(2*n)))
}

// valueRange always includes zero so bars grow from the axis.
func valueRange(bars []chart.Value) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = min(lo, b.Value)
		hi = max(hi, b.Value)
	}
	if lo == hi {
		hi = 1
	}
	pad := (hi - lo) * 0.1
	if hi > 0 {
		hi += pad
	}
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func formatMoney(v any) string {
	if f, ok := v.(float64); ok {
		return format.Money(f)
	}
	return ""
}
