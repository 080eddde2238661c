// Package export writes the current dashboard views to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

const (
	SheetSummary       = "Summary"
	SheetSubCategories = "Sales by Sub-Category"
	SheetRegions       = "Sales by Region"
	SheetRows          = "Filtered Rows"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds a workbook with one sheet per derived view plus a summary.
func Workbook(view *models.View) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetSubCategories, SheetRegions, SheetRows} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := sheetWriter{f: f, headerStyle: headerStyle}

	w.rows(SheetSummary, []any{"Metric", "Value"}, [][]any{
		{"Total Sales", view.Summary.TotalSales},
		{"Average Sales", view.Summary.AverageSales},
		{"Average Profit Ratio", view.Summary.AverageProfitRatio},
		{"Rows", view.Summary.Count},
		{"Regions", strings.Join(view.Selection.Regions, ", ")},
		{"Categories", strings.Join(view.Selection.Categories, ", ")},
		{"Segments", strings.Join(view.Selection.Segments, ", ")},
	})

	subRows := make([][]any, len(view.SalesBySubCategory))
	for i, s := range view.SalesBySubCategory {
		subRows[i] = []any{s.SubCategory, s.Sales}
	}
	w.rows(SheetSubCategories, []any{"Sub_Category", "Sales"}, subRows)

	regionRows := make([][]any, len(view.SalesByRegion))
	for i, r := range view.SalesByRegion {
		regionRows[i] = []any{r.Region, r.Sales}
	}
	w.rows(SheetRegions, []any{"Region", "Sales"}, regionRows)

	dataRows := make([][]any, len(view.Filtered))
	for i, r := range view.Filtered {
		dataRows[i] = []any{r.Region, r.Category, r.Segment, r.SubCategory, r.Sales, r.ProfitRatio}
	}
	w.rows(SheetRows, []any{"Region", "Category", "Segment", "Sub_Category", "Sales", "ProfitRatio"}, dataRows)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write streams the workbook for view to out.
func Write(out io.Writer, view *models.View) error {
	f, err := Workbook(view)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so sheet filling reads straight through.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *sheetWriter) rows(sheet string, header []any, rows [][]any) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetSheetRow(sheet, "A1", &header); w.err != nil {
		return
	}
	if w.err = w.f.SetRowStyle(sheet, 1, 1, w.headerStyle); w.err != nil {
		return
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.err = err
			return
		}
		if w.err = w.f.SetSheetRow(sheet, cell, &r); w.err != nil {
			return
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetColWidth(sheet, "A", lastCol, 18)
}
