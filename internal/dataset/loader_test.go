package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

const sampleCSV = `Row_ID,Region,Category,Segment,Sub_Category,Product_Name,Sales,ProfitRatio
1,West,Furniture,Consumer,Chairs,"Chair, Deluxe",100,10.0
2,East,Furniture,Consumer,Chairs,Chair,50,5.0
3,West,Technology,Corporate,Phones,Phone,"$1,200.50",12.5%
4,South,Office Supplies,Home Office,Paper,Paper,12.25,-3
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeTemp(t, "sales.csv", sampleCSV)

	ds, err := Load(context.Background(), path, LoadOptions{})
	require.NoError(t, err)

	require.Equal(t, 4, ds.Len())
	assert.Equal(t, path, ds.Source())
	assert.Equal(t, models.Row{
		Region: "West", Category: "Furniture", Segment: "Consumer",
		SubCategory: "Chairs", Sales: 100, ProfitRatio: 10,
	}, ds.Rows()[0])
	assert.InDelta(t, 1200.50, ds.Rows()[2].Sales, 1e-9)
	assert.InDelta(t, 12.5, ds.Rows()[2].ProfitRatio, 1e-9)
	assert.InDelta(t, -3, ds.Rows()[3].ProfitRatio, 1e-9)
}

func TestLoad_OptionsFirstSeenOrder(t *testing.T) {
	path := writeTemp(t, "sales.csv", sampleCSV)

	ds, err := Load(context.Background(), path, LoadOptions{})
	require.NoError(t, err)

	opts := ds.Options()
	assert.Equal(t, []string{"West", "East", "South"}, opts.Regions)
	assert.Equal(t, []string{"Furniture", "Technology", "Office Supplies"}, opts.Categories)
	assert.Equal(t, []string{"Consumer", "Corporate", "Home Office"}, opts.Segments)

	opts.Regions[0] = "mutated"
	assert.Equal(t, "West", ds.Options().Regions[0])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		target  error
		msg     string
	}{
		{
			name:    "empty file",
			file:    "empty.csv",
			content: "",
			target:  ErrEmpty,
		},
		{
			name:    "header only",
			file:    "header.csv",
			content: "Region,Category,Segment,Sub_Category,Sales,ProfitRatio\n",
			target:  ErrEmpty,
		},
		{
			name:    "missing column",
			file:    "missing.csv",
			content: "Region,Category,Segment,Sales,ProfitRatio\nWest,Furniture,Consumer,1,1\n",
			target:  ErrMissingColumn,
			msg:     "Sub_Category",
		},
		{
			name:    "invalid sales",
			file:    "sales.csv",
			content: "Region,Category,Segment,Sub_Category,Sales,ProfitRatio\nWest,Furniture,Consumer,Chairs,lots,1\n",
			msg:     "line 2",
		},
		{
			name:    "missing profit ratio",
			file:    "ratio.csv",
			content: "Region,Category,Segment,Sub_Category,Sales,ProfitRatio\nWest,Furniture,Consumer,Chairs,10\n",
			msg:     "ProfitRatio",
		},
		{
			name:    "unsupported extension",
			file:    "sales.json",
			content: "[]",
			target:  ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)

			_, err := Load(context.Background(), path, LoadOptions{})
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orders"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	rows := [][]any{
		{"Region", "Category", "Segment", "Sub_Category", "Sales", "ProfitRatio"},
		{"West", "Furniture", "Consumer", "Chairs", 100, 10.0},
		{"East", "Technology", "Corporate", "Phones", 250.5, 7.5},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(context.Background(), path, LoadOptions{Sheet: sheet})
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Phones", ds.Rows()[1].SubCategory)
	assert.InDelta(t, 250.5, ds.Rows()[1].Sales, 1e-9)
}

func TestReadCSV_PreservesOrderAcrossChunks(t *testing.T) {
	var b strings.Builder
	b.WriteString("Region,Category,Segment,Sub_Category,Sales,ProfitRatio\n")
	for i := range 1000 {
		fmt.Fprintf(&b, "R%d,C,S,Sub,%d,1\n", i%7, i)
	}

	ds, err := ReadCSV(context.Background(), strings.NewReader(b.String()), LoadOptions{ChunkSize: 13, Workers: 4})
	require.NoError(t, err)
	require.Equal(t, 1000, ds.Len())

	for i, r := range ds.Rows() {
		require.InDelta(t, float64(i), r.Sales, 0, "row %d out of order", i)
	}
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader(sampleCSV), LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_CopiesRows(t *testing.T) {
	rows := []models.Row{{Region: "West", Category: "Furniture", Segment: "Consumer", SubCategory: "Chairs", Sales: 1}}
	ds := New(rows)
	rows[0].Region = "East"

	assert.Equal(t, "West", ds.Rows()[0].Region)
	assert.Equal(t, []string{"West"}, ds.Options().Regions)
}
