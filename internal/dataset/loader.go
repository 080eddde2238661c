package dataset

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

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	ColumnRegion      = "Region"
	ColumnCategory    = "Category"
	ColumnSegment     = "Segment"
	ColumnSubCategory = "Sub_Category"
	ColumnSales       = "Sales"
	ColumnProfitRatio = "ProfitRatio"
)

const (
	defaultChunkSize = 5000
	defaultWorkers   = 8
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrEmpty             = errors.New("dataset has no rows")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

var requiredColumns = []string{
	ColumnRegion,
	ColumnCategory,
	ColumnSegment,
	ColumnSubCategory,
	ColumnSales,
	ColumnProfitRatio,
}

type LoadOptions struct {
	// Sheet selects the worksheet of an .xlsx source. Empty means the first sheet.
	Sheet     string
	Workers   int
	ChunkSize int
}

// Load reads the dataset at path, picking the format from the file extension.
func Load(ctx context.Context, path string, opts LoadOptions) (*Dataset, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSVFile(path)
	case ".xlsx":
		records, err = readXLSXFile(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	rows, err := parseRecords(ctx, records, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return newDataset(rows, path), nil
}

// ReadCSV parses a CSV stream with a header row into a Dataset.
func ReadCSV(ctx context.Context, r io.Reader, opts LoadOptions) (*Dataset, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	rows, err := parseRecords(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	return newDataset(rows, "stream"), nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readXLSXFile(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return records, nil
}

type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return idx, nil
}

// parseRecords converts raw records into rows. Chunks are parsed concurrently
// and written back in place, so the result keeps the source order.
func parseRecords(ctx context.Context, records [][]string, opts LoadOptions) ([]models.Row, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	idx, err := indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	body := records[1:]
	if len(body) == 0 {
		return nil, ErrEmpty
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	rows := make([]models.Row, len(body))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(body); start += chunkSize {
		end := min(start+chunkSize, len(body))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				row, err := parseRow(body[i], idx)
				if err != nil {
					// +2: one for the header, one for 1-based line numbers
					return fmt.Errorf("line %d: %w", i+2, err)
				}
				rows[i] = row
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func parseRow(record []string, idx columnIndex) (models.Row, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	sales, err := parseNumber(field(ColumnSales))
	if err != nil {
		return models.Row{}, fmt.Errorf("column %s: %w", ColumnSales, err)
	}
	profitRatio, err := parseNumber(field(ColumnProfitRatio))
	if err != nil {
		return models.Row{}, fmt.Errorf("column %s: %w", ColumnProfitRatio, err)
	}

	return models.Row{
		Region:      field(ColumnRegion),
		Category:    field(ColumnCategory),
		Segment:     field(ColumnSegment),
		SubCategory: field(ColumnSubCategory),
		Sales:       sales,
		ProfitRatio: profitRatio,
	}, nil
}

// parseNumber accepts plain decimals as well as "$1,234.50" and "12.5%".
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
