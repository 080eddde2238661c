package models

import "time"

// Row is one record of the sales dataset.
type Row struct {
	Region      string  `json:"region"`
	Category    string  `json:"category"`
	Segment     string  `json:"segment"`
	SubCategory string  `json:"sub_category"`
	Sales       float64 `json:"sales"`
	ProfitRatio float64 `json:"profit_ratio"`
}

type SubCategorySales struct {
	SubCategory string  `json:"sub_category"`
	Sales       float64 `json:"sales"`
}

type RegionSales struct {
	Region string  `json:"region"`
	Sales  float64 `json:"sales"`
}

type Summary struct {
	TotalSales         float64 `json:"total_sales"`
	AverageSales       float64 `json:"average_sales"`
	AverageProfitRatio float64 `json:"average_profit_ratio"`
	Count              int     `json:"count"`
}

// Options lists the selectable values of each filter dimension.
type Options struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Segments   []string `json:"segments"`
}

// View is the set of tables derived from the dataset for one selection.
// A View is never modified after it is built; a new selection produces a new View.
type View struct {
	Selection          Selection          `json:"selection"`
	Filtered           []Row              `json:"-"`
	SalesBySubCategory []SubCategorySales `json:"sales_by_sub_category"`
	SalesByRegion      []RegionSales      `json:"sales_by_region"`
	Summary            Summary            `json:"summary"`
	Version            uint64             `json:"version"`
	ComputedAt         time.Time          `json:"computed_at"`
}

type NoticeLevel string

const NoticeError NoticeLevel = "error"

const EmptySelectionMessage = "No results found. Change the filters."

// Notice is a user-visible message emitted instead of a recomputation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func EmptySelectionNotice() Notice {
	return Notice{Level: NoticeError, Message: EmptySelectionMessage}
}
