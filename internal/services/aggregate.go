package services

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// Result holds the three tables derived from one selection.
type Result struct {
	Filtered           []models.Row
	SalesBySubCategory []models.SubCategorySales
	SalesByRegion      []models.RegionSales
}

// FilterAndAggregate keeps the rows whose region, category and segment are all
// selected, then sums Sales per sub-category (ascending by total) and per region
// (by region name). It has no side effects; callers must short-circuit on an
// empty selection dimension.
func FilterAndAggregate(rows []models.Row, sel models.Selection) Result {
	match := sel.Matcher()

	filtered := make([]models.Row, 0)
	for _, r := range rows {
		if match(r) {
			filtered = append(filtered, r)
		}
	}

	return Result{
		Filtered:           filtered,
		SalesBySubCategory: salesBySubCategory(filtered),
		SalesByRegion:      salesByRegion(filtered),
	}
}

type groupSum struct {
	key string
	sum decimal.Decimal
}

// groupSales sums Sales per key. Groups come back ordered by key.
func groupSales(rows []models.Row, key func(models.Row) string) []groupSum {
	sums := make(map[string]decimal.Decimal)
	for _, r := range rows {
		k := key(r)
		sums[k] = sums[k].Add(decimal.NewFromFloat(r.Sales))
	}

	groups := make([]groupSum, 0, len(sums))
	for k, s := range sums {
		groups = append(groups, groupSum{key: k, sum: s})
	}
	slices.SortFunc(groups, func(a, b groupSum) int {
		return cmp.Compare(a.key, b.key)
	})
	return groups
}

func salesBySubCategory(rows []models.Row) []models.SubCategorySales {
	groups := groupSales(rows, func(r models.Row) string { return r.SubCategory })
	slices.SortStableFunc(groups, func(a, b groupSum) int {
		return a.sum.Cmp(b.sum)
	})

	result := make([]models.SubCategorySales, len(groups))
	for i, g := range groups {
		result[i] = models.SubCategorySales{SubCategory: g.key, Sales: g.sum.InexactFloat64()}
	}
	return result
}

func salesByRegion(rows []models.Row) []models.RegionSales {
	groups := groupSales(rows, func(r models.Row) string { return r.Region })

	result := make([]models.RegionSales, len(groups))
	for i, g := range groups {
		result[i] = models.RegionSales{Region: g.key, Sales: g.sum.InexactFloat64()}
	}
	return result
}

// Summarize computes the headline metrics over rows. Sales are summed exactly;
// the average profit ratio is a float64 mean rounded to one decimal place.
// An empty input yields a zero Summary.
func Summarize(rows []models.Row) models.Summary {
	if len(rows) == 0 {
		return models.Summary{}
	}

	total := decimal.Zero
	ratio := 0.0
	for _, r := range rows {
		total = total.Add(decimal.NewFromFloat(r.Sales))
		ratio += r.ProfitRatio
	}
	n := decimal.NewFromInt(int64(len(rows)))

	return models.Summary{
		TotalSales:         total.InexactFloat64(),
		AverageSales:       total.Div(n).InexactFloat64(),
		AverageProfitRatio: roundTenths(ratio / float64(len(rows))),
		Count:              len(rows),
	}
}

// roundTenths rounds the exact binary value of v to one decimal place, ties to
// even, so 2.25 becomes 2.2 and 0.35 (stored just below) becomes 0.3.
func roundTenths(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
