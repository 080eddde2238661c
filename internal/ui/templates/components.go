// Package templates holds the dashboard's templ components. Edit the .templ
// files and run `templ generate`; the _templ.go files are generated.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

// Element ids targeted by SSE patches.
const (
	SummaryID = "summary-cards"
	ChartsID  = "charts"
	NoticeID  = "notice"
)

const (
	regionChartPath      = "/charts/sales-by-region.svg"
	subCategoryChartPath = "/charts/sales-by-sub-category.svg"
)

type PageData struct {
	Title     string
	Options   models.Options
	Selection models.Selection
	View      *models.View
}

// signals is the initial Datastar signal state: the session's selection.
func signals(sel models.Selection) (string, error) {
	b, err := json.Marshal(sel)
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(b), nil
}

// chartSrc adds the view version so browsers refetch after each recomputation.
func chartSrc(path string, version uint64) string {
	return fmt.Sprintf("%s?v=%d", path, version)
}

// RenderString renders c into a string, as needed for SSE element patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
