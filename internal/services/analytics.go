package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

var ErrUnknownValue = errors.New("unknown filter value")

// Analytics answers filter requests against the loaded dataset.
type Analytics struct {
	mu           sync.RWMutex
	data         *dataset.Dataset
	valid        validValues
	aggregations atomic.Int64
	logger       *slog.Logger
}

type validValues struct {
	regions    models.Set[string]
	categories models.Set[string]
	segments   models.Set[string]
}

func NewAnalytics() *Analytics {
	a := &Analytics{logger: slog.Default()}
	a.setDataset(dataset.New(nil))
	return a
}

// SetData replaces the dataset with rows held in memory.
func (a *Analytics) SetData(rows []models.Row) {
	a.setDataset(dataset.New(rows))
}

// LoadFromFile reads the dataset at path. It is called once at startup.
func (a *Analytics) LoadFromFile(ctx context.Context, path string, opts dataset.LoadOptions) error {
	start := time.Now()
	a.logger.Info("loading dataset", "path", path)

	ds, err := dataset.Load(ctx, path, opts)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	a.setDataset(ds)

	a.logger.Info("dataset loaded",
		"records", ds.Len(),
		"duration", time.Since(start),
	)
	return nil
}

func (a *Analytics) setDataset(ds *dataset.Dataset) {
	opts := ds.Options()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = ds
	a.valid = validValues{
		regions:    models.NewSet(opts.Regions...),
		categories: models.NewSet(opts.Categories...),
		segments:   models.NewSet(opts.Segments...),
	}
}

func (a *Analytics) current() *dataset.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data
}

func (a *Analytics) Options() models.Options {
	return a.current().Options()
}

// DefaultSelection selects every value of every dimension.
func (a *Analytics) DefaultSelection() models.Selection {
	return a.Options().All()
}

// Validate rejects values that do not occur in the dataset. Empty dimensions
// are valid here; they are handled by the session as a notice.
func (a *Analytics) Validate(sel models.Selection) error {
	a.mu.RLock()
	valid := a.valid
	a.mu.RUnlock()

	check := func(dim models.Dimension, values []string, set models.Set[string]) error {
		for _, v := range values {
			if !set.Has(v) {
				return fmt.Errorf("%w: %s %q", ErrUnknownValue, dim, v)
			}
		}
		return nil
	}

	return errors.Join(
		check(models.DimensionRegion, sel.Regions, valid.regions),
		check(models.DimensionCategory, sel.Categories, valid.categories),
		check(models.DimensionSegment, sel.Segments, valid.segments),
	)
}

// Aggregate builds a fresh View for sel.
func (a *Analytics) Aggregate(sel models.Selection) *models.View {
	rows := a.current().Rows()
	result := FilterAndAggregate(rows, sel)
	a.aggregations.Add(1)

	return &models.View{
		Selection:          sel.Clone(),
		Filtered:           result.Filtered,
		SalesBySubCategory: result.SalesBySubCategory,
		SalesByRegion:      result.SalesByRegion,
		Summary:            Summarize(result.Filtered),
		ComputedAt:         time.Now(),
	}
}

// Stats reports dataset and usage figures for monitoring.
func (a *Analytics) Stats() map[string]any {
	ds := a.current()
	opts := ds.Options()

	return map[string]any{
		"record_count": ds.Len(),
		"source":       ds.Source(),
		"loaded_at":    ds.LoadedAt(),
		"regions":      len(opts.Regions),
		"categories":   len(opts.Categories),
		"segments":     len(opts.Segments),
		"aggregations": a.aggregations.Load(),
	}
}
