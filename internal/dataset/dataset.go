// Package dataset holds the read-only sales table the dashboard is built on.
package dataset

import (
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

// Dataset is an immutable, ordered collection of rows. It is safe to share
// between any number of goroutines.
type Dataset struct {
	rows     []models.Row
	options  models.Options
	source   string
	loadedAt time.Time
}

// New builds a Dataset from rows. The slice is copied.
func New(rows []models.Row) *Dataset {
	return newDataset(slices.Clone(rows), "memory")
}

func newDataset(rows []models.Row, source string) *Dataset {
	return &Dataset{
		rows:     rows,
		options:  distinct(rows),
		source:   source,
		loadedAt: time.Now(),
	}
}

// Rows returns the shared row slice. Callers must not modify it.
func (d *Dataset) Rows() []models.Row {
	return d.rows
}

func (d *Dataset) Len() int {
	return len(d.rows)
}

// Options returns the distinct values of each filter dimension in the order
// they first appear in the dataset.
func (d *Dataset) Options() models.Options {
	return models.Options{
		Regions:    slices.Clone(d.options.Regions),
		Categories: slices.Clone(d.options.Categories),
		Segments:   slices.Clone(d.options.Segments),
	}
}

func (d *Dataset) Source() string {
	return d.source
}

func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

func distinct(rows []models.Row) models.Options {
	var opts models.Options
	seenRegion := make(models.Set[string])
	seenCategory := make(models.Set[string])
	seenSegment := make(models.Set[string])

	for _, r := range rows {
		if !seenRegion.Has(r.Region) {
			seenRegion[r.Region] = struct{}{}
			opts.Regions = append(opts.Regions, r.Region)
		}
		if !seenCategory.Has(r.Category) {
			seenCategory[r.Category] = struct{}{}
			opts.Categories = append(opts.Categories, r.Category)
		}
		if !seenSegment.Has(r.Segment) {
			seenSegment[r.Segment] = struct{}{}
			opts.Segments = append(opts.Segments, r.Segment)
		}
	}
	return opts
}
