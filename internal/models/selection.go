package models

import (
	"encoding/json"
	"slices"
)

// Set is a membership set over a comparable domain.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Len() int {
	return len(s)
}

type Dimension string

const (
	DimensionRegion   Dimension = "region"
	DimensionCategory Dimension = "category"
	DimensionSegment  Dimension = "segment"
)

// Selection holds the chosen values of the three filter dimensions.
type Selection struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Segments   []string `json:"segments"`
}

// EmptyDimensions reports which dimensions have no selected value.
func (s Selection) EmptyDimensions() []Dimension {
	var empty []Dimension
	if len(s.Regions) == 0 {
		empty = append(empty, DimensionRegion)
	}
	if len(s.Categories) == 0 {
		empty = append(empty, DimensionCategory)
	}
	if len(s.Segments) == 0 {
		empty = append(empty, DimensionSegment)
	}
	return empty
}

func (s Selection) HasEmpty() bool {
	return len(s.Regions) == 0 || len(s.Categories) == 0 || len(s.Segments) == 0
}

func (s Selection) Clone() Selection {
	return Selection{
		Regions:    slices.Clone(s.Regions),
		Categories: slices.Clone(s.Categories),
		Segments:   slices.Clone(s.Segments),
	}
}

// MarshalJSON writes empty dimensions as [] rather than null, so bound
// multi-selects always receive an array.
func (s Selection) MarshalJSON() ([]byte, error) {
	type selection Selection
	return json.Marshal(selection{
		Regions:    orEmpty(s.Regions),
		Categories: orEmpty(s.Categories),
		Segments:   orEmpty(s.Segments),
	})
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Matcher returns the conjunctive membership predicate for the selection.
func (s Selection) Matcher() func(Row) bool {
	regions := NewSet(s.Regions...)
	categories := NewSet(s.Categories...)
	segments := NewSet(s.Segments...)

	return func(r Row) bool {
		return regions.Has(r.Region) && categories.Has(r.Category) && segments.Has(r.Segment)
	}
}

// All returns a selection with every option chosen.
func (o Options) All() Selection {
	return Selection{
		Regions:    slices.Clone(o.Regions),
		Categories: slices.Clone(o.Categories),
		Segments:   slices.Clone(o.Segments),
	}
}
