// Package session keeps the per-viewer filter state of the dashboard.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/models"
)

// Aggregator computes derived views over the shared dataset.
type Aggregator interface {
	Aggregate(sel models.Selection) *models.View
	DefaultSelection() models.Selection
}

// Renderer is the presentation side of a filter event. Exactly one of its
// methods is called per event.
type Renderer interface {
	Render(ctx context.Context, view *models.View) error
	Notify(ctx context.Context, notice models.Notice) error
}

// State is one viewer's selection and the views derived from it.
type State struct {
	id        string
	agg       Aggregator
	logger    *slog.Logger
	createdAt time.Time
	lastSeen  atomic.Int64

	// mu serialises filter events; view is also readable without it.
	mu        sync.Mutex
	selection models.Selection
	version   uint64
	view      atomic.Pointer[models.View]
}

// NewState creates a state with sel applied. An empty dimension in sel
// still yields an initial view, computed from the default selection.
func NewState(id string, agg Aggregator, sel models.Selection, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	s := &State{
		id:        id,
		agg:       agg,
		logger:    logger.With("session_id", id),
		createdAt: now,
		selection: sel.Clone(),
	}
	s.lastSeen.Store(now.UnixNano())

	initial := sel
	if initial.HasEmpty() {
		initial = agg.DefaultSelection()
	}
	s.version = 1
	view := agg.Aggregate(initial)
	view.Version = s.version
	s.view.Store(view)
	return s
}

func (s *State) ID() string {
	return s.id
}

func (s *State) CreatedAt() time.Time {
	return s.createdAt
}

func (s *State) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *State) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Selection returns a copy of the current selection.
func (s *State) Selection() models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Clone()
}

// View returns the current derived views. The returned value is never
// mutated; a later filter event replaces it as a whole.
func (s *State) View() *models.View {
	return s.view.Load()
}

// OnFilter handles a selection change. When any dimension is empty the
// selection is recorded, the previous views are kept and r is notified;
// otherwise the views are recomputed, swapped in together and rendered.
// It reports whether the views were replaced.
func (s *State) OnFilter(ctx context.Context, sel models.Selection, r Renderer) (bool, error) {
	s.mu.Lock()
	s.selection = sel.Clone()

	if empty := sel.EmptyDimensions(); len(empty) > 0 {
		s.mu.Unlock()
		s.logger.Info("empty selection, keeping previous views", "empty_dimensions", empty)
		return false, r.Notify(ctx, models.EmptySelectionNotice())
	}

	view := s.agg.Aggregate(sel)
	s.version++
	view.Version = s.version
	s.view.Store(view)
	s.mu.Unlock()

	s.logger.Debug("views recomputed",
		"regions", len(sel.Regions),
		"categories", len(sel.Categories),
		"segments", len(sel.Segments),
		"rows", len(view.Filtered),
		"version", view.Version,
	)
	return true, r.Render(ctx, view)
}
