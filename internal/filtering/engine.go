package filtering

import (
	"strings"
	"time"
)

// StatusAll is the sentinel meaning "no status constraint". An empty string
// is treated the same way so a blank filter control never matches literally.
const StatusAll = "All"

// Row is the record shape the engine filters. Rows expose the date used for
// range filtering, an exact-match status and location, and the free-text
// searchable fields. The engine never mutates a row.
type Row interface {
	FilterDate() (time.Time, bool)
	FilterStatus() string
	FilterLocation() string
	SearchFields() []string
}

// FilterState holds the committed predicate set. Every field is optional:
// a zero date, empty string, or the StatusAll sentinel imposes no constraint.
type FilterState struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
}

// FilterKey names a single FilterState field for RemoveFilter.
type FilterKey string

const (
	KeyStartDate FilterKey = "start_date"
	KeyEndDate   FilterKey = "end_date"
	KeyStatus    FilterKey = "status"
	KeyLocation  FilterKey = "location"
)

// Pagination is 0-based page bookkeeping for a paged table view.
type Pagination struct {
	PageIndex int `json:"page_index"`
	PageSize  int `json:"page_size"`
}

const defaultPageSize = 10

// Engine derives a filtered view of a raw collection from the committed
// FilterState and search term. One instance backs one table; the caller owns
// the raw rows and the engine only ever reads them. All operations are plain
// synchronous state transitions, so an instance must not be shared across
// goroutines.
type Engine[T Row] struct {
	rows      []T
	committed FilterState
	draft     *FilterState
	search    string
	page      Pagination
}

func NewEngine[T Row]() *Engine[T] {
	return &Engine[T]{page: Pagination{PageSize: defaultPageSize}}
}

// SetRows replaces the raw collection. Data changing in place does not reset
// pagination; only predicate changes do.
func (e *Engine[T]) SetRows(rows []T) {
	e.rows = rows
}

// SetSearch updates the free-text predicate immediately, bypassing the
// draft/commit cycle, and resets pagination.
func (e *Engine[T]) SetSearch(term string) {
	e.search = term
	e.resetPagination()
}

// SubmitFilters atomically replaces the committed FilterState and resets
// pagination. This is the commit half of the draft/commit pattern.
func (e *Engine[T]) SubmitFilters(candidate FilterState) {
	e.committed = candidate
	e.draft = nil
	e.resetPagination()
}

// ResetFilters restores the all-unconstrained FilterState, clears the search
// term, and resets pagination.
func (e *Engine[T]) ResetFilters() {
	e.committed = FilterState{}
	e.draft = nil
	e.search = ""
	e.resetPagination()
}

// RemoveFilter clears exactly one committed field, leaving the rest
// untouched, and resets pagination. Unknown keys are ignored.
func (e *Engine[T]) RemoveFilter(key FilterKey) {
	switch key {
	case KeyStartDate:
		e.committed.StartDate = time.Time{}
	case KeyEndDate:
		e.committed.EndDate = time.Time{}
	case KeyStatus:
		e.committed.Status = ""
	case KeyLocation:
		e.committed.Location = ""
	default:
		return
	}
	e.resetPagination()
}

// BeginEdit copies the committed state into a draft buffer and returns it.
// Repeated calls without Commit return the same draft.
func (e *Engine[T]) BeginEdit() *FilterState {
	if e.draft == nil {
		d := e.committed
		e.draft = &d
	}
	return e.draft
}

// Commit promotes the draft to committed state. Without an open draft it is
// a no-op.
func (e *Engine[T]) Commit() {
	if e.draft == nil {
		return
	}
	e.SubmitFilters(*e.draft)
}

// Discard drops the draft, leaving committed state and pagination untouched.
func (e *Engine[T]) Discard() {
	e.draft = nil
}

// Filters returns the committed FilterState.
func (e *Engine[T]) Filters() FilterState { return e.committed }

// Search returns the current search term.
func (e *Engine[T]) Search() string { return e.search }

// HasActiveFilters reports whether any predicate or the search term is set.
// Purely a UI affordance; not part of the filtering computation.
func (e *Engine[T]) HasActiveFilters() bool {
	return !e.committed.StartDate.IsZero() ||
		!e.committed.EndDate.IsZero() ||
		(e.committed.Status != "" && e.committed.Status != StatusAll) ||
		e.committed.Location != "" ||
		e.search != ""
}

// FilteredData returns the subset of the raw collection matching every
// committed predicate and the search term. Recomputed deterministically on
// each call; the raw collection is never modified.
func (e *Engine[T]) FilteredData() []T {
	out := make([]T, 0, len(e.rows))
	for _, row := range e.rows {
		if e.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

// Page returns the current pagination state.
func (e *Engine[T]) Page() Pagination { return e.page }

// SetPageIndex moves to a page without touching predicates. Negative values
// clamp to 0.
func (e *Engine[T]) SetPageIndex(i int) {
	if i < 0 {
		i = 0
	}
	e.page.PageIndex = i
}

// SetPageSize changes the page size. Non-positive values restore the default.
func (e *Engine[T]) SetPageSize(n int) {
	if n <= 0 {
		n = defaultPageSize
	}
	e.page.PageSize = n
}

// CurrentPage slices the filtered data down to the current page. An index
// past the end yields an empty slice rather than panicking.
func (e *Engine[T]) CurrentPage() []T {
	filtered := e.FilteredData()
	start := e.page.PageIndex * e.page.PageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + e.page.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

func (e *Engine[T]) resetPagination() {
	e.page.PageIndex = 0
}

// matches evaluates the committed predicates against one row, cheapest
// first, short-circuiting on the first failure.
func (e *Engine[T]) matches(row T) bool {
	f := e.committed

	if f.Status != "" && f.Status != StatusAll && row.FilterStatus() != f.Status {
		return false
	}
	if f.Location != "" && row.FilterLocation() != f.Location {
		return false
	}

	if !f.StartDate.IsZero() || !f.EndDate.IsZero() {
		date, ok := row.FilterDate()
		if !ok {
			// A row with no date fails any active range filter.
			return false
		}
		day := dateOnly(date)
		if !f.StartDate.IsZero() && day.Before(dateOnly(f.StartDate)) {
			return false
		}
		if !f.EndDate.IsZero() && day.After(dateOnly(f.EndDate)) {
			return false
		}
	}

	if e.search != "" {
		term := strings.ToLower(e.search)
		found := false
		for _, field := range row.SearchFields() {
			if strings.Contains(strings.ToLower(field), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// ParseDate converts a filter-control date string to a predicate value.
// Malformed input degrades to the zero time, which imposes no constraint,
// so a bad date in a filter panel can never take down the view.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t)
		}
	}
	return time.Time{}
}

// dateOnly truncates to midnight UTC so time-of-day cannot cause off-by-one
// exclusion at the range boundaries.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
