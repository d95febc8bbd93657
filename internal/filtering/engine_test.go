package filtering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testRow struct {
	name     string
	email    string
	phone    string
	status   string
	location string
	date     *time.Time
}

func (r testRow) FilterDate() (time.Time, bool) {
	if r.date == nil {
		return time.Time{}, false
	}
	return *r.date, true
}

func (r testRow) FilterStatus() string   { return r.status }
func (r testRow) FilterLocation() string { return r.location }
func (r testRow) SearchFields() []string { return []string{r.name, r.email, r.phone} }

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleRows() []testRow {
	return []testRow{
		{name: "Sarah Davis", email: "sarah@example.com", phone: "555-0100", status: "Confirmed", location: "DEL", date: day("2025-01-05")},
		{name: "James Lee", email: "james@example.com", phone: "555-0101", status: "Confirmed", location: "BOM", date: day("2025-01-20")},
		{name: "Priya Patel", email: "priya@example.com", phone: "555-0102", status: "Rented", location: "DEL", date: day("2025-02-10")},
		{name: "Tom Ford", email: "tom@example.com", phone: "555-0103", status: "Returned", location: "DEL", date: day("2025-01-28")},
		{name: "Anita Rao", email: "anita@example.com", phone: "555-0104", status: "Rented", location: "BOM", date: day("2025-03-01")},
	}
}

func newTestEngine() *Engine[testRow] {
	e := NewEngine[testRow]()
	e.SetRows(sampleRows())
	return e
}

func TestFilteredData_NoFilters(t *testing.T) {
	e := newTestEngine()
	assert.Len(t, e.FilteredData(), 5)
	assert.False(t, e.HasActiveFilters())
}

func TestFilteredData_ANDComposition(t *testing.T) {
	e := newTestEngine()

	e.SubmitFilters(FilterState{Status: "Confirmed"})
	assert.Len(t, e.FilteredData(), 2)

	e.SubmitFilters(FilterState{Status: "Confirmed", Location: "DEL"})
	got := e.FilteredData()
	assert.Len(t, got, 1)
	assert.Equal(t, "Sarah Davis", got[0].name)
}

func TestFilteredData_StatusSentinelNeutral(t *testing.T) {
	e := newTestEngine()
	e.SubmitFilters(FilterState{Location: "DEL"})
	unset := e.FilteredData()

	e.SubmitFilters(FilterState{Status: StatusAll, Location: "DEL"})
	sentinel := e.FilteredData()

	assert.Equal(t, unset, sentinel)
	// The sentinel must never be matched literally.
	assert.NotEmpty(t, sentinel)
}

func TestFilteredData_DateRangeInclusive(t *testing.T) {
	e := newTestEngine()
	e.SubmitFilters(FilterState{
		StartDate: *day("2025-01-01"),
		EndDate:   *day("2025-01-31"),
		Status:    StatusAll,
	})

	got := e.FilteredData()
	assert.Len(t, got, 3)
	for _, row := range got {
		assert.Equal(t, time.January, row.date.Month())
	}
}

func TestFilteredData_DateBoundaryIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 1, 31, 23, 45, 0, 0, time.UTC)
	e := NewEngine[testRow]()
	e.SetRows([]testRow{{name: "Edge", status: "Confirmed", location: "DEL", date: &late}})

	e.SubmitFilters(FilterState{EndDate: *day("2025-01-31")})
	assert.Len(t, e.FilteredData(), 1)
}

func TestFilteredData_MissingDateFailsRange(t *testing.T) {
	e := NewEngine[testRow]()
	e.SetRows([]testRow{{name: "No Date", status: "Pending", location: "DEL"}})

	e.SubmitFilters(FilterState{StartDate: *day("2025-01-01")})
	assert.Empty(t, e.FilteredData())

	// Without a date predicate the row passes.
	e.ResetFilters()
	assert.Len(t, e.FilteredData(), 1)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	e := newTestEngine()

	e.SetSearch("sarah")
	got := e.FilteredData()
	assert.Len(t, got, 1)
	assert.Equal(t, "Sarah Davis", got[0].name)

	e.SetSearch("zzz")
	assert.Empty(t, e.FilteredData())
}

func TestSearch_CombinesWithFilters(t *testing.T) {
	e := newTestEngine()
	e.SubmitFilters(FilterState{Location: "BOM"})
	e.SetSearch("rao")

	got := e.FilteredData()
	assert.Len(t, got, 1)
	assert.Equal(t, "Anita Rao", got[0].name)
}

func TestPaginationResetOnPredicateChange(t *testing.T) {
	ops := map[string]func(e *Engine[testRow]){
		"SetSearch":     func(e *Engine[testRow]) { e.SetSearch("a") },
		"SubmitFilters": func(e *Engine[testRow]) { e.SubmitFilters(FilterState{Status: "Rented"}) },
		"ResetFilters":  func(e *Engine[testRow]) { e.ResetFilters() },
		"RemoveFilter":  func(e *Engine[testRow]) { e.RemoveFilter(KeyStatus) },
	}

	for name, op := range ops {
		e := newTestEngine()
		e.SetPageIndex(3)
		op(e)
		assert.Equal(t, 0, e.Page().PageIndex, "pagination must reset after %s", name)
	}
}

func TestPaginationSurvivesDataChange(t *testing.T) {
	e := newTestEngine()
	e.SetPageIndex(2)
	e.SetRows(sampleRows())
	assert.Equal(t, 2, e.Page().PageIndex)
}

func TestResetFiltersIdempotent(t *testing.T) {
	e := newTestEngine()
	e.SubmitFilters(FilterState{Status: "Rented", Location: "DEL"})
	e.SetSearch("priya")

	e.ResetFilters()
	once := e.FilteredData()
	stateOnce := e.Filters()

	e.ResetFilters()
	assert.Equal(t, stateOnce, e.Filters())
	assert.Equal(t, once, e.FilteredData())
	assert.Empty(t, e.Search())
	assert.False(t, e.HasActiveFilters())
}

func TestRemoveFilterLocality(t *testing.T) {
	e := newTestEngine()
	full := FilterState{
		StartDate: *day("2025-01-01"),
		EndDate:   *day("2025-03-31"),
		Status:    "Rented",
		Location:  "DEL",
	}
	e.SubmitFilters(full)

	e.RemoveFilter(KeyStatus)
	got := e.Filters()
	assert.Empty(t, got.Status)
	assert.Equal(t, full.StartDate, got.StartDate)
	assert.Equal(t, full.EndDate, got.EndDate)
	assert.Equal(t, full.Location, got.Location)
}

func TestDraftCommitDiscard(t *testing.T) {
	e := newTestEngine()

	draft := e.BeginEdit()
	draft.Status = "Rented"
	// Uncommitted edits do not affect the view.
	assert.Len(t, e.FilteredData(), 5)

	e.Commit()
	assert.Len(t, e.FilteredData(), 2)
	assert.Equal(t, 0, e.Page().PageIndex)

	draft = e.BeginEdit()
	draft.Location = "BOM"
	e.Discard()
	assert.Empty(t, e.Filters().Location)
}

func TestCurrentPageClamping(t *testing.T) {
	e := newTestEngine()
	e.SetPageSize(2)

	assert.Len(t, e.CurrentPage(), 2)
	e.SetPageIndex(2)
	assert.Len(t, e.CurrentPage(), 1)
	e.SetPageIndex(9)
	assert.Empty(t, e.CurrentPage())
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, *day("2025-01-05"), ParseDate("2025-01-05"))
	assert.True(t, ParseDate("not-a-date").IsZero())
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("  ").IsZero())
}

func TestMalformedDateDegradesToNoConstraint(t *testing.T) {
	e := newTestEngine()
	e.SubmitFilters(FilterState{StartDate: ParseDate("13/37/2025")})
	assert.Len(t, e.FilteredData(), 5)
	assert.False(t, e.HasActiveFilters())
}

func TestFilteredDataDoesNotMutateSource(t *testing.T) {
	rows := sampleRows()
	e := NewEngine[testRow]()
	e.SetRows(rows)
	e.SubmitFilters(FilterState{Status: "Confirmed"})
	_ = e.FilteredData()

	assert.Equal(t, sampleRows(), rows)
}
