package model

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// SortField selects the column a list query is ordered by.
type SortField string

// Sortable columns.
const (
	SortBySubmissionDate SortField = "submission_date"
	SortByBudget         SortField = "budget"
	SortByTitle          SortField = "title"
	SortByOrganization   SortField = "organization_name"
)

// SortDirection is the ordering direction for the active sort field.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortState holds the single active sort column and its direction.
type SortState struct {
	Field     SortField     `json:"sort_field"`
	Direction SortDirection `json:"sort_direction"`
}

// MinBudgetGap is the smallest allowed distance between the two budget
// bounds when both are set.
const MinBudgetGap = 1000.0

// FilterState holds the active list filters. Zero values mean "no filter".
type FilterState struct {
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	BudgetMin  *float64   `json:"budget_min,omitempty"`
	BudgetMax  *float64   `json:"budget_max,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	States     []string   `json:"states,omitempty"`
	Status     []string   `json:"status,omitempty"`
}

// Validate checks the filter invariants: budget bounds ordered and at least
// MinBudgetGap apart, date range ordered.
func (f *FilterState) Validate() error {
	if f.BudgetMin != nil && f.BudgetMax != nil {
		if *f.BudgetMin > *f.BudgetMax {
			return fmt.Errorf("budget_min %.2f exceeds budget_max %.2f", *f.BudgetMin, *f.BudgetMax)
		}
		if *f.BudgetMax-*f.BudgetMin < MinBudgetGap {
			return fmt.Errorf("budget range narrower than minimum gap of %.0f", MinBudgetGap)
		}
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return fmt.Errorf("date_from is after date_to")
	}
	return nil
}

// QueryParams is the full parameter object for a list query.
type QueryParams struct {
	Filters FilterState
	Sort    SortState
	Offset  int
	Limit   int
	Saved   bool
}

// DefaultLimit is the page size used when none is specified.
const DefaultLimit = 20

// DefaultQueryParams returns the fixed default parameter set: no filters,
// submission date descending, unsaved scope, first page.
func DefaultQueryParams() QueryParams {
	return QueryParams{
		Sort: SortState{
			Field:     SortBySubmissionDate,
			Direction: SortDesc,
		},
		Offset: 0,
		Limit:  DefaultLimit,
		Saved:  false,
	}
}

// Validate checks the whole parameter object.
func (p *QueryParams) Validate() error {
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	return p.Filters.Validate()
}

// Values encodes the parameters as URL query values for the list endpoint.
func (p *QueryParams) Values() url.Values {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(p.Offset))
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("sort_field", string(p.Sort.Field))
	v.Set("sort_direction", string(p.Sort.Direction))
	v.Set("is_saved", strconv.FormatBool(p.Saved))

	for _, c := range p.Filters.Categories {
		v.Add("categories[]", c)
	}
	for _, s := range p.Filters.States {
		v.Add("states[]", s)
	}
	for _, s := range p.Filters.Status {
		v.Add("status[]", s)
	}
	if p.Filters.DateFrom != nil {
		v.Set("date_from", p.Filters.DateFrom.Format("2006-01-02"))
	}
	if p.Filters.DateTo != nil {
		v.Set("date_to", p.Filters.DateTo.Format("2006-01-02"))
	}
	if p.Filters.BudgetMin != nil {
		v.Set("budget_min", strconv.FormatFloat(*p.Filters.BudgetMin, 'f', -1, 64))
	}
	if p.Filters.BudgetMax != nil {
		v.Set("budget_max", strconv.FormatFloat(*p.Filters.BudgetMax, 'f', -1, 64))
	}
	return v
}

// ParamUpdate is a partial change merged into current query parameters.
// Nil fields leave the current value untouched.
type ParamUpdate struct {
	Filters *FilterState
	Sort    *SortState
	Limit   *int
	Saved   *bool
}

// Apply merges the update into a copy of p. The offset is always forced
// back to zero: any parameter change restarts pagination from page one.
func (u ParamUpdate) Apply(p QueryParams) QueryParams {
	next := p
	if u.Filters != nil {
		next.Filters = *u.Filters
	}
	if u.Sort != nil {
		next.Sort = *u.Sort
	}
	if u.Limit != nil {
		next.Limit = *u.Limit
	}
	if u.Saved != nil {
		next.Saved = *u.Saved
	}
	next.Offset = 0
	return next
}
