package todo

import (
	"sort"
	"time"
)

// Priority ranks an item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Filter selects a subset of items by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter converts a query value into a Filter. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterCompleted:
		return Filter(s), nil
	}
	return "", &ValidationError{Fields: map[string]string{"filter": "must be one of all, active, completed"}}
}

// Matches reports whether an item belongs to the filtered subset.
func (f Filter) Matches(item Item) bool {
	switch f {
	case FilterActive:
		return !item.Completed
	case FilterCompleted:
		return item.Completed
	default:
		return true
	}
}

// CompletedValue returns the completed predicate for the filter, nil for all.
func (f Filter) CompletedValue() *bool {
	var v bool
	switch f {
	case FilterActive:
		v = false
	case FilterCompleted:
		v = true
	default:
		return nil
	}
	return &v
}

// Item is a single to-do entry.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats summarises item counts.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

// Project returns the items matching f, newest first. The input is not modified.
func Project(items []Item, f Filter) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders items by CreatedAt descending, ties broken by ID for stability.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// Count computes a Stats summary from items.
func Count(items []Item) Stats {
	var s Stats
	for _, it := range items {
		s.Total++
		if it.Completed {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	return s
}
