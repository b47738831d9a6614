package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brettboylen/reaction-tracker/models"
)

// Direction is the direction of an active sort
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortState is the single active sort of a table. The zero value is unsorted.
type SortState struct {
	ColumnID  string    `json:"column,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Sorted reports whether a column is active
func (s SortState) Sorted() bool {
	return s.ColumnID != ""
}

// Toggle returns the sort state that follows activating columnID.
//
// Activating the sorted column cycles ascending, descending, unsorted;
// activating any other column starts over at ascending for that column.
func Toggle(columnID string, current SortState) SortState {
	if current.ColumnID != columnID {
		return SortState{ColumnID: columnID, Direction: Ascending}
	}

	switch current.Direction {
	case Ascending:
		return SortState{ColumnID: columnID, Direction: Descending}
	case Descending:
		return SortState{}
	default:
		return SortState{ColumnID: columnID, Direction: Ascending}
	}
}

// ParseDirection parses "asc" or "desc"
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// SortRows returns a stably sorted copy of rows.
// An unsorted state returns the rows in their original order.
func SortRows(rows []models.Reaction, columns []Column, state SortState) ([]models.Reaction, error) {
	sorted := slices.Clone(rows)
	if sorted == nil {
		sorted = []models.Reaction{}
	}
	if !state.Sorted() {
		return sorted, nil
	}

	column, err := findColumn(columns, state.ColumnID)
	if err != nil {
		return nil, err
	}
	if !column.Sortable || column.Accessor == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotSortable, column.ID)
	}

	slices.SortStableFunc(sorted, func(a, b models.Reaction) int {
		c := compareValues(column.Accessor(a), column.Accessor(b))
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return sorted, nil
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBools(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
