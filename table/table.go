package table

import (
	"fmt"
	"slices"

	"github.com/brettboylen/reaction-tracker/models"
)

// DefaultSort is the sort applied to a new table
var DefaultSort = SortState{ColumnID: "createdAt", Direction: Descending}

// State is the view state of one table instance. Transitions return a new
// State and leave the receiver untouched, so separate tables never share
// column order or sort state.
type State struct {
	columns []Column
	order   ColumnOrder
	sorting SortState
}

// New creates the state of a table with columns in declaration order
func New(columns []Column) State {
	s := State{
		columns: slices.Clone(columns),
		order:   InitialOrder(columns),
	}
	if _, err := findColumn(columns, DefaultSort.ColumnID); err == nil {
		s.sorting = DefaultSort
	}
	return s
}

// Restore rebuilds a state from a previously exported order and sort.
// An empty order falls back to declaration order.
func Restore(columns []Column, order ColumnOrder, sorting SortState) (State, error) {
	s := New(columns)
	if len(order) > 0 {
		if err := ValidateOrder(columns, order); err != nil {
			return State{}, err
		}
		s.order = slices.Clone(order)
	}
	if sorting.Sorted() {
		if err := s.checkSortable(sorting.ColumnID); err != nil {
			return State{}, err
		}
		if sorting.Direction != Ascending && sorting.Direction != Descending {
			return State{}, fmt.Errorf("invalid sort direction %q", sorting.Direction)
		}
	}
	s.sorting = sorting
	return s, nil
}

// Order returns a copy of the current column order
func (s State) Order() ColumnOrder {
	return slices.Clone(s.order)
}

// Sorting returns the current sort state
func (s State) Sorting() SortState {
	return s.sorting
}

// ToggleSort returns the state after the column header was activated
func (s State) ToggleSort(columnID string) (State, error) {
	if err := s.checkSortable(columnID); err != nil {
		return State{}, err
	}
	next := s
	next.order = slices.Clone(s.order)
	next.sorting = Toggle(columnID, s.sorting)
	return next, nil
}

// MoveColumn returns the state after draggedID was dropped on targetID
func (s State) MoveColumn(draggedID, targetID string) (State, error) {
	order, err := Reorder(draggedID, targetID, s.order)
	if err != nil {
		return State{}, err
	}
	next := s
	next.order = order
	return next, nil
}

// View assembles the table for rows
func (s State) View(rows []models.Reaction) (View, error) {
	return Assemble(rows, s.columns, s.order, s.sorting)
}

func (s State) checkSortable(columnID string) error {
	column, err := findColumn(s.columns, columnID)
	if err != nil {
		return err
	}
	if !column.Sortable {
		return fmt.Errorf("%w: %q", ErrNotSortable, columnID)
	}
	return nil
}
