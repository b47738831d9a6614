package table

import (
	"fmt"
	"slices"
)

// ColumnOrder is the left-to-right arrangement of column ids
type ColumnOrder []string

// InitialOrder returns the declaration order of columns
func InitialOrder(columns []Column) ColumnOrder {
	order := make(ColumnOrder, 0, len(columns))
	for _, c := range columns {
		order = append(order, c.ID)
	}
	return order
}

// ValidateOrder checks that order holds every column id exactly once
func ValidateOrder(columns []Column, order ColumnOrder) error {
	if len(order) != len(columns) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrInvalidOrder, len(order), len(columns))
	}

	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, err := findColumn(columns, id); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidOrder, id)
		}
		seen[id] = true
	}
	return nil
}

// Reorder moves the dragged column next to the target column and returns the new order.
//
// A column dragged rightward lands immediately after the target; a column
// dragged leftward lands immediately before it. All other columns keep their
// relative order. Dropping a column on itself returns an unchanged copy.
// The input order is never modified.
func Reorder(draggedID, targetID string, order ColumnOrder) (ColumnOrder, error) {
	from := slices.Index(order, draggedID)
	if from < 0 {
		return nil, fmt.Errorf("%w: dragged column %q", ErrUnknownColumn, draggedID)
	}
	to := slices.Index(order, targetID)
	if to < 0 {
		return nil, fmt.Errorf("%w: target column %q", ErrUnknownColumn, targetID)
	}

	if from == to {
		return slices.Clone(order), nil
	}

	next := make(ColumnOrder, 0, len(order))
	for _, id := range order {
		if id == draggedID {
			continue
		}
		if id == targetID && from > to {
			next = append(next, draggedID)
		}
		next = append(next, id)
		if id == targetID && from < to {
			next = append(next, draggedID)
		}
	}
	return next, nil
}
