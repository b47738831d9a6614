// Package table tracks the column order and sort state of the reactions table
// and assembles the ordered headers and sorted rows a renderer needs.
package table

import (
	"errors"
	"fmt"

	"github.com/brettboylen/reaction-tracker/models"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotSortable   = errors.New("column is not sortable")
	ErrInvalidOrder  = errors.New("invalid column order")
)

// Column describes one table column.
// Accessor returns the value used for sorting; supported value types are
// string, int, int64, float64, bool and time.Time.
type Column struct {
	ID       string
	Label    string
	Sortable bool
	Accessor func(models.Reaction) any
}

// DefaultColumns returns the columns of the reactions table in declaration order
func DefaultColumns() []Column {
	return []Column{
		{
			ID:       "video",
			Label:    "Video",
			Sortable: true,
			Accessor: func(r models.Reaction) any { return r.ReactionTo.Title },
		},
		{
			ID:       "reaction",
			Label:    "Reaction",
			Sortable: true,
			Accessor: func(r models.Reaction) any { return r.Reaction.Title },
		},
		{
			ID:       "reportCount",
			Label:    "Reports",
			Sortable: true,
			Accessor: func(r models.Reaction) any { return r.ReportCount },
		},
		{
			ID:       "createdAt",
			Label:    "Created At",
			Sortable: true,
			Accessor: func(r models.Reaction) any { return r.CreatedAt },
		},
	}
}

func findColumn(columns []Column, id string) (Column, error) {
	for _, c := range columns {
		if c.ID == id {
			return c, nil
		}
	}
	return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
}
