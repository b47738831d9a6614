package table

import (
	"fmt"

	"github.com/brettboylen/reaction-tracker/models"
)

// Header is a column as shown in the table header
type Header struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Sortable bool      `json:"sortable"`
	Sorted   Direction `json:"sorted,omitempty"`
}

// Cell is one value of a row
type Cell struct {
	ColumnID string `json:"column"`
	Value    any    `json:"value"`
}

// Row is a reaction with its cells in column order
type Row struct {
	ID       string          `json:"id"`
	Reaction models.Reaction `json:"reaction"`
	Cells    []Cell          `json:"cells"`
}

// View is the ordered headers and sorted rows of a table
type View struct {
	Headers []Header `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Assemble projects columns into order and sorts rows by state.
// Neither rows nor columns are modified.
func Assemble(rows []models.Reaction, columns []Column, order ColumnOrder, state SortState) (View, error) {
	if err := ValidateOrder(columns, order); err != nil {
		return View{}, err
	}

	ordered := make([]Column, 0, len(order))
	for _, id := range order {
		column, _ := findColumn(columns, id)
		ordered = append(ordered, column)
	}

	sorted, err := SortRows(rows, columns, state)
	if err != nil {
		return View{}, fmt.Errorf("failed to sort rows: %w", err)
	}

	headers := make([]Header, 0, len(ordered))
	for _, c := range ordered {
		header := Header{ID: c.ID, Label: c.Label, Sortable: c.Sortable}
		if state.ColumnID == c.ID {
			header.Sorted = state.Direction
		}
		headers = append(headers, header)
	}

	viewRows := make([]Row, 0, len(sorted))
	for _, r := range sorted {
		cells := make([]Cell, 0, len(ordered))
		for _, c := range ordered {
			var value any
			if c.Accessor != nil {
				value = c.Accessor(r)
			}
			cells = append(cells, Cell{ColumnID: c.ID, Value: value})
		}
		viewRows = append(viewRows, Row{ID: r.ReactionID, Reaction: r, Cells: cells})
	}

	return View{Headers: headers, Rows: viewRows}, nil
}
