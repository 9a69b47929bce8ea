package traffic

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Table is a headerless test dataset split into its label column (the first)
// and its feature rows.
type Table struct {
	Labels []string
	Rows   [][]float64
}

// ParseTable reads a headerless CSV whose first column is the label.
func ParseTable(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}

	t := &Table{
		Labels: make([]string, 0, len(records)),
		Rows:   make([][]float64, 0, len(records)),
	}
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: expected a label and at least one feature, got %d columns", i+1, len(rec))
		}
		row := make([]float64, len(rec)-1)
		for j, v := range rec[1:] {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+2, err)
			}
			row[j] = f
		}
		t.Labels = append(t.Labels, strings.TrimSpace(rec[0]))
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Label returns the label of the row at 1-based index.
func (t *Table) Label(index int) (string, bool) {
	if index < 1 || index > len(t.Labels) {
		return "", false
	}
	return t.Labels[index-1], true
}
