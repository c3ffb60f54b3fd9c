package tcmb

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// Table holds the observations of one Read call. Rows are observation dates
// in the order the service returned them; columns are series. Missing
// observations are NaN.
type Table struct {
	Dates    []time.Time
	Columns  []string
	Metadata map[string][]SeriesInfo // keyed by series code, set by WithMetadata

	values [][]float64 // values[column][row]
	index  map[string]int
}

// Series is a single column of a Table.
type Series struct {
	Name       string
	Timestamps []time.Time
	Values     []float64
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// DropMissing returns a copy without the NaN observations.
func (s *Series) DropMissing() *Series {
	out := &Series{Name: s.Name}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		out.Values = append(out.Values, v)
	}
	return out
}

// Last returns the most recent non-missing observation.
func (s *Series) Last() (time.Time, float64, bool) {
	for i := len(s.Values) - 1; i >= 0; i-- {
		if !math.IsNaN(s.Values[i]) {
			return s.Timestamps[i], s.Values[i], true
		}
	}
	return time.Time{}, math.NaN(), false
}

func newTable(columns []string) *Table {
	t := &Table{
		Columns: columns,
		values:  make([][]float64, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// appendRow adds a row. values must hold one entry per column.
func (t *Table) appendRow(date time.Time, values []float64) {
	t.Dates = append(t.Dates, date)
	for i, v := range values {
		t.values[i] = append(t.values[i], v)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Dates)
}

// Column returns the values of a column. name is either the column name
// (TP_DK_USD_S_YTL) or the series code (TP.DK.USD.S.YTL). A series code also
// finds its formula column (TP_DK_USD_S_YTL-1) when that is the only column
// for the series.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.lookup(name)
	if !ok {
		return nil, false
	}
	return append([]float64(nil), t.values[i]...), true
}

// Series returns a column paired with the observation dates.
func (t *Table) Series(name string) (*Series, bool) {
	i, ok := t.lookup(name)
	if !ok {
		return nil, false
	}
	return &Series{
		Name:       t.Columns[i],
		Timestamps: append([]time.Time(nil), t.Dates...),
		Values:     append([]float64(nil), t.values[i]...),
	}, true
}

// Value returns the observation at row for the named column.
func (t *Table) Value(row int, name string) (float64, bool) {
	i, ok := t.lookup(name)
	if !ok || row < 0 || row >= len(t.Dates) {
		return math.NaN(), false
	}
	return t.values[i][row], true
}

func (t *Table) lookup(name string) (int, bool) {
	if i, ok := t.index[name]; ok {
		return i, true
	}
	want := ColumnName(name)
	if i, ok := t.index[want]; ok {
		return i, true
	}

	// A series read with a formula comes back as TP_DK_USD_S_YTL-1. Accept the
	// bare code when exactly one such column exists.
	found := -1
	for i, c := range t.Columns {
		if baseColumn(c) != want {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}
	return found, found >= 0
}

// WriteCSV writes the table with a header row. Dates use the layout
// YYYY-MM-DD; missing values are empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, t.Columns...)); err != nil {
		return err
	}
	record := make([]string, len(t.Columns)+1)
	for row, d := range t.Dates {
		record[0] = d.Format("2006-01-02")
		for i := range t.Columns {
			v := t.values[i][row]
			if math.IsNaN(v) {
				record[i+1] = ""
			} else {
				record[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
