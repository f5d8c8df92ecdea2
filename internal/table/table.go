// Package table assembles parsed parameter reports into one wide table,
// one row per station, growing columns as new dataset/method/field
// combinations appear.
package table

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/meteolab/analogtab/internal/models"
	"github.com/meteolab/analogtab/internal/report"
)

var (
	ErrDuplicateStation = errors.New("duplicate station id in metadata")
	ErrUnknownStation   = errors.New("report references unknown station id")
)

// ColumnKey identifies one dynamic column. Level 0 is used for per-report
// scalars (calib, valid), which carry no analogy level suffix.
type ColumnKey struct {
	Dataset string
	Method  string
	Field   string
	Level   int
}

// Name renders the key in the legacy column naming scheme,
// e.g. "JRA-55_4Z_anb_1" or "JRA-55_4Z_calib".
func (k ColumnKey) Name() string {
	name := k.Dataset + "_" + k.Method + "_" + k.Field
	if k.Level > 0 {
		name += "_" + strconv.Itoa(k.Level)
	}
	return name
}

type column struct {
	key   ColumnKey
	cells []sql.NullFloat64 // indexed by station row
}

// WideTable is the aggregate product: station base columns plus the union
// of every dynamic column seen across all merged reports. Columns keep
// their discovery order.
type WideTable struct {
	stations []models.Station
	rowByID  map[int]int
	colByKey map[ColumnKey]int
	columns  []*column
}

// Seed builds a table with one row per station and no dynamic columns.
// Station ids must be unique.
func Seed(stations []models.Station) (*WideTable, error) {
	t := &WideTable{
		stations: make([]models.Station, len(stations)),
		rowByID:  make(map[int]int, len(stations)),
		colByKey: make(map[ColumnKey]int),
	}
	copy(t.stations, stations)
	for i, s := range t.stations {
		if _, ok := t.rowByID[s.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateStation, s.ID)
		}
		t.rowByID[s.ID] = i
	}
	return t, nil
}

// Merge writes every field of a parsed report into the row matching its
// station id, creating columns on demand. Re-merging the same report
// overwrites the same cells and is a no-op in effect.
func (t *WideTable) Merge(dataset, method string, r *report.Report) error {
	row, ok := t.rowByID[r.StationID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStation, r.StationID)
	}
	for _, v := range r.Values {
		key := ColumnKey{Dataset: dataset, Method: method, Field: v.Field, Level: v.Level}
		t.ensure(key).cells[row] = sql.NullFloat64{Float64: v.Val, Valid: true}
	}
	return nil
}

func (t *WideTable) ensure(key ColumnKey) *column {
	if i, ok := t.colByKey[key]; ok {
		return t.columns[i]
	}
	c := &column{key: key, cells: make([]sql.NullFloat64, len(t.stations))}
	t.colByKey[key] = len(t.columns)
	t.columns = append(t.columns, c)
	return c
}

// Set writes a single cell. Used when reloading a persisted table.
func (t *WideTable) Set(stationID int, key ColumnKey, val float64) error {
	row, ok := t.rowByID[stationID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStation, stationID)
	}
	t.ensure(key).cells[row] = sql.NullFloat64{Float64: val, Valid: true}
	return nil
}

// Value returns the cell for a station and column key; ok is false when
// the column exists but the station has no value, or the column does not
// exist at all.
func (t *WideTable) Value(stationID int, key ColumnKey) (float64, bool) {
	row, ok := t.rowByID[stationID]
	if !ok {
		return 0, false
	}
	i, ok := t.colByKey[key]
	if !ok {
		return 0, false
	}
	cell := t.columns[i].cells[row]
	return cell.Float64, cell.Valid
}

// HasColumn reports whether a dynamic column has been created.
func (t *WideTable) HasColumn(key ColumnKey) bool {
	_, ok := t.colByKey[key]
	return ok
}

// Columns returns the dynamic column keys in discovery order.
func (t *WideTable) Columns() []ColumnKey {
	keys := make([]ColumnKey, len(t.columns))
	for i, c := range t.columns {
		keys[i] = c.key
	}
	return keys
}

// Stations returns the base rows in seed order.
func (t *WideTable) Stations() []models.Station {
	out := make([]models.Station, len(t.stations))
	copy(out, t.stations)
	return out
}

// Cells iterates every populated dynamic cell in column discovery order.
func (t *WideTable) Cells(fn func(stationID int, key ColumnKey, val float64)) {
	for _, c := range t.columns {
		for row, cell := range c.cells {
			if cell.Valid {
				fn(t.stations[row].ID, c.key, cell.Float64)
			}
		}
	}
}

// WriteCSV writes the full table, base columns first then dynamic columns
// in discovery order. Missing cells are left empty.
func (t *WideTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "x", "y", "h", "p10"}
	for _, c := range t.columns {
		header = append(header, c.key.Name())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for row, s := range t.stations {
		rec := []string{
			strconv.Itoa(s.ID),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Height),
			formatFloat(s.P10),
		}
		for _, c := range t.columns {
			cell := c.cells[row]
			if cell.Valid {
				rec = append(rec, formatFloat(cell.Float64))
			} else {
				rec = append(rec, "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
