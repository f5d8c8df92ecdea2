// Package store persists the aggregated wide table in SQLite: station
// base rows plus one long-form row per populated parameter cell.
package store

import (
	"database/sql"
	"fmt"

	"github.com/meteolab/analogtab/internal/models"
	"github.com/meteolab/analogtab/internal/table"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveTable upserts every station row and every populated cell. Cell
// insertion order follows the table's column discovery order, which is
// how LoadTable reconstructs it.
func (s *Store) SaveTable(t *table.WideTable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range t.Stations() {
		_, err := tx.Exec(`
			INSERT INTO stations (station_id, x, y, height, p10)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(station_id) DO UPDATE SET
				x = excluded.x,
				y = excluded.y,
				height = excluded.height,
				p10 = excluded.p10
		`, st.ID, st.X, st.Y, st.Height, st.P10)
		if err != nil {
			return fmt.Errorf("upsert station %d: %w", st.ID, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO parameter_cells (station_id, dataset, method, field, level, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, dataset, method, field, level) DO UPDATE SET
			value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var cellErr error
	t.Cells(func(stationID int, key table.ColumnKey, val float64) {
		if cellErr != nil {
			return
		}
		if _, err := stmt.Exec(stationID, key.Dataset, key.Method, key.Field, key.Level, val); err != nil {
			cellErr = fmt.Errorf("upsert cell %s station %d: %w", key.Name(), stationID, err)
		}
	})
	if cellErr != nil {
		return cellErr
	}
	return tx.Commit()
}

// LoadTable rebuilds the wide table from a previous SaveTable. Column
// discovery order is replayed from cell insertion order.
func (s *Store) LoadTable() (*table.WideTable, error) {
	rows, err := s.db.Query(`SELECT station_id, x, y, height, p10 FROM stations ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.X, &st.Y, &st.Height, &st.P10); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tbl, err := table.Seed(stations)
	if err != nil {
		return nil, err
	}

	cells, err := s.db.Query(`
		SELECT station_id, dataset, method, field, level, value
		FROM parameter_cells ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer cells.Close()

	for cells.Next() {
		var (
			stationID int
			key       table.ColumnKey
			val       float64
		)
		if err := cells.Scan(&stationID, &key.Dataset, &key.Method, &key.Field, &key.Level, &val); err != nil {
			return nil, err
		}
		if err := tbl.Set(stationID, key, val); err != nil {
			return nil, err
		}
	}
	return tbl, cells.Err()
}
