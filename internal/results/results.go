// Package results extracts per-station analogue method results from the
// array files written by the optimizer.
package results

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/meteolab/analogtab/internal/calendar"
	"github.com/meteolab/analogtab/internal/metrics"
	"github.com/meteolab/analogtab/internal/models"
	"github.com/meteolab/analogtab/internal/ncdf"
)

var ErrInvalidPeriod = errors.New("period must be calibration or validation")

// Logical variables and the names they were stored under across producer
// versions. Earlier names are probed first.
var (
	varTargetDates = ncdf.Var{Name: "target_dates", Aliases: []string{"target_dates"}}
	varAnalogDates = ncdf.Var{Name: "analog_dates", Aliases: []string{"analog_dates"}}
	varCriteria    = ncdf.Var{Name: "analog_criteria", Aliases: []string{"analog_criteria", "analogs_criteria"}}

	varAnalogValuesNorm = ncdf.Var{Name: "analog_values_norm", Aliases: []string{"analog_values_norm"}}
	varAnalogValuesRaw  = ncdf.Var{Name: "analog_values_raw", Aliases: []string{"analog_values_raw", "analog_values_gross"}}
	varTargetValuesNorm = ncdf.Var{Name: "target_values_norm", Aliases: []string{"target_values_norm"}}
	varTargetValuesRaw  = ncdf.Var{Name: "target_values_raw", Aliases: []string{"target_values_raw", "target_values_gross"}}

	varScores = ncdf.Var{Name: "forecast_scores", Aliases: []string{"forecast_scores", "scores"}}

	varStationIDs    = ncdf.Var{Name: "station_ids", Aliases: []string{"station_ids"}}
	varStationX      = ncdf.Var{Name: "station_x_coords", Aliases: []string{"station_x_coords"}}
	varStationY      = ncdf.Var{Name: "station_y_coords", Aliases: []string{"station_y_coords"}}
	varStationHeight = ncdf.Var{Name: "station_heights", Aliases: []string{"station_heights"}}
	varReturnPeriods = ncdf.Var{Name: "daily_precipitations_for_return_periods", Aliases: []string{"daily_precipitations_for_return_periods"}}
)

// Index of the 10-year return period in the precipitation matrix, by file
// convention.
const p10Row = 4

// resultPath builds the per-station file path. Levels are 1-indexed for
// callers but 0-indexed in file names.
func resultPath(dir string, period models.Period, kind string, stationID, level int) (string, error) {
	switch period {
	case models.PeriodCalibration, models.PeriodValidation:
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidPeriod, period)
	}
	if level < 1 {
		return "", fmt.Errorf("level must be >= 1, got %d", level)
	}
	name := fmt.Sprintf("%s_id_%d_step_%d.nc", kind, stationID, level-1)
	return filepath.Join(dir, string(period), name), nil
}

// LoadAnalogDates reads the dates file for one station, period and level.
func LoadAnalogDates(dir string, stationID int, period models.Period, level int) (*models.AnalogDates, error) {
	path, err := resultPath(dir, period, "AnalogDates", stationID, level)
	if err != nil {
		return nil, err
	}
	return LoadAnalogDatesFile(path)
}

// LoadAnalogDatesFile is the direct-path variant of LoadAnalogDates.
func LoadAnalogDatesFile(path string) (*models.AnalogDates, error) {
	f, err := ncdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	metrics.ResultFilesRead.WithLabelValues("dates").Inc()

	out := &models.AnalogDates{}
	if out.TargetDates, err = f.Read1D(varTargetDates); err != nil {
		return nil, err
	}
	if out.AnalogDates, err = f.Read2D(varAnalogDates); err != nil {
		return nil, err
	}
	if out.Criteria, err = f.Read2D(varCriteria); err != nil {
		return nil, err
	}
	if out.TargetDatesCal, err = toCalendar(out.TargetDates); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out.AnalogDatesCal = make([][]time.Time, len(out.AnalogDates))
	for i, row := range out.AnalogDates {
		if out.AnalogDatesCal[i], err = toCalendar(row); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return out, nil
}

// LoadAnalogValues reads the values file for one station, period and level.
func LoadAnalogValues(dir string, stationID int, period models.Period, level int) (*models.AnalogValues, error) {
	path, err := resultPath(dir, period, "AnalogValues", stationID, level)
	if err != nil {
		return nil, err
	}
	return LoadAnalogValuesFile(path)
}

// LoadAnalogValuesFile is the direct-path variant of LoadAnalogValues.
func LoadAnalogValuesFile(path string) (*models.AnalogValues, error) {
	f, err := ncdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	metrics.ResultFilesRead.WithLabelValues("values").Inc()

	out := &models.AnalogValues{}
	if out.TargetDates, err = f.Read1D(varTargetDates); err != nil {
		return nil, err
	}
	if out.TargetValuesNorm, err = f.Read1D(varTargetValuesNorm); err != nil {
		return nil, err
	}
	if out.TargetValuesRaw, err = f.Read1D(varTargetValuesRaw); err != nil {
		return nil, err
	}
	if out.AnalogValuesNorm, err = f.Read2D(varAnalogValuesNorm); err != nil {
		return nil, err
	}
	if out.AnalogValuesRaw, err = f.Read2D(varAnalogValuesRaw); err != nil {
		return nil, err
	}
	if out.TargetDatesCal, err = toCalendar(out.TargetDates); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LoadScores reads the forecast scores for one station, period and level.
func LoadScores(dir string, stationID int, period models.Period, level int) (*models.Scores, error) {
	path, err := resultPath(dir, period, "Scores", stationID, level)
	if err != nil {
		return nil, err
	}
	f, err := ncdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	metrics.ResultFilesRead.WithLabelValues("scores").Inc()

	vals, err := f.Read1D(varScores)
	if err != nil {
		return nil, err
	}
	return &models.Scores{Values: vals}, nil
}

// LoadAnalogResults reads dates, values and scores for one station,
// period and level, and checks that the per-situation dimensions agree.
func LoadAnalogResults(dir string, stationID int, period models.Period, level int) (*models.AnalogResults, error) {
	dates, err := LoadAnalogDates(dir, stationID, period, level)
	if err != nil {
		return nil, err
	}
	values, err := LoadAnalogValues(dir, stationID, period, level)
	if err != nil {
		return nil, err
	}
	scores, err := LoadScores(dir, stationID, period, level)
	if err != nil {
		return nil, err
	}

	n := len(dates.TargetDates)
	for _, dim := range []struct {
		what string
		n    int
	}{
		{"analog dates", len(dates.AnalogDates)},
		{"criteria", len(dates.Criteria)},
		{"target values", len(values.TargetValuesNorm)},
		{"analog values", len(values.AnalogValuesNorm)},
		{"scores", len(scores.Values)},
	} {
		if dim.n != n {
			return nil, fmt.Errorf("station %d %s level %d: %s has %d situations, dates have %d",
				stationID, period, level, dim.what, dim.n, n)
		}
	}
	return &models.AnalogResults{
		StationID: stationID,
		Period:    period,
		Level:     level,
		Dates:     *dates,
		Values:    *values,
		Scores:    *scores,
	}, nil
}

// LoadStationTable reads the station metadata from the predictand database
// file.
func LoadStationTable(path string) ([]models.Station, error) {
	f, err := ncdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	metrics.ResultFilesRead.WithLabelValues("stations").Inc()

	ids, err := f.Read1D(varStationIDs)
	if err != nil {
		return nil, err
	}
	xs, err := f.Read1D(varStationX)
	if err != nil {
		return nil, err
	}
	ys, err := f.Read1D(varStationY)
	if err != nil {
		return nil, err
	}
	hs, err := f.Read1D(varStationHeight)
	if err != nil {
		return nil, err
	}
	// Stored with return periods as rows; after the transposed read each
	// row is a station and column p10Row is the 10-year return period.
	precip, err := f.Read2D(varReturnPeriods)
	if err != nil {
		return nil, err
	}

	n := len(ids)
	if len(xs) != n || len(ys) != n || len(hs) != n || len(precip) != n {
		return nil, fmt.Errorf("%s: station variables have inconsistent lengths", path)
	}
	stations := make([]models.Station, n)
	for i := range stations {
		if len(precip[i]) <= p10Row {
			return nil, fmt.Errorf("%s: return period matrix has no row %d", path, p10Row)
		}
		stations[i] = models.Station{
			ID:     int(ids[i]),
			X:      xs[i],
			Y:      ys[i],
			Height: hs[i],
			P10:    precip[i][p10Row],
		}
	}
	return stations, nil
}

func toCalendar(days []float64) ([]time.Time, error) {
	out := make([]time.Time, len(days))
	for i, d := range days {
		t, err := calendar.FromDayNumber(d)
		if err != nil {
			return nil, fmt.Errorf("day number %v: %w", d, err)
		}
		out[i] = t
	}
	return out, nil
}
