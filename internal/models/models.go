package models

import "time"

// Period selects which partition of the optimization run a result file
// belongs to.
type Period string

const (
	PeriodCalibration Period = "calibration"
	PeriodValidation  Period = "validation"
)

// Station is one monitoring site from the predictand database. Rows are
// immutable after loading; aggregated parameter columns live in the wide
// table, not here.
type Station struct {
	ID     int
	X      float64
	Y      float64
	Height float64
	P10    float64 // daily precipitation for the 10-year return period
}

// AnalogDates holds the analogue dates extracted for one station, period
// and analogy level. All per-situation slices share the same length and
// chronological ordering.
type AnalogDates struct {
	TargetDates    []float64
	TargetDatesCal []time.Time
	AnalogDates    [][]float64 // row = target situation, column = analogue rank
	AnalogDatesCal [][]time.Time
	Criteria       [][]float64
}

// AnalogValues holds the predictand values aligned with the analogue dates.
type AnalogValues struct {
	TargetDates      []float64
	TargetDatesCal   []time.Time
	TargetValuesNorm []float64
	TargetValuesRaw  []float64
	AnalogValuesNorm [][]float64
	AnalogValuesRaw  [][]float64
}

// Scores holds the per-situation forecast scores.
type Scores struct {
	Values []float64
}

// AnalogResults bundles dates, values and scores for one extraction call.
type AnalogResults struct {
	StationID int
	Period    Period
	Level     int
	Dates     AnalogDates
	Values    AnalogValues
	Scores    Scores
}
