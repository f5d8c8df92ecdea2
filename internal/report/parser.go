// Package report parses the "best parameters" text files written by the
// optimizer, one file per station, dataset and method.
//
// The files are flat whitespace-separated token streams: a header line,
// then rows of keyword/value pairs. The spatial-window block repeats once
// per analogy level, and keyword spellings changed across producer
// versions, so every keyword carries an alias list and levels are counted
// purely by order of occurrence.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed indicates a report missing required tokens or with an
// inconsistent repeated-block layout.
var ErrMalformed = errors.New("malformed parameters report")

// Value is one extracted cell: a field name and the 1-based analogy level
// it was found at. Level 0 marks per-report scalars (calib, valid).
type Value struct {
	Field string
	Level int
	Val   float64
}

// Report is the decoded content of one parameters file.
type Report struct {
	StationID int
	Calib     float64
	Valid     float64
	Values    []Value
}

// scalarField describes a keyword whose value sits at a fixed token
// offset. Every occurrence in document order opens a new analogy level.
type scalarField struct {
	name    string
	aliases []string
}

// pointField describes a point-count keyword. Each occurrence yields the
// raw count and a derived window half-width (count-1)*step, where the
// step value sits three tokens after the count keyword. The token in
// between must be the matching step keyword; anything else means the row
// layout is not the one the producer writes.
type pointField struct {
	name        string
	widthName   string
	aliases     []string
	stepAliases []string
}

var scalarFields = []scalarField{
	{"anb", []string{"Anb", "anb"}},
	{"xmin", []string{"Xmin", "xMin"}},
	{"ymin", []string{"Ymin", "yMin"}},
	{"xstep", []string{"Xstep", "xStep"}},
	{"ystep", []string{"Ystep", "yStep"}},
}

var pointFields = []pointField{
	{"xpts", "xw", []string{"Xptsnb", "xPtsNb"}, []string{"Xstep", "xStep"}},
	{"ypts", "yw", []string{"Yptsnb", "yPtsNb"}, []string{"Ystep", "yStep"}},
}

// Parse decodes the raw text of one report file.
func Parse(text string) (*Report, error) {
	toks := tokenize(text)
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}

	r := &Report{}

	id, err := stationID(toks)
	if err != nil {
		return nil, err
	}
	r.StationID = id

	for _, f := range scalarFields {
		vals, err := extractAll(toks, f.aliases, 1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		for i, v := range vals {
			r.Values = append(r.Values, Value{Field: f.name, Level: i + 1, Val: v})
		}
	}

	for _, f := range pointFields {
		if err := extractPoints(toks, f, r); err != nil {
			return nil, err
		}
	}

	if err := extractScores(toks, r); err != nil {
		return nil, err
	}
	r.Values = append(r.Values,
		Value{Field: "calib", Val: r.Calib},
		Value{Field: "valid", Val: r.Valid},
	)
	return r, nil
}

// tokenize drops the header line and splits the rest on whitespace.
func tokenize(text string) []string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		return nil
	}
	return strings.Fields(text)
}

func stationID(toks []string) (int, error) {
	i := indexFrom(toks, 0, "Station")
	if i < 0 {
		return 0, fmt.Errorf("%w: no Station token", ErrMalformed)
	}
	if i+1 >= len(toks) {
		return 0, fmt.Errorf("%w: Station token has no value", ErrMalformed)
	}
	id, err := strconv.Atoi(toks[i+1])
	if err != nil {
		return 0, fmt.Errorf("%w: station id %q is not an integer", ErrMalformed, toks[i+1])
	}
	return id, nil
}

// extractAll collects the value at the given offset after every occurrence
// of any alias, in document order.
func extractAll(toks []string, aliases []string, offset int) ([]float64, error) {
	var vals []float64
	for i := 0; i < len(toks); i++ {
		if !matches(toks[i], aliases) {
			continue
		}
		if i+offset >= len(toks) {
			return nil, fmt.Errorf("%w: %s has no value", ErrMalformed, toks[i])
		}
		v, err := strconv.ParseFloat(toks[i+offset], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q is not numeric", ErrMalformed, toks[i], toks[i+offset])
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func extractPoints(toks []string, f pointField, r *Report) error {
	level := 0
	for i := 0; i < len(toks); i++ {
		if !matches(toks[i], f.aliases) {
			continue
		}
		level++
		if i+3 >= len(toks) {
			return fmt.Errorf("%w: %s at level %d has no matching step", ErrMalformed, toks[i], level)
		}
		pts, err := strconv.ParseFloat(toks[i+1], 64)
		if err != nil {
			return fmt.Errorf("%w: %s value %q is not numeric", ErrMalformed, toks[i], toks[i+1])
		}
		// The producer writes "<Ptsnb> <n> <Step> <s>" on one row; a
		// different token here means counts and steps are mismatched.
		if !matches(toks[i+2], f.stepAliases) {
			return fmt.Errorf("%w: %s at level %d not followed by a step keyword (got %q)",
				ErrMalformed, toks[i], level, toks[i+2])
		}
		step, err := strconv.ParseFloat(toks[i+3], 64)
		if err != nil {
			return fmt.Errorf("%w: step value %q is not numeric", ErrMalformed, toks[i+3])
		}
		r.Values = append(r.Values,
			Value{Field: f.name, Level: level, Val: pts},
			Value{Field: f.widthName, Level: level, Val: (pts - 1) * step},
		)
	}
	return nil
}

func extractScores(toks []string, r *Report) error {
	i := indexFrom(toks, 0, "Calib")
	if i < 0 {
		return fmt.Errorf("%w: no Calib token", ErrMalformed)
	}
	if j := indexFrom(toks, i+1, "Calib"); j >= 0 {
		return fmt.Errorf("%w: Calib token appears more than once", ErrMalformed)
	}
	if i+3 >= len(toks) {
		return fmt.Errorf("%w: Calib token has no score values", ErrMalformed)
	}
	calib, err := strconv.ParseFloat(toks[i+1], 64)
	if err != nil {
		return fmt.Errorf("%w: calibration score %q is not numeric", ErrMalformed, toks[i+1])
	}
	valid, err := strconv.ParseFloat(toks[i+3], 64)
	if err != nil {
		return fmt.Errorf("%w: validation score %q is not numeric", ErrMalformed, toks[i+3])
	}
	r.Calib, r.Valid = calib, valid
	return nil
}

func matches(tok string, aliases []string) bool {
	for _, a := range aliases {
		if tok == a {
			return true
		}
	}
	return false
}

func indexFrom(toks []string, start int, want string) int {
	for i := start; i < len(toks); i++ {
		if toks[i] == want {
			return i
		}
	}
	return -1
}
