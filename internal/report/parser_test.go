package report

import (
	"errors"
	"strings"
	"testing"
)

const sampleReport = `Optimizer results, run 2011-04-12
Station 1
Anb 10
Xmin 100 Xptsnb 3 Xstep 1.5
Ymin 200 Yptsnb 3 Ystep 1.5
Calib 0.8 Valid 0.6
`

const twoLevelReport = `Optimizer results
Station 42
Anb 25
xMin -5.0 xPtsNb 5 xStep 2.0
yMin 40.0 yPtsNb 3 yStep 2.0
Anb 60
xMin -2.5 xPtsNb 9 xStep 0.5
yMin 42.5 yPtsNb 7 yStep 0.5
Calib 0.912 Valid 0.874
`

func value(t *testing.T, r *Report, field string, level int) float64 {
	t.Helper()
	for _, v := range r.Values {
		if v.Field == field && v.Level == level {
			return v.Val
		}
	}
	t.Fatalf("no value for %s level %d", field, level)
	return 0
}

func TestParseSingleLevel(t *testing.T) {
	r, err := Parse(sampleReport)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.StationID != 1 {
		t.Errorf("StationID = %d, want 1", r.StationID)
	}
	if r.Calib != 0.8 || r.Valid != 0.6 {
		t.Errorf("scores = %v/%v, want 0.8/0.6", r.Calib, r.Valid)
	}
	checks := []struct {
		field string
		level int
		want  float64
	}{
		{"anb", 1, 10},
		{"xmin", 1, 100},
		{"ymin", 1, 200},
		{"xstep", 1, 1.5},
		{"ystep", 1, 1.5},
		{"xpts", 1, 3},
		{"ypts", 1, 3},
		{"xw", 1, 3.0}, // (3-1)*1.5
		{"yw", 1, 3.0},
		{"calib", 0, 0.8},
		{"valid", 0, 0.6},
	}
	for _, c := range checks {
		if got := value(t, r, c.field, c.level); got != c.want {
			t.Errorf("%s_%d = %v, want %v", c.field, c.level, got, c.want)
		}
	}
}

func TestParseDiscoversLevelsPositionally(t *testing.T) {
	r, err := Parse(twoLevelReport)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.StationID != 42 {
		t.Errorf("StationID = %d, want 42", r.StationID)
	}
	if got := value(t, r, "anb", 1); got != 25 {
		t.Errorf("anb_1 = %v, want 25", got)
	}
	if got := value(t, r, "anb", 2); got != 60 {
		t.Errorf("anb_2 = %v, want 60", got)
	}
	if got := value(t, r, "xw", 1); got != 8.0 { // (5-1)*2.0
		t.Errorf("xw_1 = %v, want 8", got)
	}
	if got := value(t, r, "xw", 2); got != 4.0 { // (9-1)*0.5
		t.Errorf("xw_2 = %v, want 4", got)
	}
	for _, v := range r.Values {
		if v.Level > 2 {
			t.Errorf("unexpected level %d for field %s", v.Level, v.Field)
		}
	}
}

func TestParseAcceptsBothSpellings(t *testing.T) {
	legacy := strings.ReplaceAll(twoLevelReport, "xMin", "Xmin")
	legacy = strings.ReplaceAll(legacy, "xPtsNb", "Xptsnb")
	legacy = strings.ReplaceAll(legacy, "xStep", "Xstep")
	r, err := Parse(legacy)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := value(t, r, "xmin", 2); got != -2.5 {
		t.Errorf("xmin_2 = %v, want -2.5", got)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"header only", "Optimizer results\n"},
		{"no station", "header\nAnb 10\nCalib 0.8 Valid 0.6\n"},
		{"station without value", "header\nCalib 0.8 Valid 0.6\nStation"},
		{"no calib", "header\nStation 1\nAnb 10\n"},
		{"duplicate calib", "header\nStation 1\nCalib 0.8 Valid 0.6\nCalib 0.7 Valid 0.5\n"},
		{"non-numeric value", "header\nStation 1\nAnb ten\nCalib 0.8 Valid 0.6\n"},
		{"pts without step", "header\nStation 1\nXptsnb 3 Xmin 100\nCalib 0.8 Valid 0.6\n"},
		{"pts at end", "header\nCalib 0.8 Valid 0.6\nStation 1\nXptsnb 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse: got %v, want ErrMalformed", err)
			}
		})
	}
}
