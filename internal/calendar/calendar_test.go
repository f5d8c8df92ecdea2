package calendar

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFromDayNumber(t *testing.T) {
	tests := []struct {
		name string
		mjd  float64
		want time.Time
	}{
		{"epoch", 0, time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC)},
		{"y2000", 51544, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"y2020", 58849, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"fraction truncated", 51544.75, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"leap day", 51603, time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"day after leap day", 51604, time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromDayNumber(tt.mjd)
			if err != nil {
				t.Fatalf("FromDayNumber(%v): %v", tt.mjd, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FromDayNumber(%v) = %v, want %v", tt.mjd, got, tt.want)
			}
		})
	}
}

func TestFromDayNumberNotFinite(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := FromDayNumber(x); !errors.Is(err, ErrNotFinite) {
			t.Errorf("FromDayNumber(%v): got %v, want ErrNotFinite", x, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	d := time.Date(1987, 6, 15, 0, 0, 0, 0, time.UTC)
	got, err := FromDayNumber(ToDayNumber(d))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(d) {
		t.Errorf("round trip: got %v, want %v", got, d)
	}
}
