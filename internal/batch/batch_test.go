package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meteolab/analogtab/internal/models"
	"github.com/meteolab/analogtab/internal/report"
	"github.com/meteolab/analogtab/internal/table"
)

const goodReport = `Optimizer results
Station 1
Anb 10
Xmin 100 Xptsnb 3 Xstep 1.5
Ymin 200 Yptsnb 3 Ystep 1.5
Calib 0.8 Valid 0.6
`

const goodReport2 = `Optimizer results
Station 2
Anb 25
Xmin 50 Xptsnb 5 Xstep 2.0
Ymin 150 Yptsnb 5 Ystep 2.0
Calib 0.7 Valid 0.5
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func seededTable(t *testing.T) *table.WideTable {
	t.Helper()
	tbl, err := table.Seed([]models.Station{{ID: 1}, {ID: 2}})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestIsReportFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"results_station_1_best_parameters.txt", true},
		{"runA_station_42_best_parameters.txt", true},
		{"results_station_1.txt", false},
		{"best_parameters.txt", false},
		{"station_1_best_parameters.log", false},
	}
	for _, tt := range tests {
		if got := IsReportFile(tt.name); got != tt.want {
			t.Errorf("IsReportFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "JRA-55", "4Z", "run_station_1_best_parameters.txt"), goodReport)
	writeFile(t, filepath.Join(root, "JRA-55", "4Z", "run_station_2_best_parameters.txt"), goodReport2)
	writeFile(t, filepath.Join(root, "ERA-20C", "4Z", "run_station_1_best_parameters.txt"), goodReport)
	// Undeclared dataset and a non-report file: both silently skipped.
	writeFile(t, filepath.Join(root, "CFSR", "4Z", "run_station_1_best_parameters.txt"), goodReport)
	writeFile(t, filepath.Join(root, "JRA-55", "4Z", "notes.txt"), "notes")

	tbl := seededTable(t)
	var calls []string
	progress := func(dataset, method string, files int) {
		calls = append(calls, dataset+"/"+method)
		switch dataset {
		case "JRA-55":
			if files != 2 {
				t.Errorf("JRA-55 merged %d files, want 2", files)
			}
		case "ERA-20C":
			if files != 1 {
				t.Errorf("ERA-20C merged %d files, want 1", files)
			}
		}
	}
	if err := Aggregate(root, tbl, []string{"JRA-55", "ERA-20C"}, []string{"4Z"}, progress); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(calls) != 2 || calls[0] != "JRA-55/4Z" || calls[1] != "ERA-20C/4Z" {
		t.Errorf("progress calls = %v", calls)
	}
	if got, ok := tbl.Value(1, table.ColumnKey{Dataset: "JRA-55", Method: "4Z", Field: "anb", Level: 1}); !ok || got != 10 {
		t.Errorf("station 1 JRA-55_4Z_anb_1 = %v (%v), want 10", got, ok)
	}
	if got, ok := tbl.Value(2, table.ColumnKey{Dataset: "JRA-55", Method: "4Z", Field: "anb", Level: 1}); !ok || got != 25 {
		t.Errorf("station 2 JRA-55_4Z_anb_1 = %v (%v), want 25", got, ok)
	}
	if got, ok := tbl.Value(1, table.ColumnKey{Dataset: "ERA-20C", Method: "4Z", Field: "calib", Level: 0}); !ok || got != 0.8 {
		t.Errorf("station 1 ERA-20C_4Z_calib = %v (%v), want 0.8", got, ok)
	}
	// Station 2 has no ERA-20C report: column exists, cell missing.
	if _, ok := tbl.Value(2, table.ColumnKey{Dataset: "ERA-20C", Method: "4Z", Field: "calib", Level: 0}); ok {
		t.Error("station 2 ERA-20C_4Z_calib unexpectedly populated")
	}
	// Undeclared dataset never got columns.
	if tbl.HasColumn(table.ColumnKey{Dataset: "CFSR", Method: "4Z", Field: "anb", Level: 1}) {
		t.Error("undeclared dataset produced columns")
	}
}

func TestAggregateFailFast(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "JRA-55", "4Z", "run_station_1_best_parameters.txt")
	writeFile(t, bad, "header\nStation 1\nAnb 10\n") // no Calib token

	tbl := seededTable(t)
	err := Aggregate(root, tbl, []string{"JRA-55"}, []string{"4Z"}, nil)
	if !errors.Is(err, report.ErrMalformed) {
		t.Fatalf("Aggregate: got %v, want ErrMalformed", err)
	}
	if !strings.Contains(err.Error(), bad) {
		t.Errorf("error does not name the offending file: %v", err)
	}
	// Nothing from the bad file was merged.
	if tbl.HasColumn(table.ColumnKey{Dataset: "JRA-55", Method: "4Z", Field: "anb", Level: 1}) {
		t.Error("partial merge of a malformed report")
	}
}

func TestAggregateBadRoot(t *testing.T) {
	tbl := seededTable(t)
	if err := Aggregate(filepath.Join(t.TempDir(), "missing"), tbl, nil, nil, nil); err == nil {
		t.Error("missing root accepted")
	}
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")
	if err := Aggregate(file, tbl, nil, nil, nil); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("file root: got %v, want ErrNotDirectory", err)
	}
}
