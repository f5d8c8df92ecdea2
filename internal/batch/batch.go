// Package batch drives the aggregation of parameter reports across the
// dataset and method cross product into one wide table.
package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meteolab/analogtab/internal/metrics"
	"github.com/meteolab/analogtab/internal/report"
	"github.com/meteolab/analogtab/internal/results"
	"github.com/meteolab/analogtab/internal/table"
)

var ErrNotDirectory = errors.New("root is not a directory")

// Progress is called after each (dataset, method) pair completes, with
// the number of files merged for that pair. The caller decides rendering.
type Progress func(dataset, method string, files int)

// IsReportFile reports whether a file name matches the producer's report
// naming contract. The name is an opaque pattern, not parsed for
// embedded metadata.
func IsReportFile(name string) bool {
	return strings.Contains(name, "_station_") && strings.HasSuffix(name, "_best_parameters.txt")
}

// Discover walks root and returns every parameter report file beneath it,
// in walk order.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("report root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsReportFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	metrics.ReportFilesDiscovered.Add(float64(len(files)))
	return files, nil
}

// Aggregate merges every discovered report for the declared dataset and
// method cross product into the seeded table. Files under undeclared
// datasets or methods are skipped silently. The first malformed file
// aborts the batch.
func Aggregate(root string, tbl *table.WideTable, datasets, methods []string, progress Progress) error {
	start := time.Now()
	files, err := Discover(root)
	if err != nil {
		return err
	}
	for _, dataset := range datasets {
		for _, method := range methods {
			merged := 0
			for _, path := range files {
				if !hasSegment(path, dataset) || !hasSegment(path, method) {
					continue
				}
				if err := mergeFile(tbl, dataset, method, path); err != nil {
					return err
				}
				merged++
			}
			metrics.ReportsMerged.WithLabelValues(dataset, method).Add(float64(merged))
			if progress != nil {
				progress(dataset, method, merged)
			}
		}
	}
	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	return nil
}

// AggregateReports seeds the table from the predictand database and runs
// the full batch.
func AggregateReports(root, predictandDB string, datasets, methods []string, progress Progress) (*table.WideTable, error) {
	stations, err := results.LoadStationTable(predictandDB)
	if err != nil {
		return nil, err
	}
	tbl, err := table.Seed(stations)
	if err != nil {
		return nil, err
	}
	if err := Aggregate(root, tbl, datasets, methods, progress); err != nil {
		return nil, err
	}
	return tbl, nil
}

func mergeFile(tbl *table.WideTable, dataset, method, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	rep, err := report.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tbl.Merge(dataset, method, rep); err != nil {
		return fmt.Errorf("%s: station %d: %w", path, rep.StationID, err)
	}
	return nil
}

// hasSegment reports whether the slash-separated path contains seg as a
// whole directory name.
func hasSegment(path, seg string) bool {
	for _, p := range strings.Split(filepath.ToSlash(path), "/") {
		if p == seg {
			return true
		}
	}
	return false
}
