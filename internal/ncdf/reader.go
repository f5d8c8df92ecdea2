// Package ncdf wraps the NetCDF array store behind the small surface the
// extraction code needs: scoped open/close, alias-tolerant variable
// lookup, and float64 views of 1D and 2D variables.
package ncdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// ErrMissingVariable indicates that none of a variable's known aliases
// exist in the file.
var ErrMissingVariable = errors.New("variable not found under any known name")

// Var names one logical variable and the ordered list of names it may be
// stored under, earliest-probed first. Result files were written by
// several producer versions that renamed variables.
type Var struct {
	Name    string
	Aliases []string
}

// group is the slice of api.Group the reader uses. Tests substitute an
// in-memory implementation.
type group interface {
	ListVariables() []string
	GetVariable(name string) (*api.Variable, error)
	Close()
}

var openGroup = func(path string) (group, error) {
	return netcdf.Open(path)
}

// File is an open array file. Alias resolution happens once per logical
// variable and is cached for the lifetime of the handle; an unresolvable
// variable only errors when it is actually read.
type File struct {
	path     string
	g        group
	names    map[string]bool
	resolved map[string]string // logical name -> stored name, "" if absent
}

// Open stats then opens the file. Callers must Close on every path.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("result file: %w", err)
	}
	g, err := openGroup(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	f := &File{
		path:     path,
		g:        g,
		names:    make(map[string]bool),
		resolved: make(map[string]string),
	}
	for _, n := range g.ListVariables() {
		f.names[n] = true
	}
	return f, nil
}

func (f *File) Close() {
	f.g.Close()
}

// resolve returns the stored name for a logical variable, probing aliases
// in order on first use.
func (f *File) resolve(v Var) (string, error) {
	if name, ok := f.resolved[v.Name]; ok {
		if name == "" {
			return "", fmt.Errorf("%s: %s: %w", f.path, v.Name, ErrMissingVariable)
		}
		return name, nil
	}
	for _, a := range v.Aliases {
		if f.names[a] {
			f.resolved[v.Name] = a
			return a, nil
		}
	}
	f.resolved[v.Name] = ""
	return "", fmt.Errorf("%s: %s: %w", f.path, v.Name, ErrMissingVariable)
}

// Read1D reads a vector variable as float64.
func (f *File) Read1D(v Var) ([]float64, error) {
	name, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	av, err := f.g.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", f.path, name, err)
	}
	vals, err := toVector(av.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", f.path, name, err)
	}
	return vals, nil
}

// Read2D reads a matrix variable as float64, transposed so that rows are
// situations and columns analogue ranks, matching the row-per-situation
// layout used downstream.
func (f *File) Read2D(v Var) ([][]float64, error) {
	name, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	av, err := f.g.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", f.path, name, err)
	}
	m, err := toMatrix(av.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", f.path, name, err)
	}
	if err := checkRectangular(m); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", f.path, name, err)
	}
	return transpose(m), nil
}

func toVector(values any) ([]float64, error) {
	switch v := values.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported vector type %T", values)
	}
}

func toMatrix(values any) ([][]float64, error) {
	switch v := values.(type) {
	case [][]float64:
		return v, nil
	case [][]float32:
		out := make([][]float64, len(v))
		for i, row := range v {
			r := make([]float64, len(row))
			for j, x := range row {
				r[j] = float64(x)
			}
			out[i] = r
		}
		return out, nil
	case [][]int32:
		out := make([][]float64, len(v))
		for i, row := range v {
			r := make([]float64, len(row))
			for j, x := range row {
				r[j] = float64(x)
			}
			out[i] = r
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported matrix type %T", values)
	}
}

// checkRectangular rejects ragged matrices before transposition indexes
// across rows.
func checkRectangular(m [][]float64) error {
	if len(m) == 0 {
		return nil
	}
	width := len(m[0])
	for i, row := range m {
		if len(row) != width {
			return fmt.Errorf("ragged matrix: row %d has %d values, row 0 has %d", i, len(row), width)
		}
	}
	return nil
}

func transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([][]float64, len(m[0]))
	for j := range out {
		out[j] = make([]float64, len(m))
		for i := range m {
			out[j][i] = m[i][j]
		}
	}
	return out
}
