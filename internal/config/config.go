// Package config reads the YAML run sheet describing one aggregation run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Run describes a full aggregation batch: where the reports and the
// predictand database live, which dataset/method combinations to fold in,
// and where the wide table goes.
type Run struct {
	Root         string   `yaml:"root"`
	PredictandDB string   `yaml:"predictand_db"`
	Datasets     []string `yaml:"datasets"`
	Methods      []string `yaml:"methods"`
	Output       Output   `yaml:"output"`
}

// Output names the optional export targets. Empty paths disable a target.
type Output struct {
	CSV    string `yaml:"csv"`
	SQLite string `yaml:"sqlite"`
}

// LoadFile reads a run sheet. An empty path returns the zero value, with
// all settings expected from flags.
func LoadFile(path string) (Run, error) {
	var run Run
	if path == "" {
		return run, nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return run, err
	}
	if err := yaml.Unmarshal(bs, &run); err != nil {
		return run, fmt.Errorf("parse %s: %w", path, err)
	}
	return run, nil
}

func (r Run) Validate() error {
	if r.Root == "" {
		return fmt.Errorf("report root directory is required")
	}
	if r.PredictandDB == "" {
		return fmt.Errorf("predictand database path is required")
	}
	if len(r.Datasets) == 0 {
		return fmt.Errorf("at least one dataset is required")
	}
	if len(r.Methods) == 0 {
		return fmt.Errorf("at least one method is required")
	}
	return nil
}
