package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDemos is the demo set recorded when no list file is given. Heights
// match what each demo actually draws (multiple bars, printed lines, etc).
var DefaultDemos = []Demo{
	{Name: "simple", Height: 1},
	{Name: "simple2", Height: 1},
	{Name: "multiple", Height: 5},
	{Name: "split_weighted", Height: 1},
	{Name: "abandonment", Height: 3},
	{Name: "print_during_progress", Height: 11},
	{Name: "split_each", Height: 1},
	{Name: "split_summed", Height: 1},
	{Name: "split_sized", Height: 1},
	{Name: "indeterminate", Height: 1},
}

type demoFile struct {
	Demos []Demo `yaml:"demos"`
}

// LoadDemos reads an operator-supplied demo list from a YAML file.
func LoadDemos(path string) ([]Demo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f demoFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if len(f.Demos) == 0 {
		return nil, fmt.Errorf("%s: no demos listed", path)
	}
	for i, d := range f.Demos {
		if d.Name == "" {
			return nil, fmt.Errorf("%s: demo %d has no name", path, i)
		}
		if d.Height < 1 {
			return nil, fmt.Errorf("%s: demo %q has invalid height %d", path, d.Name, d.Height)
		}
	}

	return f.Demos, nil
}
