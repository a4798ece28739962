package config

import "time"

type Config struct {
	BuildCommand   string
	DemoRunner     string
	CaptureBin     string
	OutputDir      string
	Width          int
	EndDelay       float64
	CaptureTimeout time.Duration
	ShowStats      bool
	BuildVersion   string
	Demos          []Demo
}

// Demo describes one recordable demo: the name the runner binary is invoked
// with and the terminal height its output needs.
type Demo struct {
	Name   string `yaml:"name"`
	Height int    `yaml:"height"`
}

// DemoCommand is the command line the capture tool runs inside its own
// terminal for the given demo.
func (c *Config) DemoCommand(name string) string {
	return c.DemoRunner + " " + name
}
