package utils

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the yaml-loadable form of the analysis options, so that option
// bundles can be checked in next to the analyzed code and shared between
// runs. Values left out of the file keep their defaults, and explicitly
// passed command-line flags take precedence over the file.
type Config struct {
	// Precision is one of register, pointer, memory.
	Precision string `yaml:"precision"`
	// LoopIterations is the number of exact join iterations at each loop
	// head before extrapolation kicks in.
	LoopIterations uint `yaml:"loop-iterations"`
	// WideningStrategy is one of widen, join.
	WideningStrategy string `yaml:"widening-strategy"`
	// NarrowingStrategy is one of narrow, meet.
	NarrowingStrategy string `yaml:"narrowing-strategy"`
	// NarrowingIterations caps descending iterations at each loop head.
	// Absent means descending until stabilization.
	NarrowingIterations *uint `yaml:"narrowing-iterations,omitempty"`
	// Progress is one of auto, none, linear, interactive.
	Progress string `yaml:"progress"`
	// Checkers lists the enabled checkers by name. Empty enables all.
	Checkers []string `yaml:"checkers,flow"`
}

// DefaultConfig mirrors the flag defaults of init.go.
func DefaultConfig() Config {
	return Config{
		Precision:         "pointer",
		LoopIterations:    1,
		WideningStrategy:  "widen",
		NarrowingStrategy: "narrow",
		Progress:          "auto",
	}
}

// LoadConfigFile reads a yaml analysis configuration, layered over the
// defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, nil
}

// CurrentConfig assembles the effective configuration: defaults, then the
// -config file when given, then any explicitly set flags on top.
func CurrentConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := Opts().ConfigFile(); path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "precision":
			cfg.Precision = Opts().Precision()
		case "loop-iterations":
			cfg.LoopIterations = Opts().LoopIterations()
		case "widening":
			cfg.WideningStrategy = Opts().Widening()
		case "narrowing":
			cfg.NarrowingStrategy = Opts().Narrowing()
		case "narrowing-iterations":
			if cap, ok := Opts().NarrowingIterations(); ok {
				cfg.NarrowingIterations = &cap
			} else {
				cfg.NarrowingIterations = nil
			}
		case "progress":
			cfg.Progress = Opts().ProgressMode()
		}
	})

	return cfg, nil
}
