package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Precision != "pointer" {
		t.Errorf("Default precision is %q, expected pointer", cfg.Precision)
	}
	if cfg.LoopIterations != 1 {
		t.Errorf("Default loop iterations is %d, expected 1", cfg.LoopIterations)
	}
	if cfg.WideningStrategy != "widen" || cfg.NarrowingStrategy != "narrow" {
		t.Errorf("Default strategies are %q/%q, expected widen/narrow",
			cfg.WideningStrategy, cfg.NarrowingStrategy)
	}
	if cfg.NarrowingIterations != nil {
		t.Errorf("Default narrowing cap is %d, expected none", *cfg.NarrowingIterations)
	}
	if cfg.Progress != "auto" {
		t.Errorf("Default progress mode is %q, expected auto", cfg.Progress)
	}
	if len(cfg.Checkers) != 0 {
		t.Errorf("Default checker list is %v, expected empty", cfg.Checkers)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yml")
	content := `precision: register
loop-iterations: 3
narrowing-iterations: 2
checkers: [dbz, shift]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Precision != "register" {
		t.Errorf("Precision is %q, expected register", cfg.Precision)
	}
	if cfg.LoopIterations != 3 {
		t.Errorf("Loop iterations is %d, expected 3", cfg.LoopIterations)
	}
	if cfg.NarrowingIterations == nil || *cfg.NarrowingIterations != 2 {
		t.Errorf("Narrowing cap is %v, expected 2", cfg.NarrowingIterations)
	}
	// Keys left out of the file keep their defaults.
	if cfg.WideningStrategy != "widen" || cfg.Progress != "auto" {
		t.Errorf("Unset keys became %q/%q, expected widen/auto",
			cfg.WideningStrategy, cfg.Progress)
	}
	if len(cfg.Checkers) != 2 || cfg.Checkers[0] != "dbz" || cfg.Checkers[1] != "shift" {
		t.Errorf("Checker list is %v, expected [dbz shift]", cfg.Checkers)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("Loading a nonexistent config did not fail")
	}
}
