package pkgutil

import (
	"strings"
	"testing"
)

func TestLoadWithModule(t *testing.T) {
	pkgs, err := LoadPackages(LoadConfig{
		GoPath:     "../examples",
		ModulePath: "../examples/src/pkg-with-module",
	}, "unrelated-name/...")
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 2 {
		t.Errorf("Expected load result to contain 2 packages, got: %s", pkgs)
	}
}

func TestLoadFromGoPath(t *testing.T) {
	pkgs, err := LoadPackages(LoadConfig{GoPath: "../examples"}, "pkg-with-test/...")
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 2 {
		t.Errorf("Expected load result to contain 2 packages, got: %s", pkgs)
	}
}

func TestLoadWithBadModulePath(t *testing.T) {
	// simple-loop is a GOPATH-style package without a go.mod file.
	_, err := LoadPackages(LoadConfig{
		GoPath:     "../examples",
		ModulePath: "../examples/src/simple-loop",
	}, "simple-loop/...")
	if err == nil {
		t.Fatal("Expected loading to fail for a module path without go.mod")
	}
	if !strings.Contains(err.Error(), "go.mod") {
		t.Errorf("Unexpected error: %v", err)
	}
}
