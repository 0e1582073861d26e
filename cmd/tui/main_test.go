package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestAppGraphValidity verifies that the dependency graph is resolvable.
func TestAppGraphValidity(t *testing.T) {
	if err := fx.ValidateApp(AppOptions); err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

// TestNewFileLogger verifies the logger writes to the debug log instead of the terminal
func TestNewFileLogger(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	lc := fxtest.NewLifecycle(t)
	logger, err := newFileLogger(lc)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Info("Test logger initialization")
	lc.RequireStart().RequireStop()

	data, err := os.ReadFile(filepath.Join(home, ".config", "chiptuned", "debug.log"))
	if err != nil {
		t.Fatalf("debug log not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in debug.log")
	}
}
