package main

import (
	"errors"
	"fmt"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	if cmd.Use != "wikigrab" {
		t.Errorf("expected Use 'wikigrab', got %q", cmd.Use)
	}
	if !cmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if !cmd.SilenceErrors {
		t.Error("expected SilenceErrors to be true")
	}

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"verbose", "log-json"} {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("expected persistent flag %q", name)
			}
		}
		if f := cmd.PersistentFlags().Lookup("verbose"); f != nil && f.Shorthand != "v" {
			t.Errorf("expected verbose shorthand 'v', got %q", f.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"crawl":   false,
			"batch":   false,
			"history": false,
			"compare": false,
			"init":    false,
			"version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected subcommand %q", name)
			}
		}
	})
}

// TestReported tests the reported error wrapper.
func TestReported(t *testing.T) {
	t.Parallel()

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		if err := reported(nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		t.Parallel()
		base := errors.New("boom")
		err := reported(fmt.Errorf("context: %w", base))

		var re *reportedError
		if !errors.As(err, &re) {
			t.Fatal("expected a reportedError")
		}
		if !errors.Is(err, base) {
			t.Error("expected the wrapped error to be reachable")
		}
		if err.Error() != "context: boom" {
			t.Errorf("expected message 'context: boom', got %q", err.Error())
		}
	})
}
