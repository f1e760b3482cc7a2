package model

import (
	"encoding/json"
	"testing"
)

// TestOutcomeString tests the String method of Outcome.
func TestOutcomeString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeSuccess, "success"},
		{OutcomePartialSuccess, "partial_success"},
		{OutcomeNothingExtracted, "nothing_extracted"},
		{OutcomeFailed, "failed"},
		{OutcomeInvalidInput, "invalid_input"},
		{Outcome(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.outcome.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.outcome.String(), tc.expected)
			}
		})
	}
}

// TestOutcomeIsSuccess tests which outcomes deliver a document.
func TestOutcomeIsSuccess(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		outcome  Outcome
		expected bool
	}{
		{OutcomeSuccess, true},
		{OutcomePartialSuccess, true},
		{OutcomeNothingExtracted, false},
		{OutcomeFailed, false},
		{OutcomeInvalidInput, false},
	}

	for _, tc := range testCases {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			t.Parallel()
			if got := tc.outcome.IsSuccess(); got != tc.expected {
				t.Errorf("IsSuccess() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestOutcomeJSON tests that outcomes serialize by name.
func TestOutcomeJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshal", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(struct {
			Outcome Outcome `json:"outcome"`
		}{OutcomePartialSuccess})
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `{"outcome":"partial_success"}` {
			t.Errorf("got %s", data)
		}
	})

	t.Run("unmarshal", func(t *testing.T) {
		t.Parallel()
		var v struct {
			Outcome Outcome `json:"outcome"`
		}
		if err := json.Unmarshal([]byte(`{"outcome":"nothing_extracted"}`), &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v.Outcome != OutcomeNothingExtracted {
			t.Errorf("got %v", v.Outcome)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseOutcome("maybe"); err == nil {
			t.Error("expected error for unknown outcome")
		}
	})

	t.Run("unknown value", func(t *testing.T) {
		t.Parallel()
		if _, err := json.Marshal(Outcome(-1)); err == nil {
			t.Error("expected error for out of range outcome")
		}
	})
}
