package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Tutorial", KeyTutorial, "pancreas_basic", Tutorial("pancreas_basic")},
		{"Stage", KeyStage, "verify", Stage("verify")},
		{"Outcome", KeyOutcome, "passed", Outcome("passed")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Notebook", KeyNotebook, "a.ipynb", Notebook("a.ipynb")},
		{"Kernel", KeyKernel, "python3", Kernel("python3")},
		{"Version", KeyVersion, "v1.0", Version("v1.0")},
		{"ScheduleName", KeySchedule, "nightly", ScheduleName("nightly")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	if v := Cells(7); v.Key != KeyCells || v.Value.Int64() != 7 {
		t.Fatalf("Cells mismatch: %v", v)
	}
}

func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	if attr = Error(errors.New("err-test")); attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}
