package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies helper key stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, BuildID("b1")},
		{"Stage", KeyStage, Stage("read")},
		{"Plugin", KeyPlugin, Plugin("markdown")},
		{"Step", KeyStep, Step(2)},
		{"Path", KeyPath, Path("index.md")},
		{"Files", KeyFiles, Files(10)},
		{"DurationMS", KeyDurationMS, DurationMS(1.5)},
		{"Concurrency", KeyConcurrency, Concurrency(3)},
		{"Error", KeyError, Error(errors.New("boom"))},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
	}
}

func TestConcurrencyUnbounded(t *testing.T) {
	if got := Concurrency(0).Value.String(); got != "unbounded" {
		t.Fatalf("expected unbounded, got %s", got)
	}
	if got := Concurrency(4).Value.Int64(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestErrorNil(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("expected empty error value, got %q", got)
	}
}
