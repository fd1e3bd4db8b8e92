package store

import (
	"context"
	"testing"

	"github.com/roach88/conform/internal/compare"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Memory)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun registers a run with the given id.
func createTestRun(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.WriteRun(context.Background(), Run{ID: id, Source: "examples.md", Mode: "strict", Total: 3})
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
}

// createTestOutcome creates an outcome with the given id and verdict.
func createTestOutcome(id int, verdict compare.Verdict) compare.Outcome {
	return compare.Outcome{
		ExampleID: id,
		Verdict:   verdict,
		Expected:  "expected",
		Actual:    "actual",
	}
}
