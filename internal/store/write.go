package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/conform/internal/compare"
)

// Run identifies the harness run that outcomes belong to.
type Run struct {
	ID     string
	Source string
	Mode   string
	Total  int
}

// WriteRun registers a run. Uses ON CONFLICT(id) DO NOTHING, so registering the
// same run twice is harmless.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, mode, total)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Source, run.Mode, run.Total)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteOutcome records the outcome of one example. Outcomes of a run are
// numbered 1, 2, ... in write order (the seq column), which CompletionOrder
// reports back.
//
// Each example has at most one outcome per run; a second write for the same
// example is silently ignored. The run must have been registered with WriteRun
// (foreign key constraint).
func (s *Store) WriteOutcome(ctx context.Context, runID string, out compare.Outcome) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, example_id, seq, verdict, timed_out, exit_code, outcome)
		SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		FROM outcomes WHERE run_id = ?
		ON CONFLICT(run_id, example_id) DO NOTHING
	`,
		runID,
		out.ExampleID,
		string(out.Verdict),
		out.TimedOut,
		out.ExitCode,
		string(data),
		runID,
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}
