package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/conform/internal/compare"
)

// ErrRunNotFound is returned when reading a run that was never written.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run registered under id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, mode, total FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Source, &run.Mode, &run.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ReadOutcomes returns every outcome of a run ordered by example id.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadOutcomes(ctx context.Context, runID string) ([]compare.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome
		FROM outcomes
		WHERE run_id = ?
		ORDER BY example_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []compare.Outcome{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		var out compare.Outcome
		if err := json.Unmarshal([]byte(data), &out); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
		outcomes = append(outcomes, out)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return outcomes, nil
}

// CountFailures returns the number of failed outcomes recorded for a run.
func (s *Store) CountFailures(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM outcomes WHERE run_id = ? AND verdict = 'fail'
	`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return n, nil
}

// CompletionOrder returns example ids in the order their outcomes were
// recorded (ascending seq).
func (s *Store) CompletionOrder(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT example_id FROM outcomes WHERE run_id = ? ORDER BY seq ASC, example_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query completion order: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan example id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion order: %w", err)
	}
	return ids, nil
}
