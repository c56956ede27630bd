package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/randalmurphal/mltrack"
)

// CreateExperiment inserts a new experiment and returns it with a generated ID.
func (s *Store) CreateExperiment(ctx context.Context, name string) (mltrack.Experiment, error) {
	exp := mltrack.Experiment{
		ID:        mltrack.NewExperimentID(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO experiments (id, name, created_at) VALUES (?, ?, ?)",
		exp.ID, exp.Name, exp.CreatedAt.Unix())
	if err != nil {
		return mltrack.Experiment{}, fmt.Errorf("create experiment: %w", err)
	}
	return exp, nil
}

// GetExperiment loads one experiment by ID.
func (s *Store) GetExperiment(ctx context.Context, id string) (mltrack.Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM experiments WHERE id = ?", id)

	var exp mltrack.Experiment
	var createdAt int64
	if err := row.Scan(&exp.ID, &exp.Name, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return mltrack.Experiment{}, ErrExperimentNotFound
		}
		return mltrack.Experiment{}, fmt.Errorf("get experiment: %w", err)
	}
	exp.CreatedAt = time.Unix(createdAt, 0).UTC()
	return exp, nil
}

// ListExperiments returns all experiments, newest first.
func (s *Store) ListExperiments(ctx context.Context) ([]mltrack.Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM experiments ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	experiments := []mltrack.Experiment{}
	for rows.Next() {
		var exp mltrack.Experiment
		var createdAt int64
		if err := rows.Scan(&exp.ID, &exp.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		exp.CreatedAt = time.Unix(createdAt, 0).UTC()
		experiments = append(experiments, exp)
	}
	return experiments, rows.Err()
}

// CreateRun inserts a new run in RUNNING state under an experiment.
func (s *Store) CreateRun(ctx context.Context, experimentID, name string) (mltrack.Run, error) {
	if _, err := s.GetExperiment(ctx, experimentID); err != nil {
		return mltrack.Run{}, err
	}

	run := mltrack.Run{
		ID:           mltrack.NewRunID(),
		ExperimentID: experimentID,
		Name:         name,
		Status:       mltrack.StatusRunning,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, experiment_id, name, status, created_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.ExperimentID, run.Name, string(run.Status), run.CreatedAt.Unix())
	if err != nil {
		return mltrack.Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (mltrack.Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, experiment_id, name, status, created_at FROM runs WHERE id = ?", id)

	var run mltrack.Run
	var name sql.NullString
	var status string
	var createdAt int64
	if err := row.Scan(&run.ID, &run.ExperimentID, &name, &status, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return mltrack.Run{}, ErrRunNotFound
		}
		return mltrack.Run{}, fmt.Errorf("get run: %w", err)
	}
	run.Name = name.String
	run.Status = mltrack.RunStatus(status)
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	return run, nil
}

// ListRuns returns all runs for an experiment, newest first.
func (s *Store) ListRuns(ctx context.Context, experimentID string) ([]mltrack.Run, error) {
	return s.queryRuns(ctx,
		"SELECT id, experiment_id, name, status, created_at FROM runs WHERE experiment_id = ? ORDER BY created_at DESC",
		experimentID)
}

// RecentRuns returns the newest runs across all experiments.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]mltrack.Run, error) {
	return s.queryRuns(ctx,
		"SELECT id, experiment_id, name, status, created_at FROM runs ORDER BY created_at DESC LIMIT ?",
		limit)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]mltrack.Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []mltrack.Run{}
	for rows.Next() {
		var run mltrack.Run
		var name sql.NullString
		var status string
		var createdAt int64
		if err := rows.Scan(&run.ID, &run.ExperimentID, &name, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Name = name.String
		run.Status = mltrack.RunStatus(status)
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FinishRun marks a run FINISHED. Finishing an already finished run is a no-op.
func (s *Store) FinishRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ? WHERE id = ?", string(mltrack.StatusFinished), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// LogParam appends a key-value parameter to a run.
func (s *Store) LogParam(ctx context.Context, runID, key, value string) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO params (run_id, k, v) VALUES (?, ?, ?)", runID, key, value)
	if err != nil {
		return fmt.Errorf("log param: %w", err)
	}
	return nil
}

// LogMetric appends a timestamped numeric observation to a run.
func (s *Store) LogMetric(ctx context.Context, runID, key string, value float64) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metrics (run_id, k, v, ts) VALUES (?, ?, ?, ?)",
		runID, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("log metric: %w", err)
	}
	return nil
}

// Params returns all parameters logged for a run.
func (s *Store) Params(ctx context.Context, runID string) ([]mltrack.Param, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT k, v FROM params WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("list params: %w", err)
	}
	defer rows.Close()

	params := []mltrack.Param{}
	for rows.Next() {
		p := mltrack.Param{RunID: runID}
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// Metrics returns all metrics logged for a run, newest first.
func (s *Store) Metrics(ctx context.Context, runID string) ([]mltrack.Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT k, v, ts FROM metrics WHERE run_id = ? ORDER BY ts DESC", runID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	metrics := []mltrack.Metric{}
	for rows.Next() {
		m := mltrack.Metric{RunID: runID}
		var ts int64
		if err := rows.Scan(&m.Key, &m.Value, &ts); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Timestamp = time.Unix(ts, 0).UTC()
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
