// Package mltrack provides a minimal experiment-tracking service: experiments,
// runs, logged parameters and metrics, and per-run file artifacts.
//
// The package is organized into subpackages by domain:
//
//   - artifact: run-scoped artifact storage, zip import, retrieval, retention
//   - tracking: SQLite persistence for experiments, runs, params, metrics
//   - registry: model registry with schema-validated manifests
//   - httpapi: HTTP API and HTML pages
//   - config: service configuration (YAML file + environment overrides)
//   - logging: slog setup with component-scoped loggers
//   - testutil: test fixtures and helpers
//
// # Quick Start
//
//	import (
//	    "github.com/randalmurphal/mltrack/artifact"
//	    "github.com/randalmurphal/mltrack/tracking"
//	)
//
//	db, _ := tracking.Open("data/app.db")
//	store := artifact.NewStore("data/artifacts")
//
//	run, _ := db.CreateRun(ctx, expID, "baseline")
//	store.Put(run.ID, "metrics/loss.csv", file)
//
// See individual package documentation for detailed usage.
package mltrack
