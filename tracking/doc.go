// Package tracking persists experiments, runs, parameters, and metrics in
// SQLite. It is pure keyed bookkeeping: create, read, append. Artifact
// storage lives in the artifact package and only shares run identifiers
// with this one.
package tracking
