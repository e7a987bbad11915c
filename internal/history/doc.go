// Package history records per-download outcomes in a local SQLite database.
// Unlike the JSON state documents, which only carry what the pipeline needs
// to resume, the history keeps everything that happened so operators can
// review past sessions.
package history
