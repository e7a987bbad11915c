// Package ledger persists the pipeline's resumable state as JSON documents:
// the completed-work ledger, the failed-download list, the scan checkpoint,
// and the accumulated entity listing. Every document loads leniently (a
// missing or corrupt file reinitializes empty with a warning) and saves
// atomically via a temp-file rename.
package ledger
