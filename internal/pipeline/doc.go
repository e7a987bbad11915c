// Package pipeline turns a matched movie into download jobs and executes
// them: asset listing, ledger dedup, paced fetching through the circuit
// breaker, and bookkeeping of successes and failures. It also re-runs the
// persisted failure list.
package pipeline
