// Package fetch performs the actual image downloads: exponential-backoff
// retries for transient failures plus jittered pacing between requests so
// the remote host is never hammered.
package fetch
