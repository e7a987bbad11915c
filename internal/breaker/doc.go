// Package breaker pauses the download pipeline after a run of consecutive
// failures, on the assumption that the remote host has started refusing us
// and only a long cooldown will clear it.
package breaker
