// Package workflow orchestrates bulk operations: it gates them so only one
// runs at a time, walks the pending listing through matching and dispatch,
// and keeps the persisted state saved as it goes.
package workflow
