// Package scan enumerates the driving catalog page by page, accumulating
// new entities into the listing and checkpointing progress so an
// interrupted scan resumes where it left off.
package scan
