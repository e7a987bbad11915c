// Package catalog defines the shared movie and image-asset model plus the
// interfaces both remote catalog adapters implement. The TMDB adapter
// enumerates movies; the MTime adapter resolves them by title search and
// lists their image assets.
package catalog
