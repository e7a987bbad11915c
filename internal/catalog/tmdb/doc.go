// Package tmdb implements the enumerated-catalog adapter against the TMDB
// discover API.
package tmdb
