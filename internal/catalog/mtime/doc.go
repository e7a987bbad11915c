// Package mtime implements the asset-catalog adapter against the MTime
// front gateway: title search for resolving movies and the image listing
// endpoint for enumerating their downloadable stills and posters.
package mtime
