// Command stillsync is the CLI for the movie still downloader: it scans the
// discover feed for new movies, resolves them against the image catalog, and
// bulk-downloads their posters and stills with resumable state.
package main
