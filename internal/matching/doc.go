// Package matching resolves an enumerated movie to its best candidate in the
// asset catalog. Titles are canonicalized, scored with an edit-distance
// ratio, penalized for implausible year gaps, and accepted only above a
// fixed threshold.
package matching
