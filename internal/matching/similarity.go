package matching

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var parenSplit = regexp.MustCompile(`[（）()]`)

// NormalizeTitle canonicalizes a title for comparison: trim, drop anything
// from the first parenthesis on (fullwidth or ASCII), fold fullwidth forms
// to their narrow equivalents, lowercase, and remove internal whitespace.
// The same canonicalization must be applied to both sides of a comparison.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	title = parenSplit.Split(title, 2)[0]
	title = width.Fold.String(title)
	title = strings.ToLower(title)
	return strings.Join(strings.Fields(title), "")
}

// Similarity returns an edit-distance ratio between two already-normalized
// strings: 1.0 for identical, 0.0 for completely different. Operates on
// runes so multi-byte titles score by character, not by byte.
func Similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0.0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)
	distance := levenshteinDistance(ra, rb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(r1, r2 []rune) int {
	len1 := len(r1)
	len2 := len(r2)

	previous := make([]int, len2+1)
	current := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		previous[j] = j
	}

	for i := 1; i <= len1; i++ {
		current[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			current[j] = minInt(
				previous[j]+1,      // deletion
				current[j-1]+1,     // insertion
				previous[j-1]+cost, // substitution
			)
		}
		previous, current = current, previous
	}

	return previous[len2]
}

func minInt(values ...int) int {
	result := values[0]
	for _, v := range values[1:] {
		if v < result {
			result = v
		}
	}
	return result
}
