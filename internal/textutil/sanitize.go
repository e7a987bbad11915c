package textutil

import (
	"strconv"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// EntityDirName derives a storage directory name from an entity's display
// title. Titles that sanitize to nothing (or were empty to begin with) fall
// back to a synthetic name built from the entity ID so every entity gets a
// stable namespace.
func EntityDirName(title string, entityID int64) string {
	if cleaned := SanitizeFileName(title); cleaned != "" {
		return cleaned
	}
	return "movie_" + strconv.FormatInt(entityID, 10)
}
