package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(`Mission: Impossible`); got != "Mission- Impossible" {
		t.Errorf("colon should become dash, got %q", got)
	}
	if got := SanitizeFileName(`what?`); got != "what" {
		t.Errorf("question mark should be removed, got %q", got)
	}
	if got := SanitizeFileName("  盗梦空间  "); got != "盗梦空间" {
		t.Errorf("CJK titles should pass through trimmed, got %q", got)
	}
	if got := SanitizeFileName(`<>|"`); got != "" {
		t.Errorf("all-unsafe input should sanitize to empty, got %q", got)
	}
}

func TestEntityDirName(t *testing.T) {
	if got := EntityDirName("Inception", 42); got != "Inception" {
		t.Errorf("got %q", got)
	}
	if got := EntityDirName(`<>`, 42); got != "movie_42" {
		t.Errorf("empty-after-sanitize should use synthetic name, got %q", got)
	}
	if got := EntityDirName("", 7); got != "movie_7" {
		t.Errorf("empty title should use synthetic name, got %q", got)
	}
}
