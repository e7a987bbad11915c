package matching

import (
	"math"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Inception  ", "inception"},
		{"盗梦空间（2010）", "盗梦空间"},
		{"Inception (2010)", "inception"},
		{"The Dark Knight", "thedarkknight"},
		{"Ｉｎｃｅｐｔｉｏｎ", "inception"},
		{"", ""},
		{"（全角开头）", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("盗梦空间", "盗梦空间"); got != 1.0 {
		t.Fatalf("identical titles = %v, want 1.0", got)
	}
	if got := Similarity("", ""); got != 0.0 {
		t.Fatalf("empty titles = %v, want 0.0", got)
	}
	if got := Similarity("inception", ""); got != 0.0 {
		t.Fatalf("one empty = %v, want 0.0", got)
	}

	// 4-rune strings, one substitution: 1 - 1/4.
	if got := Similarity("盗梦空间", "盗梦天间"); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("one rune off = %v, want 0.75", got)
	}

	// Unrelated titles score low.
	if got := Similarity("阿凡达", "泰坦尼克号"); got > 0.3 {
		t.Fatalf("unrelated titles = %v, want low", got)
	}
}

func TestSimilarityCountsRunesNotBytes(t *testing.T) {
	// Each CJK rune is 3 bytes; a byte-based ratio would differ.
	got := Similarity("电影", "电视")
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("two-rune one-substitution = %v, want 0.5", got)
	}
}
