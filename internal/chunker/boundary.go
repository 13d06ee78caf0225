package chunker

import (
	"strings"
	"unicode"
)

// abbrevLookback bounds how far back abbreviation suffixes are compared.
const abbrevLookback = 16

// findCut returns the length of the next chunk taken from rest, which is
// known to be longer than target.
func findCut(rest []rune, target int, cfg Config) int {
	lo := max(1, target-cfg.Window)
	hi := min(len(rest), target+cfg.Window)

	best := -1
	depth := 0
	depthAtTarget := 0
	for j := 0; j < hi; j++ {
		if j == target {
			depthAtTarget = depth
		}
		if j+1 >= lo && depth == 0 && isBoundary(rest, j, cfg) {
			if best < 0 || abs(j+1-target) < abs(best-target) {
				best = j + 1
			}
		}
		depth = nextDepth(depth, rest[j])
	}
	if hi == target {
		depthAtTarget = depth
	}
	if best > 0 {
		return best
	}

	if depthAtTarget > 0 {
		if cut := cutAfterParens(rest, target, cfg); cut > 0 {
			return cut
		}
	}
	return target
}

// cutAfterParens looks past target for the point where an open parenthesis
// closes. It prefers the first sentence boundary within Window characters of
// the close and falls back to the position right after the closing mark.
// It returns 0 when the parenthesis never closes.
func cutAfterParens(rest []rune, target int, cfg Config) int {
	depth := 0
	closed := -1
	for j := 0; j < len(rest); j++ {
		if closed >= 0 {
			if j-closed > cfg.Window {
				break
			}
			if depth == 0 && isBoundary(rest, j, cfg) {
				return j + 1
			}
		}
		prev := depth
		depth = nextDepth(depth, rest[j])
		if closed < 0 && prev > 0 && depth == 0 && j >= target {
			closed = j + 1
		}
	}
	if closed > 0 {
		return closed
	}
	return 0
}

// isBoundary reports whether rest[j] ends a sentence.
func isBoundary(rest []rune, j int, cfg Config) bool {
	if !isDelimiter(rest[j], cfg.Delimiters) {
		return false
	}
	if j+1 < len(rest) {
		next := rest[j+1]
		if next < unicode.MaxASCII && (unicode.IsLetter(next) || unicode.IsDigit(next)) {
			return false
		}
	}
	return !endsWithAbbreviation(rest[:j+1], cfg.Abbreviations)
}

func isDelimiter(r rune, delimiters []rune) bool {
	for _, d := range delimiters {
		if r == d {
			return true
		}
	}
	return false
}

// endsWithAbbreviation checks text against the abbreviation list. A match
// only counts when it starts at a word boundary, so "Dr." matches
// "see Dr." but not "Odr.".
func endsWithAbbreviation(text []rune, abbreviations []string) bool {
	start := max(0, len(text)-abbrevLookback)
	tail := strings.ToLower(string(text[start:]))
	for _, abbr := range abbreviations {
		a := strings.ToLower(abbr)
		if a == "" || !strings.HasSuffix(tail, a) {
			continue
		}
		before := []rune(tail[:len(tail)-len(a)])
		if len(before) == 0 {
			if start == 0 || !isWordRune(text[start-1]) {
				return true
			}
			continue
		}
		if !isWordRune(before[len(before)-1]) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func nextDepth(depth int, r rune) int {
	switch r {
	case '(', '（':
		return depth + 1
	case ')', '）':
		if depth > 0 {
			return depth - 1
		}
	}
	return depth
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
