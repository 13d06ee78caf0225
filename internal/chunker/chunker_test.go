package chunker

import (
	"strings"
	"testing"
)

// sentence returns n characters ending in a full stop.
func sentence(n int) string {
	return strings.Repeat("w", n-1) + "."
}

func chunkLens(t *testing.T, text string, slots int) []int {
	t.Helper()
	chunks, _ := Split(text, slots, DefaultConfig())
	lens := make([]int, len(chunks))
	for i, c := range chunks {
		lens[i] = c.Len()
	}
	return lens
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks, used := Split(text, 5, DefaultConfig())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Len() != 250 {
		t.Errorf("expected chunk of 250 characters, got %d", chunks[0].Len())
	}
	if used != 250 {
		t.Errorf("expected used=250, got %d", used)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunks, used := Split("", 5, DefaultConfig())
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
	if used != 0 {
		t.Errorf("expected used=0, got %d", used)
	}
}

func TestSplit_NoPunctuationHardCuts(t *testing.T) {
	got := chunkLens(t, strings.Repeat("x", 1200), 5)
	want := []int{300, 500, 400}
	if !equalInts(got, want) {
		t.Errorf("expected chunk lengths %v, got %v", want, got)
	}
}

func TestSplit_PrefersSentenceEndNearTarget(t *testing.T) {
	// Periods end at characters 310 and 810; 389 characters follow.
	text := sentence(310) + " " + sentence(499) + " " + strings.Repeat("w", 389)
	if Len(text) != 1200 {
		t.Fatalf("fixture length %d, want 1200", Len(text))
	}

	chunks, used := Split(text, 5, DefaultConfig())
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].End != 310 {
		t.Errorf("chunk 0: expected end 310, got %d", chunks[0].End)
	}
	if chunks[1].End != 810 {
		t.Errorf("chunk 1: expected end 810, got %d", chunks[1].End)
	}
	if chunks[2].Len() != 389 {
		t.Errorf("chunk 2: expected 389 characters, got %d", chunks[2].Len())
	}
	if used != 1200 {
		t.Errorf("expected used=1200, got %d", used)
	}
}

func TestSplit_ClosestCandidateWins(t *testing.T) {
	// Candidates at 280 and 330; 280 is nearer to 300.
	text := sentence(280) + " " + sentence(49) + " " + strings.Repeat("z", 500)
	got := chunkLens(t, text, 1)
	if len(got) != 1 || got[0] != 280 {
		t.Errorf("expected first chunk of 280, got %v", got)
	}
}

func TestSplit_AbbreviationIsNotABoundary(t *testing.T) {
	// The only full stop in the window belongs to "Dr.".
	text := strings.Repeat("a", 306) + " Dr." + " Smith " + strings.Repeat("b", 400)
	got := chunkLens(t, text, 1)
	if len(got) != 1 || got[0] != 300 {
		t.Errorf("expected hard cut at 300, got %v", got)
	}
}

func TestSplit_AbbreviationAtWindowEdge(t *testing.T) {
	// "Dr." ends exactly at the lower window edge (200); a real sentence
	// ends at the upper edge (400).
	text := strings.Repeat("a", 196) + " Dr." + " " + sentence(199) + " " + strings.Repeat("c", 300)
	got := chunkLens(t, text, 1)
	if len(got) != 1 || got[0] != 400 {
		t.Errorf("expected cut at 400, got %v", got)
	}
}

func TestSplit_AbbreviationNeedsWordBoundary(t *testing.T) {
	text := strings.Repeat("a", 305) + " Odr." + " " + strings.Repeat("b", 400)
	got := chunkLens(t, text, 1)
	if len(got) != 1 || got[0] != 310 {
		t.Errorf("expected cut after \"Odr.\" at 310, got %v", got)
	}
}

func TestSplit_DecimalPointIsNotABoundary(t *testing.T) {
	text := strings.Repeat("a", 306) + " 3.14 " + strings.Repeat("z", 400)
	got := chunkLens(t, text, 1)
	if len(got) != 1 || got[0] != 300 {
		t.Errorf("expected hard cut at 300, got %v", got)
	}
}

func TestSplit_IdeographicFullStop(t *testing.T) {
	text := strings.Repeat("字", 309) + "。" + strings.Repeat("字", 400)
	got := chunkLens(t, text, 5)
	want := []int{310, 400}
	if !equalInts(got, want) {
		t.Errorf("expected chunk lengths %v, got %v", want, got)
	}
}

func TestSplit_NeverCutsInsideParentheses(t *testing.T) {
	inner := strings.Repeat("bbbbbbbbb. ", 40)
	text := strings.Repeat("a", 150) + " (" + inner + ")" + " Tail sentence. " + strings.Repeat("c", 1000)

	chunks, _ := Split(text, 1, DefaultConfig())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	first := chunks[0].Text
	if strings.Count(first, "(") != strings.Count(first, ")") {
		t.Errorf("chunk 0 cuts inside parentheses: %q", first[len(first)-40:])
	}
	if !strings.HasSuffix(first, "Tail sentence.") {
		t.Errorf("expected chunk 0 to end at the sentence after the parenthesis, got ...%q", first[len(first)-30:])
	}
	if chunks[0].Len() <= 400 {
		t.Errorf("expected chunk 0 to run past the window, got %d", chunks[0].Len())
	}
}

func TestSplit_NestedParenthesesAcrossChunks(t *testing.T) {
	inner := "(" + strings.Repeat("nested words. ", 30) + "(deeper. " + strings.Repeat("more words. ", 30) + "))"
	text := strings.Repeat("lead words ", 20) + inner + " Closing sentence. " + strings.Repeat("tail words. ", 80)

	chunks, _ := Split(text, 5, DefaultConfig())
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if d := depth(chunks[0].Text); d != 0 {
		t.Errorf("chunk 0 ends at parenthesis depth %d", d)
	}
}

func TestSplit_UnclosedParenthesisFallsBackToHardCut(t *testing.T) {
	text := "(" + strings.Repeat("abc. ", 200)
	got := chunkLens(t, text, 1)
	if len(got) != 1 || got[0] != 300 {
		t.Errorf("expected hard cut at 300, got %v", got)
	}
}

func TestSplit_RespectsSlotCount(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	chunks, used := Split(text, 2, DefaultConfig())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if used >= Len(text) {
		t.Errorf("expected text left over, used=%d of %d", used, Len(text))
	}
	if used != chunks[1].End+1 {
		t.Errorf("expected used to skip the space after chunk 1, got used=%d end=%d", used, chunks[1].End)
	}
}

func TestSplit_ZeroSlots(t *testing.T) {
	chunks, used := Split("Some text.", 0, DefaultConfig())
	if len(chunks) != 0 || used != 0 {
		t.Errorf("expected nothing consumed, got %d chunks used=%d", len(chunks), used)
	}
}

func TestSplit_DefaultConfigFallback(t *testing.T) {
	chunks, _ := Split(strings.Repeat("x", 1000), 5, Config{})
	if len(chunks) == 0 || chunks[0].Len() != 300 {
		t.Fatalf("expected defaults to apply, got %v", chunks)
	}
}

func TestSplit_NoMidSentenceCuts(t *testing.T) {
	var sb strings.Builder
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta"}
	for i := 0; i < 120; i++ {
		n := i%7 + 3
		for j := 0; j < n; j++ {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(words[(i+j)%len(words)])
		}
		sb.WriteString(". ")
	}
	text := strings.TrimSpace(sb.String())
	cfg := DefaultConfig()

	chunks, used := Split(text, 5, cfg)
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}

	runes := []rune(text)
	for i, c := range chunks {
		if got := string(runes[c.Start:c.End]); got != c.Text {
			t.Errorf("chunk %d: offsets do not match text", i)
		}
		if !strings.HasSuffix(c.Text, ".") {
			t.Errorf("chunk %d: expected to end on a full stop, got ...%q", i, c.Text[len(c.Text)-10:])
		}
		if d := depth(c.Text); d != 0 {
			t.Errorf("chunk %d: parenthesis depth %d", i, d)
		}
		if i > 0 && c.Start != chunks[i-1].End+1 {
			t.Errorf("chunk %d: expected to start one space after chunk %d", i, i-1)
		}
	}
	if used != chunks[4].End+1 {
		t.Errorf("expected used=%d, got %d", chunks[4].End+1, used)
	}
}

func depth(s string) int {
	d := 0
	for _, r := range s {
		d = nextDepth(d, r)
	}
	return d
}
