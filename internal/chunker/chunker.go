package chunker

import (
	"strings"
	"unicode"

	"github.com/dgallion1/articleflow/internal/doctree"
)

// Config controls chunking behavior. Lengths are in characters (runes).
type Config struct {
	FirstTarget   int      // Target length of the first chunk.
	RestTarget    int      // Target length of every later chunk.
	Window        int      // Search margin on either side of the target.
	Delimiters    []rune   // Sentence-ending punctuation.
	Abbreviations []string // Tokens whose trailing delimiter does not end a sentence.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FirstTarget:   300,
		RestTarget:    500,
		Window:        100,
		Delimiters:    []rune{'.', '。', '!', '?', '！', '？'},
		Abbreviations: DefaultAbbreviations(),
	}
}

// DefaultAbbreviations lists common English abbreviations.
func DefaultAbbreviations() []string {
	return []string{
		"Mr.", "Mrs.", "Ms.", "Dr.", "Prof.", "Sr.", "Jr.", "St.",
		"vs.", "e.g.", "i.e.", "No.", "Inc.", "Ltd.", "Co.", "Corp.",
		"Jan.", "Feb.", "Aug.", "Sept.", "Oct.", "Nov.", "Dec.",
		"approx.", "Fig.", "U.S.",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FirstTarget <= 0 {
		c.FirstTarget = d.FirstTarget
	}
	if c.RestTarget <= 0 {
		c.RestTarget = d.RestTarget
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if len(c.Delimiters) == 0 {
		c.Delimiters = d.Delimiters
	}
	if c.Abbreviations == nil {
		c.Abbreviations = d.Abbreviations
	}
	return c
}

// Split breaks normalized text into at most slotCount chunks. The first chunk
// aims for FirstTarget characters, the rest for RestTarget. It returns the
// chunks and the number of characters they consumed, including the
// whitespace skipped between them.
func Split(text string, slotCount int, cfg Config) ([]doctree.Chunk, int) {
	cfg = cfg.withDefaults()
	runes := []rune(text)

	var chunks []doctree.Chunk
	pos := skipSpace(runes, 0)

	for i := 0; i < slotCount && pos < len(runes); i++ {
		target := cfg.RestTarget
		if i == 0 {
			target = cfg.FirstTarget
		}

		rest := runes[pos:]
		if len(rest) <= target {
			chunks = append(chunks, newChunk(rest, i, pos))
			pos = len(runes)
			break
		}

		cut := findCut(rest, target, cfg)
		chunks = append(chunks, newChunk(rest[:cut], i, pos))
		pos = skipSpace(runes, pos+cut)
	}

	return chunks, pos
}

func newChunk(part []rune, index, start int) doctree.Chunk {
	text := strings.TrimRightFunc(string(part), unicode.IsSpace)
	return doctree.Chunk{
		Text:  text,
		Index: index,
		Start: start,
		End:   start + Len(text),
	}
}

func skipSpace(runes []rune, pos int) int {
	for pos < len(runes) && unicode.IsSpace(runes[pos]) {
		pos++
	}
	return pos
}

// Len returns the length of text in characters.
func Len(text string) int {
	return len([]rune(text))
}
