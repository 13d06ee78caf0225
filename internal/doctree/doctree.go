package doctree

import "golang.org/x/net/html"

// Document is an article body ready for segmentation.
type Document struct {
	Title string // Document title (from metadata or filename)
	HTML  string // Article body markup
}

// Block is a top-level piece of the article body: either one block element
// or a run of consecutive inline nodes.
type Block struct {
	Nodes []*html.Node // Original nodes, in document order
	Text  string       // Flattened text of Nodes
	Start int          // Rune offset of Text within the flattened document
}

// ImageRef is an image element moved out of the article flow.
type ImageRef struct {
	Src  string
	Alt  string
	Node *html.Node // Detached <img> element with its authored attributes
}

// Chunk is a bounded run of flattened text destined for one slot.
type Chunk struct {
	Text  string // Trimmed chunk text
	Index int    // Slot index
	Start int    // Rune offset of the first character in the flattened text
	End   int    // Rune offset just past the last character
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return c.End - c.Start
}
