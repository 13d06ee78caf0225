// Package reflow redistributes an article body into a fixed sequence of
// display slots. The first slot gets the lead image and a short opening
// paragraph, later slots get longer paragraphs, and whatever does not fit is
// appended after the last slot with its original markup.
package reflow

import (
	"strings"

	"github.com/dgallion1/articleflow/internal/chunker"
	"github.com/dgallion1/articleflow/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Config controls a segmentation run.
type Config struct {
	Chunk             chunker.Config
	ImagePolicy       ImagePolicy
	AcceptImage       func(src string) bool // nil accepts every source
	KeepOtherImages   bool                  // keep non-lead images in overflow blocks
	TableWrapperClass string
}

// DefaultConfig returns the standard five-slot article layout settings.
func DefaultConfig() Config {
	return Config{
		Chunk:             chunker.DefaultConfig(),
		ImagePolicy:       ImageFirst,
		AcceptImage:       AbsoluteURL,
		TableWrapperClass: DefaultTableWrapperClass,
	}
}

// Result describes what a segmentation run wrote.
type Result struct {
	Chunks   []doctree.Chunk
	Image    *doctree.ImageRef
	Overflow []*html.Node // inserted after the last slot; nil when it has no parent
	Used     int          // characters consumed by the slots
	Total    int          // characters in the flattened article
}

// Segment distributes content across slots. Slots are cleared and refilled
// in place; overflow blocks are inserted right after the last slot and
// tables in the slots' container are wrapped. It never fails: malformed
// markup is parsed best effort.
func Segment(content string, slots []*html.Node, cfg Config) Result {
	root := parseContent(content)

	var res Result
	images := ExtractImages(root, cfg.ImagePolicy, cfg.AcceptImage)
	for _, img := range images {
		detach(img.Node)
	}
	if len(images) > 0 {
		res.Image = &images[0]
	}

	text := Flatten(root)
	res.Total = chunker.Len(text)
	res.Chunks, res.Used = chunker.Split(text, len(slots), cfg.Chunk)

	WriteSlots(slots, Combine(res.Chunks, images))
	if len(slots) == 0 {
		return res
	}

	last := slots[len(slots)-1]
	if res.Used < res.Total {
		res.Overflow = ReconstructOverflow(Blocks(root), res.Used, cfg.KeepOtherImages)
		if !InsertAfter(last, res.Overflow) {
			res.Overflow = nil
		}
	}
	if last.Parent != nil {
		WrapTables(last.Parent, cfg.TableWrapperClass)
	}
	return res
}

// parseContent parses an HTML fragment into a detached container element.
func parseContent(content string) *html.Node {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(content), root)
	if err != nil {
		root.AppendChild(&html.Node{Type: html.TextNode, Data: content})
		return root
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}
