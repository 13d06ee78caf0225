package reflow

import (
	"strings"

	"github.com/dgallion1/articleflow/internal/chunker"
	"github.com/dgallion1/articleflow/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// blockAtoms are the elements that introduce a text boundary.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Blockquote: true, atom.Pre: true, atom.Figure: true, atom.Figcaption: true,
	atom.Section: true, atom.Article: true, atom.Main: true, atom.Aside: true, atom.Header: true, atom.Footer: true,
	atom.Table: true, atom.Caption: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Hr: true, atom.Br: true,
}

// containerAtoms are wrappers whose block children can stand alone, so
// overflow may be taken from inside them.
var containerAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.Aside: true, atom.Header: true, atom.Footer: true, atom.Blockquote: true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockAtoms[n.DataAtom]
}

// skipped elements contribute no text.
func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Img, atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// Flatten returns the normalized text of n: block boundaries become single
// spaces, whitespace runs collapse, and images are ignored.
func Flatten(n *html.Node) string {
	var buf strings.Builder
	flattenInto(&buf, n)
	return normalize(buf.String())
}

func flattenNodes(nodes []*html.Node) string {
	var buf strings.Builder
	for _, n := range nodes {
		flattenInto(&buf, n)
	}
	return normalize(buf.String())
}

func flattenInto(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipped(n) {
			return
		}
		if isBlock(n) {
			boundary(buf)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				flattenInto(buf, c)
			}
			boundary(buf)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenInto(buf, c)
	}
}

func boundary(buf *strings.Builder) {
	s := buf.String()
	if len(s) > 0 && !strings.HasSuffix(s, " ") {
		buf.WriteByte(' ')
	}
}

func normalize(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Blocks splits the children of root into top-level blocks. Each block
// element stands alone; consecutive inline nodes are grouped. Start offsets
// line up with Flatten(root).
func Blocks(root *html.Node) []doctree.Block {
	return blocksAt(root, 0)
}

// blocksAt splits the children of parent, whose flattened text begins at
// base, into blocks.
func blocksAt(parent *html.Node, base int) []doctree.Block {
	var blocks []doctree.Block
	var run []*html.Node
	offset := base

	add := func(nodes []*html.Node) {
		text := flattenNodes(nodes)
		blocks = append(blocks, doctree.Block{Nodes: nodes, Text: text, Start: offset})
		if text != "" {
			offset += chunker.Len(text) + 1
		}
	}

	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) {
			if len(run) > 0 {
				add(run)
				run = nil
			}
			add([]*html.Node{c})
			continue
		}
		run = append(run, c)
	}
	if len(run) > 0 {
		add(run)
	}
	return blocks
}

// container returns the wrapper element a block consists of, or nil when the
// block is not a single wrapper holding block-level children.
func container(b doctree.Block) *html.Node {
	if len(b.Nodes) != 1 {
		return nil
	}
	n := b.Nodes[0]
	if n.Type != html.ElementNode || !containerAtoms[n.DataAtom] {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) {
			return n
		}
	}
	return nil
}
