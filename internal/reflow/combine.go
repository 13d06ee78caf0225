package reflow

import (
	"github.com/dgallion1/articleflow/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Group is the rendered content of one slot.
type Group struct {
	Elements []*html.Node
}

// Combine turns chunks into slot groups. Images go in front of the first
// chunk's paragraph only. An image with no text still yields one group.
func Combine(chunks []doctree.Chunk, images []doctree.ImageRef) []Group {
	if len(chunks) == 0 {
		if len(images) == 0 {
			return nil
		}
		return []Group{{Elements: imageNodes(images)}}
	}

	groups := make([]Group, 0, len(chunks))
	for i, c := range chunks {
		var g Group
		if i == 0 {
			g.Elements = imageNodes(images)
		}
		g.Elements = append(g.Elements, paragraph(c.Text))
		groups = append(groups, g)
	}
	return groups
}

func imageNodes(images []doctree.ImageRef) []*html.Node {
	nodes := make([]*html.Node, 0, len(images))
	for _, img := range images {
		nodes = append(nodes, img.Node)
	}
	return nodes
}

func paragraph(text string) *html.Node {
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return p
}
