package reflow

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/articleflow/internal/chunker"
	"github.com/dgallion1/articleflow/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReconstructOverflow clones the blocks that begin at or after the used
// offset, keeping their original markup. A wrapper element (div, article,
// section and the like) that straddles used is opened and its children are
// considered in its place; the wrapper itself is not cloned. Any other block
// that starts before used is never included, even if its text runs past it.
// Images are dropped from the clones unless keepImages is set.
func ReconstructOverflow(blocks []doctree.Block, used int, keepImages bool) []*html.Node {
	var out []*html.Node
	for _, b := range blocks {
		if b.Start < used {
			if c := container(b); c != nil && b.Start+chunker.Len(b.Text) > used {
				out = append(out, ReconstructOverflow(blocksAt(c, b.Start), used, keepImages)...)
			}
			continue
		}
		if b.Text == "" && !(keepImages && hasImage(b.Nodes)) {
			continue
		}
		for _, n := range b.Nodes {
			if !keepImages && n.Type == html.ElementNode && n.DataAtom == atom.Img {
				continue
			}
			out = append(out, cloneBlock(n, keepImages))
		}
	}
	return out
}

func cloneBlock(n *html.Node, keepImages bool) *html.Node {
	clone := goquery.NewDocumentFromNode(n).Clone()
	if !keepImages {
		clone.Find("img").Remove()
	}
	return clone.Get(0)
}

func hasImage(nodes []*html.Node) bool {
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if n.DataAtom == atom.Img || goquery.NewDocumentFromNode(n).Find("img").Length() > 0 {
			return true
		}
	}
	return false
}
