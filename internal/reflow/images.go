package reflow

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/articleflow/internal/doctree"
	"golang.org/x/net/html"
)

// ImagePolicy selects which image becomes the lead image.
type ImagePolicy string

const (
	ImageFirst           ImagePolicy = "first"
	ImageSecondIfPresent ImagePolicy = "secondIfPresent"
	ImageNone            ImagePolicy = "none"
)

// ParseImagePolicy validates a policy name.
func ParseImagePolicy(s string) (ImagePolicy, error) {
	switch p := ImagePolicy(s); p {
	case ImageFirst, ImageSecondIfPresent, ImageNone:
		return p, nil
	case "":
		return ImageFirst, nil
	}
	return "", fmt.Errorf("unknown image policy %q", s)
}

// AbsoluteURL accepts images served from an absolute network address.
func AbsoluteURL(src string) bool {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return len(src) > 2
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ExtractImages picks the lead image under policy. It returns at most one
// image and leaves the document untouched. accept may reject the chosen
// image by source, in which case nothing is returned.
func ExtractImages(root *html.Node, policy ImagePolicy, accept func(src string) bool) []doctree.ImageRef {
	if policy == ImageNone {
		return nil
	}
	imgs := goquery.NewDocumentFromNode(root).Find("img")
	if imgs.Length() == 0 {
		return nil
	}

	chosen := imgs.First()
	if policy == ImageSecondIfPresent && imgs.Length() >= 2 {
		chosen = imgs.Eq(1)
	}

	src, _ := chosen.Attr("src")
	if accept != nil && !accept(src) {
		return nil
	}
	alt, _ := chosen.Attr("alt")
	return []doctree.ImageRef{{Src: src, Alt: alt, Node: chosen.Get(0)}}
}

// detach removes n from its parent, if any.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
