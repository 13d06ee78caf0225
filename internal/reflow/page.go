package reflow

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultSlotClass marks slot containers in generated pages.
const DefaultSlotClass = "article-slot"

// DefaultSlotSelector finds slots in generated pages.
const DefaultSlotSelector = "." + DefaultSlotClass

// ErrNoSlots is returned when a page template has no slot containers.
var ErrNoSlots = errors.New("page template has no slots")

// Page is an article layout with ordered slot containers.
type Page struct {
	Root  *html.Node
	Slots []*html.Node
}

// NewPage builds an <article> holding n empty slots.
func NewPage(n int) *Page {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "article",
		DataAtom: atom.Article,
		Attr:     []html.Attribute{{Key: "class", Val: "article-body"}},
	}
	p := &Page{Root: root}
	for i := 0; i < n; i++ {
		slot := &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr: []html.Attribute{
				{Key: "class", Val: DefaultSlotClass},
				{Key: "data-slot", Val: strconv.Itoa(i)},
			},
		}
		root.AppendChild(slot)
		p.Slots = append(p.Slots, slot)
	}
	return p
}

// ParsePage parses a page template and collects the elements matching
// selector, in document order, as its slots.
func ParsePage(tmpl, selector string) (*Page, error) {
	if selector == "" {
		selector = DefaultSlotSelector
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	slots := doc.Find(selector)
	if slots.Length() == 0 {
		return nil, fmt.Errorf("%w: selector %q", ErrNoSlots, selector)
	}
	return &Page{Root: doc.Get(0), Slots: slots.Nodes}, nil
}

// Segment runs the engine over the page slots and wraps every table on the
// page.
func (p *Page) Segment(content string, cfg Config) Result {
	res := Segment(content, p.Slots, cfg)
	WrapTables(p.Root, cfg.TableWrapperClass)
	return res
}

// HTML renders the whole page.
func (p *Page) HTML() (string, error) {
	return OuterHTML(p.Root)
}

// SlotHTML renders the contents of each slot.
func (p *Page) SlotHTML() ([]string, error) {
	out := make([]string, 0, len(p.Slots))
	for _, s := range p.Slots {
		var buf bytes.Buffer
		for c := s.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return nil, fmt.Errorf("render slot: %w", err)
			}
		}
		out = append(out, buf.String())
	}
	return out, nil
}

// OuterHTML renders n including its own tag.
func OuterHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
