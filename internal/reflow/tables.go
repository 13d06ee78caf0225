package reflow

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultTableWrapperClass marks the responsive table container.
const DefaultTableWrapperClass = "table-responsive"

// WrapTables puts every table under container inside a
// <div class="{class}"> unless it already sits in one. It returns the
// number of tables wrapped; a second run wraps nothing.
func WrapTables(container *html.Node, class string) int {
	if class == "" {
		class = DefaultTableWrapperClass
	}
	wrapper := `<div class="` + html.EscapeString(class) + `"></div>`

	wrapped := 0
	goquery.NewDocumentFromNode(container).Find("table").Each(func(_ int, s *goquery.Selection) {
		if p := s.Parent(); p.Is("div") && p.HasClass(class) {
			return
		}
		s.WrapHtml(wrapper)
		wrapped++
	})
	return wrapped
}
