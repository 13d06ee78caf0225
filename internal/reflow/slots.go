package reflow

import "golang.org/x/net/html"

// WriteSlots clears every slot, then fills slots in order with one group
// each. Slots without a group stay empty.
func WriteSlots(slots []*html.Node, groups []Group) {
	for _, s := range slots {
		clearChildren(s)
	}
	for i := 0; i < len(slots) && i < len(groups); i++ {
		for _, n := range groups[i].Elements {
			detach(n)
			slots[i].AppendChild(n)
		}
	}
}

// InsertAfter places nodes directly after anchor, in order. It reports false
// when anchor has no parent to insert into.
func InsertAfter(anchor *html.Node, nodes []*html.Node) bool {
	parent := anchor.Parent
	if parent == nil {
		return false
	}
	next := anchor.NextSibling
	for _, n := range nodes {
		detach(n)
		if next == nil {
			parent.AppendChild(n)
		} else {
			parent.InsertBefore(n, next)
		}
	}
	return true
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}
