package pipeline

import (
	"fmt"

	"github.com/dgallion1/articleflow/internal/doctree"
	"github.com/dgallion1/articleflow/internal/reflow"
)

// Render is the serializable output of one segmentation run.
type Render struct {
	Title    string          `json:"title"`
	Page     string          `json:"page"`
	Slots    []string        `json:"slots"`
	Overflow []string        `json:"overflow"`
	Chunks   []doctree.Chunk `json:"chunks"`
	ImageSrc string          `json:"image_src,omitempty"`
	Used     int             `json:"used"`
	Total    int             `json:"total"`
}

// SlotsFilled counts slots that received content.
func (r *Render) SlotsFilled() int {
	n := 0
	for _, s := range r.Slots {
		if s != "" {
			n++
		}
	}
	return n
}

// NewRender serializes a segmented page.
func NewRender(title string, page *reflow.Page, res reflow.Result) (*Render, error) {
	pageHTML, err := page.HTML()
	if err != nil {
		return nil, err
	}
	slots, err := page.SlotHTML()
	if err != nil {
		return nil, err
	}
	r := &Render{
		Title:  title,
		Page:   pageHTML,
		Slots:  slots,
		Chunks: res.Chunks,
		Used:   res.Used,
		Total:  res.Total,
	}
	if r.Chunks == nil {
		r.Chunks = []doctree.Chunk{}
	}
	if res.Image != nil {
		r.ImageSrc = res.Image.Src
	}
	r.Overflow = make([]string, 0, len(res.Overflow))
	for _, n := range res.Overflow {
		s, err := reflow.OuterHTML(n)
		if err != nil {
			return nil, fmt.Errorf("render overflow: %w", err)
		}
		r.Overflow = append(r.Overflow, s)
	}
	return r, nil
}

// RenderDocument segments doc into a fresh page of slotCount slots.
func RenderDocument(doc *doctree.Document, slotCount int, cfg reflow.Config) (*Render, error) {
	page := reflow.NewPage(slotCount)
	res := page.Segment(doc.HTML, cfg)
	return NewRender(doc.Title, page, res)
}
