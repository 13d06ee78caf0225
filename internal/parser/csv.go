package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/articleflow/internal/doctree"
)

// CSVParser handles CSV files. The first row becomes the table header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := &doctree.Document{Title: baseTitle(filename, ".csv")}
	if len(records) == 0 {
		return out, nil
	}

	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, h := range records[0] {
		b.WriteString(paragraphHTML("th", h))
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range records[1:] {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString(paragraphHTML("td", cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")

	out.HTML = b.String()
	return out, nil
}
