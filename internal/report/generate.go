package report

import (
	"bytes"
	"fmt"
)

// Generate lays out and renders the report, returning the PDF bytes.
func Generate(in Input) (*Document, []byte, error) {
	doc, err := Layout(in, NewFontMeasurer())
	if err != nil {
		return nil, nil, fmt.Errorf("Generate: %w", err)
	}

	var buf bytes.Buffer
	if err := Render(doc, &buf); err != nil {
		return nil, nil, fmt.Errorf("Generate: %w", err)
	}
	return doc, buf.Bytes(), nil
}
