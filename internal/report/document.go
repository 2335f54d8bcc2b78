// Package report lays out the financial report as fixed-geometry pages and
// renders it to PDF.
package report

import "time"

// A4 portrait geometry in millimetres.
const (
	PageWidth       = 210.0
	PageHeight      = 297.0
	Margin          = 15.0
	TopY            = 20.0
	PrintableBottom = PageHeight - 20

	LineHeight    = 5.0
	TipSpacing    = 8.0
	CardHeight    = 35.0
	CardGap       = 10.0
	RowHeight     = 8.0
	RowTextOffset = 5.0
	FooterY       = PageHeight - 15

	MaxFixedCostRows = 20
	PayeeMaxLen      = 50
)

const (
	Title        = "Finanzanalyse & Beratung"
	ProductName  = "FinanceAnalyzer"
	ReferenceURL = "https://www.verbraucherzentrale.de"
)

// BlockKind identifies how a block is drawn.
type BlockKind string

const (
	KindText     BlockKind = "text"
	KindRule     BlockKind = "rule"
	KindCard     BlockKind = "card"
	KindBar      BlockKind = "bar"
	KindTableRow BlockKind = "table-row"
	KindLink     BlockKind = "link"
)

// Align is the horizontal anchor of a text block. For AlignRight X is the
// right edge, for AlignCenter the centre.
type Align string

const (
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
	AlignCenter Align = "center"
)

// Font is a Helvetica face at a point size.
type Font struct {
	Size float64 `json:"size"`
	Bold bool    `json:"bold,omitempty"`
}

// Color is an RGB colour.
type Color struct {
	R, G, B uint8
}

// Cell is one column of a table row. Text is drawn RowTextOffset below the row top.
type Cell struct {
	X     float64 `json:"x"`
	Text  string  `json:"text"`
	Align Align   `json:"align"`
}

// Block is one positioned element on a page. Coordinates are millimetres
// from the top-left corner; text blocks are positioned at their baseline.
type Block struct {
	Kind      BlockKind `json:"kind"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	W         float64   `json:"w,omitempty"`
	H         float64   `json:"h,omitempty"`
	X2        float64   `json:"x2,omitempty"`
	Y2        float64   `json:"y2,omitempty"`
	Text      string    `json:"text,omitempty"`
	Font      Font      `json:"font"`
	Align     Align     `json:"align,omitempty"`
	Color     Color     `json:"color"`
	Fill      Color     `json:"fill"`
	LineWidth float64   `json:"lineWidth,omitempty"`
	URL       string    `json:"url,omitempty"`
	Cells     []Cell    `json:"cells,omitempty"`
	Header    bool      `json:"header,omitempty"`
}

// Bottom returns the lowest y coordinate the block occupies.
func (b Block) Bottom() float64 {
	switch b.Kind {
	case KindRule:
		return max(b.Y, b.Y2)
	case KindText:
		return b.Y
	}
	return b.Y + b.H
}

// Page is an ordered list of blocks.
type Page struct {
	Number int     `json:"number"`
	Blocks []Block `json:"blocks"`
}

// Document is the laid-out report. It is not modified after Layout returns.
type Document struct {
	Title       string    `json:"title"`
	FileName    string    `json:"fileName"`
	GeneratedAt time.Time `json:"generatedAt"`
	Pages       []Page    `json:"pages"`
}

// FileName returns the download name of a report generated at t.
func FileName(t time.Time) string {
	return "Finanzanalyse_Bericht_" + t.Format("2006-01-02") + ".pdf"
}
